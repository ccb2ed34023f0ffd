package vecpy

import (
	"fmt"
	"strings"
)

// Architecture is the record described in spec.md 6: level classifies the
// family (Generic: 1xx, Intel SIMD: 2xx), size is the SIMD vector width in
// elements, flag is the compiler flag needed to target it.
type Architecture struct {
	Level int
	Name  string
	Size  int
	Flag  string
}

var (
	ArchGeneric = Architecture{Level: 100, Name: "Generic", Size: 1, Flag: ""}
	ArchSSE4    = Architecture{Level: 205, Name: "SSE4.2", Size: 4, Flag: "-msse4.2"}
	ArchAVX2    = Architecture{Level: 207, Name: "AVX2", Size: 8, Flag: "-mavx2"}
)

// IsGeneric reports whether a is the scalar-only Generic architecture.
func (a Architecture) IsGeneric() bool { return a.Level/100 == 1 }

// IsIntel reports whether a is one of the Intel SIMD architectures.
func (a Architecture) IsIntel() bool { return a.Level/100 == 2 }

func (a Architecture) String() string { return a.Name }

// ParseArchitecture parses a user-facing architecture name (CLI flag or
// VECPY_ARCH environment variable).
func ParseArchitecture(s string) (Architecture, error) {
	switch strings.ToLower(s) {
	case "generic", "":
		return ArchGeneric, nil
	case "sse4", "sse4.2", "sse":
		return ArchSSE4, nil
	case "avx2", "avx":
		return ArchAVX2, nil
	default:
		return Architecture{}, fmt.Errorf("unsupported architecture: %s (supported: generic, sse4, avx2)", s)
	}
}

// DataType is one of the two element types this compiler supports.
type DataType int

const (
	DataTypeFloat32 DataType = iota
	DataTypeUInt32
)

func (t DataType) String() string {
	switch t {
	case DataTypeFloat32:
		return "float"
	case DataTypeUInt32:
		return "uint32"
	default:
		return "unknown"
	}
}

// IsFloating reports whether t is a floating-point type.
func (t DataType) IsFloating() bool { return t == DataTypeFloat32 }

// CType returns the C type name used for a scalar of this type.
func (t DataType) CType() string {
	switch t {
	case DataTypeFloat32:
		return "float"
	case DataTypeUInt32:
		return "uint32_t"
	default:
		return "void"
	}
}

// ParseDataType parses a user-facing datatype name.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(s) {
	case "float", "float32", "f32", "":
		return DataTypeFloat32, nil
	case "uint32", "uint", "u32":
		return DataTypeUInt32, nil
	default:
		return 0, fmt.Errorf("unsupported datatype: %s (supported: float, uint32)", s)
	}
}
