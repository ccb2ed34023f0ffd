package vecpy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorizeGenericAllBindings(t *testing.T) {
	kernel, err := Vectorize(s1Kernel(), Options{
		Arch:     ArchGeneric,
		Type:     DataTypeFloat32,
		Bindings: []Binding{BindingAll},
		Threads:  1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, kernel.BuildID)
	assert.Contains(t, kernel.Files, "vecpy_s1_kernel.h")
	assert.Contains(t, kernel.Files, "vecpy_s1_core.cpp")
	assert.Contains(t, kernel.Files, "vecpy_s1_cpp.h")
	assert.Contains(t, kernel.Files, "vecpy_s1_dynamic.h")
	assert.Contains(t, kernel.Files, "vecpy_s1_managed.h")

	header := kernel.Files["vecpy_s1_kernel.h"]
	assert.Contains(t, header, kernel.BuildID)
	// Generic architecture emits only the scalar kernel.
	assert.NotContains(t, header, "__m128")
	assert.NotContains(t, header, "__m256")
}

func TestVectorizeSSE4EmitsVectorKernel(t *testing.T) {
	kernel, err := Vectorize(s1Kernel(), Options{
		Arch:     ArchSSE4,
		Type:     DataTypeFloat32,
		Bindings: []Binding{BindingCpp},
		Threads:  2,
	})
	require.NoError(t, err)
	header := kernel.Files["vecpy_s1_kernel.h"]
	assert.Contains(t, header, "__m128")

	core := kernel.Files["vecpy_s1_core.cpp"]
	// S6 -- the alignment check runs before any thread is spawned.
	assert.Contains(t, core, "isAligned")
	assert.True(t, strings.Index(core, "isAligned") < strings.Index(core, "pthread_create"))
	// Tail handling invokes the scalar kernel over the leftover elements.
	assert.Contains(t, core, "s1_scalar")
}

func TestVectorizeAVX2EmitsVectorKernel(t *testing.T) {
	kernel, err := Vectorize(s1Kernel(), Options{
		Arch:     ArchAVX2,
		Type:     DataTypeFloat32,
		Bindings: []Binding{BindingDynamic},
	})
	require.NoError(t, err)
	header := kernel.Files["vecpy_s1_kernel.h"]
	assert.Contains(t, header, "__m256")
	assert.Contains(t, kernel.Files, "vecpy_s1_dynamic.h")
}

func TestVectorizeUniformBroadcast(t *testing.T) {
	kernel, err := Vectorize(s4Kernel(), Options{
		Arch:     ArchAVX2,
		Type:     DataTypeFloat32,
		Bindings: []Binding{BindingCpp},
	})
	require.NoError(t, err)
	cpp := kernel.Files["vecpy_s4_cpp.h"]
	// Uniform arguments are passed by value, not as pointers.
	assert.Contains(t, cpp, "float a")
	assert.Contains(t, cpp, "float b")
}

func TestVectorizeStrideArgument(t *testing.T) {
	kernel, err := Vectorize(s5Kernel(), Options{
		Arch:     ArchAVX2,
		Type:     DataTypeFloat32,
		Bindings: []Binding{BindingDynamic},
	})
	require.NoError(t, err)
	dyn := kernel.Files["vecpy_s5_dynamic.h"]
	// Stride-2 buffer length is checked against N*stride elements.
	assert.Contains(t, dyn, "sizeof(float) * 2")
}

func TestVectorizeRejectsNoBindings(t *testing.T) {
	_, err := Vectorize(s1Kernel(), Options{Arch: ArchGeneric, Type: DataTypeFloat32})
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestVectorizeRejectsNegativeThreads(t *testing.T) {
	_, err := Vectorize(s1Kernel(), Options{
		Arch: ArchGeneric, Type: DataTypeFloat32,
		Bindings: []Binding{BindingCpp}, Threads: -1,
	})
	require.Error(t, err)
}

// Idempotent recompilation: running the pipeline twice on the same input
// produces emitted text that differs only in the build-id banner line
// (spec.md 8, universal property 6).
func TestVectorizeIdempotentModuloBuildID(t *testing.T) {
	options := Options{Arch: ArchSSE4, Type: DataTypeFloat32, Bindings: []Binding{BindingCpp}, Threads: 1}
	k1, err := Vectorize(s1Kernel(), options)
	require.NoError(t, err)
	k2, err := Vectorize(s1Kernel(), options)
	require.NoError(t, err)

	for name, text1 := range k1.Files {
		text2, ok := k2.Files[name]
		require.True(t, ok)
		stripped1 := strings.ReplaceAll(text1, k1.BuildID, "")
		stripped2 := strings.ReplaceAll(text2, k2.BuildID, "")
		assert.Equal(t, stripped1, stripped2, "file %s differs beyond its build id", name)
	}
}
