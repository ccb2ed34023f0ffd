package vecpy

import (
	"strings"

	"github.com/google/uuid"
	"github.com/xyproto/env/v2"
)

// Binding names one of the three foreign-language entry-point families
// spec.md 6 defines. All selects every family.
type Binding string

const (
	BindingCpp     Binding = "cpp"
	BindingDynamic Binding = "dynamic"
	BindingManaged Binding = "managed"
	BindingAll     Binding = "all"
)

// Options is the Go form of spec.md 6's `options` record passed to
// Vectorize: architecture, datatype, which foreign bindings to emit, the
// worker-thread count, and (for the managed binding) the JNI package name
// its class names are derived from.
type Options struct {
	Arch               Architecture
	Type               DataType
	Bindings           []Binding
	Threads            int // 0 means auto-detect (cpucount_*.go)
	ManagedPackageName string
	Verbose            bool
}

// OptionsFromEnv builds Options from its environment-variable fallbacks
// (VECPY_ARCH, VECPY_TYPE, VECPY_THREADS, VECPY_BINDINGS,
// VECPY_MANAGED_PACKAGE, VECPY_VERBOSE), the same shape the teacher's go.mod
// names `xyproto/env/v2` for but never exercises. CLI flags take precedence
// over these when both are set; callers that only want the environment
// defaults can use this result directly.
func OptionsFromEnv() Options {
	arch, _ := ParseArchitecture(env.Str("VECPY_ARCH", "generic"))
	dtype, _ := ParseDataType(env.Str("VECPY_TYPE", "float"))
	return Options{
		Arch:               arch,
		Type:               dtype,
		Bindings:           parseBindings(env.Str("VECPY_BINDINGS", "all")),
		Threads:            env.Int("VECPY_THREADS", 0),
		ManagedPackageName: env.Str("VECPY_MANAGED_PACKAGE", ""),
		Verbose:            env.Bool("VECPY_VERBOSE"),
	}
}

func parseBindings(s string) []Binding {
	var out []Binding
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		out = append(out, Binding(part))
	}
	return out
}

// expandedBindings resolves BindingAll into the concrete set of three, and
// de-duplicates.
func (o Options) expandedBindings() []Binding {
	all := false
	for _, b := range o.Bindings {
		if b == BindingAll {
			all = true
		}
	}
	if all {
		return []Binding{BindingCpp, BindingDynamic, BindingManaged}
	}
	seen := map[Binding]bool{}
	var out []Binding
	for _, b := range o.Bindings {
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}

// Validate checks o against spec.md 7's ConfigError conditions: no bindings
// requested, or an invalid thread count. Missing architecture/dtype can't
// reach here since ParseArchitecture/ParseDataType always return a valid
// zero value (Generic/float) on an empty string.
func (o Options) Validate() error {
	if len(o.expandedBindings()) == 0 {
		return &ConfigError{Message: "no language bindings requested", BuildID: uuid.NewString()}
	}
	if o.Threads < 0 {
		return &ConfigError{Message: "thread count must be positive or zero (auto)", BuildID: uuid.NewString()}
	}
	return nil
}
