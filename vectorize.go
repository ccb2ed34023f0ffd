package vecpy

import (
	"fmt"

	"github.com/google/uuid"
)

// CompiledKernel is the full set of emitted text artifacts produced by one
// Vectorize call, keyed by the on-disk filename convention spec.md 6 names
// (vecpy_<name>_kernel.h, vecpy_<name>_core.cpp, one header per requested
// binding). Writing these to disk and invoking the native toolchain on them
// is out of scope (spec.md 1) -- Vectorize only produces text.
type CompiledKernel struct {
	Kernel  *Kernel
	Options Options
	BuildID string
	Files   map[string]string
}

// Vectorize is the library entry point spec.md 6 names: lower ast into a
// Kernel, validate options, and emit every requested artifact. Grounded on
// compiler.py's Compiler.compile, generalized from its three hardcoded
// bindings to options.Bindings and from its fixed numThreads to
// options.Threads (or an auto-detected core count).
func Vectorize(ast *FuncDef, options Options) (*CompiledKernel, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	k, err := Lower(ast)
	if err != nil {
		return nil, err
	}

	threads := options.Threads
	if threads <= 0 {
		threads = detectNumThreads()
	}
	buildID := uuid.NewString()

	kernelHeader := NewFormatter()
	kernelHeader.Line("// vecpy build %s", buildID)
	EmitArgsStruct(kernelHeader, k, options.Type)
	scalarText, err := EmitScalar(k, options.Type)
	if err != nil {
		return nil, err
	}
	kernelHeader.Append(scalarText)
	if !options.Arch.IsGeneric() {
		vectorText, err := EmitVector(k, options.Arch, options.Type)
		if err != nil {
			return nil, err
		}
		kernelHeader.Append(vectorText)
	}

	files := map[string]string{
		kernelFileName(k): kernelHeader.String(),
	}

	var includeFiles []string
	for _, b := range options.expandedBindings() {
		switch b {
		case BindingCpp:
			text, err := EmitCppBinding(k, options.Type)
			if err != nil {
				return nil, err
			}
			files[cppFileName(k)] = text
			includeFiles = append(includeFiles, cppFileName(k))
		case BindingDynamic:
			text, err := EmitDynamicBinding(k, options.Type)
			if err != nil {
				return nil, err
			}
			files[dynamicFileName(k)] = text
			includeFiles = append(includeFiles, dynamicFileName(k))
		case BindingManaged:
			text, err := EmitManagedBinding(k, options.Type, options.ManagedPackageName)
			if err != nil {
				return nil, err
			}
			files[managedFileName(k)] = text
			includeFiles = append(includeFiles, managedFileName(k))
		default:
			return nil, newConfigError("unsupported binding %q", b)
		}
	}

	driverText, err := EmitDriver(k, options.Arch, options.Type, threads)
	if err != nil {
		return nil, err
	}
	core := NewFormatter()
	core.Line("// vecpy build %s", buildID)
	core.Line("#include \"%s\"", kernelFileName(k))
	core.Append(driverText)
	for _, inc := range includeFiles {
		core.Line("#include \"%s\"", inc)
	}
	files[coreFileName(k)] = core.String()

	return &CompiledKernel{Kernel: k, Options: options, BuildID: buildID, Files: files}, nil
}

func kernelFileName(k *Kernel) string  { return fmt.Sprintf("vecpy_%s_kernel.h", k.Name) }
func coreFileName(k *Kernel) string    { return fmt.Sprintf("vecpy_%s_core.cpp", k.Name) }
func cppFileName(k *Kernel) string     { return fmt.Sprintf("vecpy_%s_cpp.h", k.Name) }
func dynamicFileName(k *Kernel) string { return fmt.Sprintf("vecpy_%s_dynamic.h", k.Name) }
func managedFileName(k *Kernel) string { return fmt.Sprintf("vecpy_%s_managed.h", k.Name) }
