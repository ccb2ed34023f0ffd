package vecpy

import "strings"

// ArgsStructName is the C struct type carrying one call's arguments: one
// field per kernel argument (uniform scalars by value, scalar/array
// arguments as pointers) plus the element count N. The scalar kernel, the
// vector kernel and the run() driver each take a `const <Name>Args*`; the
// three foreign bindings fill one in from their own parameters and pass it
// to run(), matching compiler.py's KernelArgs convention.
func ArgsStructName(k *Kernel) string {
	return exportName(k.Name) + "Args"
}

func exportName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// EmitArgsStruct writes the struct declaration for k under dtype.
func EmitArgsStruct(f *Formatter, k *Kernel, dtype DataType) {
	ctype := dtype.CType()
	name := ArgsStructName(k)
	f.Line("struct %s {", name)
	f.Indent()
	for _, v := range k.Arguments(ArgumentFilter{Uniform: true}) {
		f.Line("%s %s;", ctype, v.Name)
	}
	for _, v := range k.Arguments(ArgumentFilter{}) {
		if v.Kind == KindUniformScalar {
			continue
		}
		f.Line("%s* %s;", ctype, v.Name)
	}
	f.Line("unsigned int N;")
	f.Unindent()
	f.Line("};")
}

// scalarFuncName and vectorFuncName name the two per-kernel entry points
// the scalar and vector emitters produce (spec.md 4.D/4.E).
func scalarFuncName(k *Kernel) string { return k.Name + "_scalar" }
func vectorFuncName(k *Kernel) string { return k.Name + "_vector" }
