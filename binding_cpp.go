package vecpy

import (
	"fmt"
	"strings"
)

// EmitCppBinding renders the native C/C++ entry point for kernel k: a thin
// extern "C" wrapper over run() taking each non-uniform argument as a raw
// pointer and each uniform argument by value, plus the element count N.
// Grounded on compiler.py's Compiler.compile_cpp (spec.md 6, binding 1).
func EmitCppBinding(k *Kernel, dtype DataType) (string, error) {
	f := NewFormatter()
	ctype := dtype.CType()
	argsType := ArgsStructName(k)

	f.Section(fmt.Sprintf("%s -- native C/C++ binding", k.Name))
	var params []string
	for _, v := range k.Arguments(ArgumentFilter{}) {
		if v.Kind == KindUniformScalar {
			params = append(params, fmt.Sprintf("%s %s", ctype, v.Name))
		} else {
			params = append(params, fmt.Sprintf("%s* %s", ctype, v.Name))
		}
	}
	params = append(params, "unsigned int N")

	f.Line("extern \"C\" bool %s(%s) {", k.Name, strings.Join(params, ", "))
	f.Indent()
	f.Line("%s args;", argsType)
	for _, v := range k.Arguments(ArgumentFilter{}) {
		f.Line("args.%s = %s;", v.Name, v.Name)
	}
	f.Line("args.N = N;")
	f.Line("return %s(&args);", driverFuncName(k))
	f.Unindent()
	f.Line("}")
	return f.String(), nil
}
