package vecpy

import (
	"fmt"
	"strings"
)

// dynamicUniformFormatCode returns the CPython PyArg_ParseTuple format
// character for a uniform argument of dtype.
func dynamicUniformFormatCode(dtype DataType) string {
	if dtype == DataTypeFloat32 {
		return "f"
	}
	return "I"
}

// elementsPerEntry is how many dtype-sized storage elements one logical
// entry of v occupies: 1 for a stride-1 array, v.Stride for a stride-k one.
func elementsPerEntry(v *Variable) int {
	if v.Kind == KindArray {
		return v.Stride
	}
	return 1
}

// EmitDynamicBinding renders the dynamic-language buffer-protocol entry
// point for kernel k, targeting CPython's Py_buffer/PyArg_ParseTuple API as
// the concrete instance of spec.md 6's "generic buffer-object host" family.
// Grounded on compiler.py's Compiler.compile_python, generalized to accept
// uniform arguments (absent from the original) via extra format codes
// appended after the buffer objects.
func EmitDynamicBinding(k *Kernel, dtype DataType) (string, error) {
	ctype := dtype.CType()
	argsType := ArgsStructName(k)
	moduleName := "VecPy_" + k.Name

	var bufferArgs, uniformArgs []*Variable
	for _, v := range k.Arguments(ArgumentFilter{}) {
		if v.Kind == KindUniformScalar {
			uniformArgs = append(uniformArgs, v)
		} else {
			bufferArgs = append(bufferArgs, v)
		}
	}
	if len(bufferArgs) == 0 {
		return "", fmt.Errorf("vecpy: dynamic binding: kernel %q has no buffer argument to size N from", k.Name)
	}

	f := NewFormatter()
	f.Section(fmt.Sprintf("%s -- dynamic-language buffer binding (CPython)", k.Name))
	f.Line("#include <Python.h>")
	f.Blank()

	f.Line("static PyObject* %s_run(PyObject* self, PyObject* pyArgs) {", k.Name)
	f.Indent()

	objDecls := make([]string, len(bufferArgs))
	for i, v := range bufferArgs {
		objDecls[i] = "*obj_" + v.Name
	}
	f.Line("PyObject %s;", strings.Join(objDecls, ", "))
	bufDecls := make([]string, len(bufferArgs))
	for i, v := range bufferArgs {
		bufDecls[i] = "buf_" + v.Name
	}
	f.Line("Py_buffer %s;", strings.Join(bufDecls, ", "))

	format := strings.Repeat("O", len(bufferArgs))
	parseTargets := make([]string, 0, len(bufferArgs)+len(uniformArgs))
	for _, v := range bufferArgs {
		parseTargets = append(parseTargets, "&obj_"+v.Name)
	}
	for _, v := range uniformArgs {
		format += dynamicUniformFormatCode(dtype)
		f.Line("%s %s;", ctype, v.Name)
		parseTargets = append(parseTargets, "&"+v.Name)
	}
	f.Line("if (!PyArg_ParseTuple(pyArgs, \"%s\", %s)) {", format, strings.Join(parseTargets, ", "))
	f.Indent()
	f.Line("PyErr_SetString(PyExc_TypeError, \"error parsing arguments\");")
	f.Line("return NULL;")
	f.Unindent()
	f.Line("}")

	for _, v := range bufferArgs {
		flag := "0"
		if v.Output {
			flag = "PyBUF_WRITABLE"
		}
		f.Line("if (PyObject_GetBuffer(obj_%s, &buf_%s, %s) != 0) {", v.Name, v.Name, flag)
		f.Indent()
		f.Line("PyErr_SetString(PyExc_BufferError, \"error retrieving buffer %s\");", v.Name)
		f.Line("return NULL;")
		f.Unindent()
		f.Line("}")
	}

	first := bufferArgs[0]
	f.Line("unsigned int N = (unsigned int)(buf_%s.len / (sizeof(%s) * %d));", first.Name, ctype, elementsPerEntry(first))
	for _, v := range bufferArgs[1:] {
		f.Line("if ((unsigned int)(buf_%s.len / (sizeof(%s) * %d)) != N) {", v.Name, ctype, elementsPerEntry(v))
		f.Indent()
		f.Line("PyErr_SetString(PyExc_ValueError, \"buffer size mismatch (%s)\");", v.Name)
		f.Line("return NULL;")
		f.Unindent()
		f.Line("}")
	}

	f.Line("%s args;", argsType)
	for _, v := range bufferArgs {
		f.Line("args.%s = (%s*)buf_%s.buf;", v.Name, ctype, v.Name)
	}
	for _, v := range uniformArgs {
		f.Line("args.%s = %s;", v.Name, v.Name)
	}
	f.Line("args.N = N;")
	f.Line("bool result = %s(&args);", driverFuncName(k))
	for _, v := range bufferArgs {
		f.Line("PyBuffer_Release(&buf_%s);", v.Name)
	}
	f.Line("if (result) { Py_RETURN_TRUE; } else { PyErr_SetString(PyExc_RuntimeError, \"kernel reported failure\"); return NULL; }")
	f.Unindent()
	f.Line("}")
	f.Blank()

	f.Line("static PyMethodDef %s_methods[] = {", k.Name)
	f.Indent()
	f.Line("{\"%s\", %s_run, METH_VARARGS, \"%s\"},", k.Name, k.Name, pyDocstring(k))
	f.Line("{NULL, NULL, 0, NULL}")
	f.Unindent()
	f.Line("};")
	f.Blank()

	f.Line("static struct PyModuleDef %s_module = {", k.Name)
	f.Indent()
	f.Line("PyModuleDef_HEAD_INIT, \"%s\", \"VecPy module for %s.\", -1, %s_methods, NULL, NULL, NULL, NULL", moduleName, k.Name, k.Name)
	f.Unindent()
	f.Line("};")
	f.Blank()

	f.Line("PyMODINIT_FUNC PyInit_%s(void) { return PyModule_Create(&%s_module); }", moduleName, k.Name)
	return f.String(), nil
}

func pyDocstring(k *Kernel) string {
	d := strings.ReplaceAll(k.Docstring, "\n", "\\n")
	return strings.ReplaceAll(d, "\"", "\\\"")
}
