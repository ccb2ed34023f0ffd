package vecpy

import "fmt"

// driverFuncName, threadStartFuncName, isAlignedFuncName, and checkArgsFuncName
// name the helper functions EmitDriver emits alongside run() itself.
func driverFuncName(k *Kernel) string      { return k.Name + "_run" }
func threadStartFuncName(k *Kernel) string { return k.Name + "_threadStart" }
func isAlignedFuncName(k *Kernel) string   { return k.Name + "_isAligned" }
func checkArgsFuncName(k *Kernel) string   { return k.Name + "_checkArgs" }

// alignmentBytes returns the buffer alignment run() requires for arch: one
// SIMD register's width in bytes (both supported element types are 4 bytes
// wide). Generic has no vector register and so no alignment requirement.
func alignmentBytes(arch Architecture) int {
	if arch.IsGeneric() {
		return 1
	}
	return arch.Size * 4
}

// pointerArguments returns the subset of k's arguments that are pointers in
// the args struct (everything but the uniform scalars), in declaration
// order -- the same set EmitArgsStruct emits as `ctype* name`.
func pointerArguments(k *Kernel) []*Variable {
	var out []*Variable
	for _, v := range k.Arguments(ArgumentFilter{}) {
		if v.Kind == KindUniformScalar {
			continue
		}
		out = append(out, v)
	}
	return out
}

// EmitDriver renders the thread-partitioning run() entry point for kernel k
// targeting (arch, dtype): it splits args->N across numThreads worker
// threads, each running the vectorized kernel over a contiguous, aligned
// slice, then finishes the remainder (tail) on the calling thread using the
// scalar kernel. Grounded on compiler.py's Compiler.compile_core, generalized
// per spec.md 4.F from the original's hardcoded numThreads=2/size=4 to a
// caller-supplied thread count and the per-architecture vector width.
// numThreads is resolved once at compile time (explicit Options.Threads or
// auto-detected core count, see config.go/cpucount_*.go) and baked into the
// generated run() as a constant, the same way the original hardcoded it.
func EmitDriver(k *Kernel, arch Architecture, dtype DataType, numThreads int) (string, error) {
	if numThreads < 1 {
		numThreads = 1
	}
	f := NewFormatter()
	argsType := ArgsStructName(k)
	size := arch.Size
	ptrArgs := pointerArguments(k)

	f.Section(fmt.Sprintf("%s -- driver (%s/%s)", k.Name, arch, dtype))
	f.Line("#include <pthread.h>")
	f.Line("#include <stdio.h>")
	f.Blank()

	if arch.IsGeneric() {
		f.Line("static void* %s(void* v) { %s((const %s*)v); return NULL; }", threadStartFuncName(k), scalarFuncName(k), argsType)
	} else {
		f.Line("static void* %s(void* v) { %s((const %s*)v); return NULL; }", threadStartFuncName(k), vectorFuncName(k), argsType)
	}
	f.Blank()

	align := alignmentBytes(arch)
	f.Line("static bool %s(const void* data) {", isAlignedFuncName(k))
	f.Indent()
	f.Line("return reinterpret_cast<unsigned long>(data) %% %dUL == 0UL;", align)
	f.Unindent()
	f.Line("}")
	f.Blank()

	f.Line("static bool %s(const %s* args) {", checkArgsFuncName(k), argsType)
	f.Indent()
	for _, v := range ptrArgs {
		f.Line("if (!%s(args->%s)) {", isAlignedFuncName(k), v.Name)
		f.Indent()
		f.Line("printf(\"Array not aligned (%s)\\n\");", v.Name)
		f.Line("return false;")
		f.Unindent()
		f.Line("}")
	}
	f.Line("return true;")
	f.Unindent()
	f.Line("}")
	f.Blank()

	f.Line("bool %s(const %s* args) {", driverFuncName(k), argsType)
	f.Indent()
	f.Line("if (!%s(args)) {", checkArgsFuncName(k))
	f.Indent()
	f.Line("printf(\"Arguments are invalid\\n\");")
	f.Line("return false;")
	f.Unindent()
	f.Line("}")
	f.Line("const unsigned int numThreads = %dU;", numThreads)
	f.Line("unsigned int vectorsPerThread = args->N / (%dU * numThreads);", size)
	f.Line("unsigned int elementsPerThread = vectorsPerThread * %dU;", size)
	f.Line("unsigned int offset = 0;")
	f.Line("if (elementsPerThread > 0) {")
	f.Indent()
	f.Line("pthread_t* threads = new pthread_t[numThreads];")
	f.Line("%s* threadArgs = new %s[numThreads];", argsType, argsType)
	f.Line("for (unsigned int t = 0; t < numThreads; t++) {")
	f.Indent()
	for _, v := range k.Arguments(ArgumentFilter{Uniform: true}) {
		f.Line("threadArgs[t].%s = args->%s;", v.Name, v.Name)
	}
	for _, v := range ptrArgs {
		if v.Kind == KindArray {
			f.Line("threadArgs[t].%s = args->%s + offset*%d;", v.Name, v.Name, v.Stride)
		} else {
			f.Line("threadArgs[t].%s = args->%s + offset;", v.Name, v.Name)
		}
	}
	f.Line("threadArgs[t].N = elementsPerThread;")
	f.Line("offset += elementsPerThread;")
	f.Line("pthread_create(&threads[t], NULL, %s, (void*)&threadArgs[t]);", threadStartFuncName(k))
	f.Unindent()
	f.Line("}")
	f.Line("for (unsigned int t = 0; t < numThreads; t++) { pthread_join(threads[t], NULL); }")
	f.Line("delete [] threads;")
	f.Line("delete [] threadArgs;")
	f.Unindent()
	f.Line("}")
	f.Blank()

	// Tail: elements beyond the last full per-thread slice, run scalar on
	// the calling thread after every worker has joined.
	f.Line("if (offset < args->N) {")
	f.Indent()
	f.Line("%s tailArgs = *args;", argsType)
	for _, v := range ptrArgs {
		if v.Kind == KindArray {
			f.Line("tailArgs.%s = args->%s + offset*%d;", v.Name, v.Name, v.Stride)
		} else {
			f.Line("tailArgs.%s = args->%s + offset;", v.Name, v.Name)
		}
	}
	f.Line("tailArgs.N = args->N - offset;")
	f.Line("if (!%s(&tailArgs)) { return false; }", scalarFuncName(k))
	f.Unindent()
	f.Line("}")

	f.Line("return true;")
	f.Unindent()
	f.Line("}")
	return f.String(), nil
}
