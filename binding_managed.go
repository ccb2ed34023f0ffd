package vecpy

import (
	"fmt"
	"strings"
)

// managedClassName turns a dotted Java/JNI package name into the
// underscore-joined class prefix JNI function names require
// (Java_<package>_<Class>_<method>). An empty packageName falls back to
// "VecPy", matching compiler.py's hardcoded default.
func managedClassName(packageName string) string {
	if packageName == "" {
		return "VecPy"
	}
	return strings.ReplaceAll(packageName, ".", "_")
}

// managedBufferType is the java.nio buffer class backing dtype's direct
// buffers.
func managedBufferType(dtype DataType) string {
	if dtype == DataTypeFloat32 {
		return "FloatBuffer"
	}
	return "IntBuffer"
}

// EmitManagedBinding renders the managed-runtime direct-buffer entry point
// for kernel k, targeting JNI as the concrete instance of spec.md 6's
// "managed-runtime direct-buffer host" family. Grounded on compiler.py's
// Compiler.compile_java, generalized to accept uniform arguments (passed as
// plain jfloat/jint parameters rather than buffers) and to include the
// aligned allocate/free helpers spec.md 6 requires alongside the kernel
// entry point.
func EmitManagedBinding(k *Kernel, dtype DataType, packageName string) (string, error) {
	ctype := dtype.CType()
	jtype := "jfloat"
	if dtype == DataTypeUInt32 {
		jtype = "jint"
	}
	bufferType := managedBufferType(dtype)
	class := managedClassName(packageName)
	argsType := ArgsStructName(k)

	var bufferArgs, uniformArgs []*Variable
	for _, v := range k.Arguments(ArgumentFilter{}) {
		if v.Kind == KindUniformScalar {
			uniformArgs = append(uniformArgs, v)
		} else {
			bufferArgs = append(bufferArgs, v)
		}
	}
	if len(bufferArgs) == 0 {
		return "", fmt.Errorf("vecpy: managed binding: kernel %q has no buffer argument to size N from", k.Name)
	}

	f := NewFormatter()
	f.Section(fmt.Sprintf("%s -- managed-runtime direct-buffer binding (JNI)", k.Name))
	f.Line("#include <jni.h>")
	f.Line("#include <cstdlib>")
	f.Blank()

	var params []string
	for _, v := range bufferArgs {
		params = append(params, fmt.Sprintf("jobject buf_%s", v.Name))
	}
	for _, v := range uniformArgs {
		params = append(params, fmt.Sprintf("%s %s", jtype, v.Name))
	}
	f.Line("extern \"C\" JNIEXPORT jboolean JNICALL Java_%s_%s(JNIEnv* env, jclass cls, %s) {", class, k.Name, strings.Join(params, ", "))
	f.Indent()
	f.Line("jclass bufferClass = env->FindClass(\"java/nio/%s\");", bufferType)
	f.Line("jmethodID isDirect = env->GetMethodID(bufferClass, \"isDirect\", \"()Z\");")
	for _, v := range bufferArgs {
		f.Line("if (!env->CallBooleanMethod(buf_%s, isDirect)) { return JNI_FALSE; }", v.Name)
	}

	first := bufferArgs[0]
	f.Line("jlong N = env->GetDirectBufferCapacity(buf_%s) / %d;", first.Name, elementsPerEntry(first))
	f.Line("if (N == -1) { return JNI_FALSE; }")
	for _, v := range bufferArgs[1:] {
		f.Line("if (env->GetDirectBufferCapacity(buf_%s) / %d != N) { return JNI_FALSE; }", v.Name, elementsPerEntry(v))
	}

	f.Line("%s args;", argsType)
	for _, v := range bufferArgs {
		f.Line("args.%s = (%s*)env->GetDirectBufferAddress(buf_%s);", v.Name, ctype, v.Name)
	}
	for _, v := range uniformArgs {
		f.Line("args.%s = (%s)%s;", v.Name, ctype, v.Name)
	}
	f.Line("args.N = (unsigned int)N;")
	for _, v := range bufferArgs {
		f.Line("if (args.%s == NULL) { return JNI_FALSE; }", v.Name)
	}
	f.Line("return %s(&args) ? JNI_TRUE : JNI_FALSE;", driverFuncName(k))
	f.Unindent()
	f.Line("}")
	f.Blank()

	align := alignmentBytes(ArchAVX2) // 32-byte boundary regardless of the kernel's own target, so one buffer works across architectures
	f.Line("extern \"C\" JNIEXPORT jobject JNICALL Java_%s_allocate(JNIEnv* env, jclass cls, jint n, jint stride) {", class)
	f.Indent()
	f.Line("void* mem = NULL;")
	f.Line("size_t bytes = (size_t)n * (size_t)stride * sizeof(%s);", ctype)
	f.Line("if (posix_memalign(&mem, %d, bytes) != 0) { return NULL; }", align)
	f.Line("return env->NewDirectByteBuffer(mem, (jlong)bytes);")
	f.Unindent()
	f.Line("}")
	f.Blank()

	f.Line("extern \"C\" JNIEXPORT void JNICALL Java_%s_free(JNIEnv* env, jclass cls, jobject buffer) {", class)
	f.Indent()
	f.Line("void* mem = env->GetDirectBufferAddress(buffer);")
	f.Line("if (mem != NULL) { free(mem); }")
	f.Unindent()
	f.Line("}")
	return f.String(), nil
}
