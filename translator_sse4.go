package vecpy

import "fmt"

// sse4FloatTranslator targets SSE4.2, 4 packed floats per __m128. Grounded
// on compiler_intel.py's SSE4_Float: native intrinsics for arithmetic,
// comparison, bitwise, min/max/abs/round/sqrt/floor/ceil/trunc; every
// transcendental math function falls back to a per-lane scalar loop.
type sse4FloatTranslator struct{}

func (sse4FloatTranslator) Architecture() Architecture { return ArchSSE4 }
func (sse4FloatTranslator) DataType() DataType         { return DataTypeFloat32 }
func (sse4FloatTranslator) VectorType() string         { return "__m128" }

func (sse4FloatTranslator) Setup(f *Formatter, k *Kernel) {
	f.Line("const __m128 MASK_TRUE = _mm_castsi128_ps(_mm_set1_epi32(-1));")
	f.Line("const __m128 MASK_FALSE = _mm_setzero_ps();")
}

func (sse4FloatTranslator) Load(f *Formatter, dst, arg, index string) {
	f.Line("%s = _mm_loadu_ps(&%s[%s]);", dst, arg, index)
}

func (sse4FloatTranslator) Broadcast(f *Formatter, dst, scalarExpr string) {
	f.Line("const __m128 %s = _mm_set1_ps(%s);", dst, scalarExpr)
}

func (sse4FloatTranslator) Store(f *Formatter, arg, index, src string) {
	f.Line("_mm_storeu_ps(&%s[%s], %s);", arg, index, src)
}

func (t sse4FloatTranslator) BinOp(f *Formatter, dst, left string, op Operator, right string) error {
	switch op {
	case OpAdd:
		f.Line("%s = _mm_add_ps(%s, %s);", dst, left, right)
	case OpSub:
		f.Line("%s = _mm_sub_ps(%s, %s);", dst, left, right)
	case OpMul:
		f.Line("%s = _mm_mul_ps(%s, %s);", dst, left, right)
	case OpDiv:
		f.Line("%s = _mm_div_ps(%s, %s);", dst, left, right)
	case OpFloorDiv:
		f.Line("%s = _mm_floor_ps(_mm_div_ps(%s, %s));", dst, left, right)
	case OpBitAnd, OpBoolAnd:
		f.Line("%s = _mm_and_ps(%s, %s);", dst, left, right)
	case OpBitAndNot:
		f.Line("%s = _mm_andnot_ps(%s, %s);", dst, right, left)
	case OpBitOr, OpBoolOr:
		f.Line("%s = _mm_or_ps(%s, %s);", dst, left, right)
	case OpBitXor:
		f.Line("%s = _mm_xor_ps(%s, %s);", dst, left, right)
	case OpMax:
		f.Line("%s = _mm_max_ps(%s, %s);", dst, left, right)
	case OpMin:
		f.Line("%s = _mm_min_ps(%s, %s);", dst, left, right)
	case OpMod, OpPow, OpAtan2, OpCopysign, OpFmod, OpHypot, OpLdexp:
		laneFallback(f, dst, "float", 4, []string{left, right}, sse4FloatExtract, sse4BinaryScalarExpr(op), sse4FloatPack)
	default:
		return newBackEndError(ArchSSE4, DataTypeFloat32, string(op))
	}
	return nil
}

func (t sse4FloatTranslator) UnaryOp(f *Formatter, dst string, op Operator, operand string) error {
	switch op {
	case OpBitNot, OpBoolNot:
		f.Line("%s = _mm_xor_ps(%s, MASK_TRUE);", dst, operand)
	case OpAbs:
		f.Line("%s = _mm_andnot_ps(_mm_set1_ps(-0.0f), %s);", dst, operand)
	case OpSqrt:
		f.Line("%s = _mm_sqrt_ps(%s);", dst, operand)
	case OpFloor:
		f.Line("%s = _mm_floor_ps(%s);", dst, operand)
	case OpCeil:
		f.Line("%s = _mm_ceil_ps(%s);", dst, operand)
	case OpRound:
		f.Line("%s = _mm_round_ps(%s, _MM_FROUND_TO_NEAREST_INT | _MM_FROUND_NO_EXC);", dst, operand)
	case OpTrunc:
		f.Line("%s = _mm_round_ps(%s, _MM_FROUND_TO_ZERO | _MM_FROUND_NO_EXC);", dst, operand)
	default:
		if fn, ok := libmUnaryFloat[op]; ok {
			laneFallback(f, dst, "float", 4, []string{operand}, sse4FloatExtract, sse4UnaryScalarExpr(fn), sse4FloatPack)
			return nil
		}
		return newBackEndError(ArchSSE4, DataTypeFloat32, string(op))
	}
	return nil
}

func (sse4FloatTranslator) Cmp(f *Formatter, dst, left string, op CompareOp, right string) error {
	intrinsic, ok := map[CompareOp]string{
		CmpEq: "_mm_cmpeq_ps", CmpNe: "_mm_cmpneq_ps", CmpGe: "_mm_cmpge_ps",
		CmpGt: "_mm_cmpgt_ps", CmpLe: "_mm_cmple_ps", CmpLt: "_mm_cmplt_ps",
	}[op]
	if !ok {
		return newBackEndError(ArchSSE4, DataTypeFloat32, string(op))
	}
	f.Line("%s = %s(%s, %s);", dst, intrinsic, left, right)
	return nil
}

func (sse4FloatTranslator) Blend(f *Formatter, dst, mask, input string) {
	f.Line("%s = _mm_or_ps(_mm_and_ps(%s, %s), _mm_andnot_ps(%s, %s));", dst, mask, input, mask, dst)
}

func (sse4FloatTranslator) ArrayLoad(f *Formatter, dst, arr, offsetExpr string) {
	f.Line("%s = %s[%s];", dst, arr, offsetExpr)
}

func (sse4FloatTranslator) ArrayStore(f *Formatter, arr, offsetExpr, src string) {
	f.Line("%s[%s] = %s;", arr, offsetExpr, src)
}

func (sse4FloatTranslator) ExtractLane(v string, lane int) string { return sse4FloatExtract(v, lane) }
func (sse4FloatTranslator) Pack(results []string) string          { return sse4FloatPack(results) }

func sse4FloatExtract(v string, lane int) string {
	return fmt.Sprintf("_mm_cvtss_f32(_mm_shuffle_ps(%s, %s, _MM_SHUFFLE(%d, %d, %d, %d)))", v, v, lane, lane, lane, lane)
}

func sse4FloatPack(results []string) string {
	// _mm_set_ps takes arguments highest-lane-first.
	return fmt.Sprintf("_mm_set_ps(%s, %s, %s, %s)", results[3], results[2], results[1], results[0])
}

func sse4BinaryScalarExpr(op Operator) func(lane int, elems []string) string {
	fn := libmBinaryFloat[op]
	return func(lane int, elems []string) string { return fmt.Sprintf("%s(%s, %s)", fn, elems[0], elems[1]) }
}

func sse4UnaryScalarExpr(fn string) func(lane int, elems []string) string {
	return func(lane int, elems []string) string { return fmt.Sprintf("%s(%s)", fn, elems[0]) }
}

var libmBinaryFloat = map[Operator]string{
	OpMod: "fmodf", OpPow: "powf", OpAtan2: "atan2f", OpCopysign: "copysignf",
	OpFmod: "fmodf", OpHypot: "hypotf", OpLdexp: "ldexpf",
}

var libmUnaryFloat = map[Operator]string{
	OpAcos: "acosf", OpAcosh: "acoshf", OpAsin: "asinf", OpAsinh: "asinhf",
	OpAtan: "atanf", OpAtanh: "atanhf", OpCos: "cosf", OpCosh: "coshf",
	OpErf: "erff", OpErfc: "erfcf", OpExp: "expf", OpExpm1: "expm1f",
	OpFabs: "fabsf", OpGamma: "tgammaf", OpLgamma: "lgammaf", OpLog: "logf",
	OpLog10: "log10f", OpLog1p: "log1pf", OpLog2: "log2f", OpSin: "sinf",
	OpSinh: "sinhf", OpTan: "tanf", OpTanh: "tanhf",
}

// sse4UInt32Translator targets SSE4.2, 4 packed uint32 lanes per __m128i.
// Grounded on compiler_intel.py's SSE4_UInt32: comparisons flip the sign
// bit first since SSE's packed-integer compares are signed; shifts and
// array access have no native variable/vector form on SSE4.2, so both
// fall back to the same per-lane scalar loop.
type sse4UInt32Translator struct{}

func (sse4UInt32Translator) Architecture() Architecture { return ArchSSE4 }
func (sse4UInt32Translator) DataType() DataType         { return DataTypeUInt32 }
func (sse4UInt32Translator) VectorType() string         { return "__m128i" }

func (sse4UInt32Translator) Setup(f *Formatter, k *Kernel) {
	f.Line("const __m128i MASK_TRUE = _mm_set1_epi32(-1);")
	f.Line("const __m128i MASK_FALSE = _mm_setzero_si128();")
	f.Line("const __m128i SIGN_BITS = _mm_set1_epi32(0x80000000);")
}

func (sse4UInt32Translator) Load(f *Formatter, dst, arg, index string) {
	f.Line("%s = _mm_loadu_si128((const __m128i*)&%s[%s]);", dst, arg, index)
}

func (sse4UInt32Translator) Broadcast(f *Formatter, dst, scalarExpr string) {
	f.Line("const __m128i %s = _mm_set1_epi32((int)%s);", dst, scalarExpr)
}

func (sse4UInt32Translator) Store(f *Formatter, arg, index, src string) {
	f.Line("_mm_storeu_si128((__m128i*)&%s[%s], %s);", arg, index, src)
}

func (t sse4UInt32Translator) BinOp(f *Formatter, dst, left string, op Operator, right string) error {
	switch op {
	case OpAdd:
		f.Line("%s = _mm_add_epi32(%s, %s);", dst, left, right)
	case OpSub:
		f.Line("%s = _mm_sub_epi32(%s, %s);", dst, left, right)
	case OpMul:
		f.Line("%s = _mm_mullo_epi32(%s, %s);", dst, left, right)
	case OpBitAnd, OpBoolAnd:
		f.Line("%s = _mm_and_si128(%s, %s);", dst, left, right)
	case OpBitAndNot:
		f.Line("%s = _mm_andnot_si128(%s, %s);", dst, right, left)
	case OpBitOr, OpBoolOr:
		f.Line("%s = _mm_or_si128(%s, %s);", dst, left, right)
	case OpBitXor:
		f.Line("%s = _mm_xor_si128(%s, %s);", dst, left, right)
	case OpMax:
		f.Line("%s = _mm_max_epu32(%s, %s);", dst, left, right)
	case OpMin:
		f.Line("%s = _mm_min_epu32(%s, %s);", dst, left, right)
	case OpDiv, OpFloorDiv, OpMod:
		laneFallback(f, dst, "uint32_t", 4, []string{left, right}, sse4UIntExtract, sse4IntBinaryExpr(op), sse4UIntPack)
	case OpShiftLeft, OpShiftRight:
		laneFallback(f, dst, "uint32_t", 4, []string{left, right}, sse4UIntExtract, sse4ShiftExpr(op), sse4UIntPack)
	default:
		return newBackEndError(ArchSSE4, DataTypeUInt32, string(op))
	}
	return nil
}

func (sse4UInt32Translator) UnaryOp(f *Formatter, dst string, op Operator, operand string) error {
	switch op {
	case OpBitNot, OpBoolNot:
		f.Line("%s = _mm_xor_si128(%s, MASK_TRUE);", dst, operand)
	case OpAbs:
		f.Line("%s = %s; // uint32 is already unsigned", dst, operand)
	default:
		return newBackEndError(ArchSSE4, DataTypeUInt32, string(op))
	}
	return nil
}

func (sse4UInt32Translator) Cmp(f *Formatter, dst, left string, op CompareOp, right string) error {
	// SSE4.2 packed-integer compares are signed; flip the sign bit on both
	// operands first so unsigned ordering is preserved.
	flippedL, flippedR := "__fl", "__fr"
	f.Line("__m128i %s = _mm_xor_si128(%s, SIGN_BITS);", flippedL, left)
	f.Line("__m128i %s = _mm_xor_si128(%s, SIGN_BITS);", flippedR, right)
	switch op {
	case CmpEq:
		f.Line("%s = _mm_cmpeq_epi32(%s, %s);", dst, flippedL, flippedR)
	case CmpNe:
		f.Line("%s = _mm_xor_si128(_mm_cmpeq_epi32(%s, %s), MASK_TRUE);", dst, flippedL, flippedR)
	case CmpGt:
		f.Line("%s = _mm_cmpgt_epi32(%s, %s);", dst, flippedL, flippedR)
	case CmpLt:
		f.Line("%s = _mm_cmpgt_epi32(%s, %s);", dst, flippedR, flippedL)
	case CmpGe:
		f.Line("%s = _mm_or_si128(_mm_cmpgt_epi32(%s, %s), _mm_cmpeq_epi32(%s, %s));", dst, flippedL, flippedR, flippedL, flippedR)
	case CmpLe:
		f.Line("%s = _mm_or_si128(_mm_cmpgt_epi32(%s, %s), _mm_cmpeq_epi32(%s, %s));", dst, flippedR, flippedL, flippedL, flippedR)
	default:
		return newBackEndError(ArchSSE4, DataTypeUInt32, string(op))
	}
	return nil
}

func (sse4UInt32Translator) Blend(f *Formatter, dst, mask, input string) {
	f.Line("%s = _mm_or_si128(_mm_and_si128(%s, %s), _mm_andnot_si128(%s, %s));", dst, mask, input, mask, dst)
}

func (sse4UInt32Translator) ArrayLoad(f *Formatter, dst, arr, offsetExpr string) {
	f.Line("%s = %s[%s];", dst, arr, offsetExpr)
}

func (sse4UInt32Translator) ArrayStore(f *Formatter, arr, offsetExpr, src string) {
	f.Line("%s[%s] = %s;", arr, offsetExpr, src)
}

func (sse4UInt32Translator) ExtractLane(v string, lane int) string { return sse4UIntExtract(v, lane) }
func (sse4UInt32Translator) Pack(results []string) string         { return sse4UIntPack(results) }

func sse4UIntExtract(v string, lane int) string {
	return fmt.Sprintf("(uint32_t)_mm_extract_epi32(%s, %d)", v, lane)
}

func sse4UIntPack(results []string) string {
	return fmt.Sprintf("_mm_set_epi32((int)%s, (int)%s, (int)%s, (int)%s)", results[3], results[2], results[1], results[0])
}

func sse4IntBinaryExpr(op Operator) func(lane int, elems []string) string {
	switch op {
	case OpDiv, OpFloorDiv:
		return func(lane int, elems []string) string { return fmt.Sprintf("%s / %s", elems[0], elems[1]) }
	case OpMod:
		return func(lane int, elems []string) string { return fmt.Sprintf("%s %% %s", elems[0], elems[1]) }
	}
	return func(lane int, elems []string) string { return elems[0] }
}

func sse4ShiftExpr(op Operator) func(lane int, elems []string) string {
	c := "<<"
	if op == OpShiftRight {
		c = ">>"
	}
	return func(lane int, elems []string) string { return fmt.Sprintf("%s %s %s", elems[0], c, elems[1]) }
}
