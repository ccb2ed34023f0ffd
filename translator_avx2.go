package vecpy

import "fmt"

// avx2FloatTranslator targets AVX2, 8 packed floats per __m256. Grounded on
// compiler_intel.py's AVX2_Float: same operator coverage as SSE4_Float,
// widened to 8 lanes, using _mm256_cmp_ps with an explicit predicate
// constant in place of SSE's per-predicate compare intrinsics.
type avx2FloatTranslator struct{}

func (avx2FloatTranslator) Architecture() Architecture { return ArchAVX2 }
func (avx2FloatTranslator) DataType() DataType         { return DataTypeFloat32 }
func (avx2FloatTranslator) VectorType() string         { return "__m256" }

func (avx2FloatTranslator) Setup(f *Formatter, k *Kernel) {
	f.Line("const __m256 MASK_TRUE = _mm256_castsi256_ps(_mm256_set1_epi32(-1));")
	f.Line("const __m256 MASK_FALSE = _mm256_setzero_ps();")
}

func (avx2FloatTranslator) Load(f *Formatter, dst, arg, index string) {
	f.Line("%s = _mm256_loadu_ps(&%s[%s]);", dst, arg, index)
}

func (avx2FloatTranslator) Broadcast(f *Formatter, dst, scalarExpr string) {
	f.Line("const __m256 %s = _mm256_set1_ps(%s);", dst, scalarExpr)
}

func (avx2FloatTranslator) Store(f *Formatter, arg, index, src string) {
	f.Line("_mm256_storeu_ps(&%s[%s], %s);", arg, index, src)
}

func (t avx2FloatTranslator) BinOp(f *Formatter, dst, left string, op Operator, right string) error {
	switch op {
	case OpAdd:
		f.Line("%s = _mm256_add_ps(%s, %s);", dst, left, right)
	case OpSub:
		f.Line("%s = _mm256_sub_ps(%s, %s);", dst, left, right)
	case OpMul:
		f.Line("%s = _mm256_mul_ps(%s, %s);", dst, left, right)
	case OpDiv:
		f.Line("%s = _mm256_div_ps(%s, %s);", dst, left, right)
	case OpFloorDiv:
		f.Line("%s = _mm256_floor_ps(_mm256_div_ps(%s, %s));", dst, left, right)
	case OpBitAnd, OpBoolAnd:
		f.Line("%s = _mm256_and_ps(%s, %s);", dst, left, right)
	case OpBitAndNot:
		f.Line("%s = _mm256_andnot_ps(%s, %s);", dst, right, left)
	case OpBitOr, OpBoolOr:
		f.Line("%s = _mm256_or_ps(%s, %s);", dst, left, right)
	case OpBitXor:
		f.Line("%s = _mm256_xor_ps(%s, %s);", dst, left, right)
	case OpMax:
		f.Line("%s = _mm256_max_ps(%s, %s);", dst, left, right)
	case OpMin:
		f.Line("%s = _mm256_min_ps(%s, %s);", dst, left, right)
	case OpMod, OpPow, OpAtan2, OpCopysign, OpFmod, OpHypot, OpLdexp:
		laneFallback(f, dst, "float", 8, []string{left, right}, avx2FloatExtract, sse4BinaryScalarExpr(op), avx2FloatPack)
	default:
		return newBackEndError(ArchAVX2, DataTypeFloat32, string(op))
	}
	return nil
}

func (t avx2FloatTranslator) UnaryOp(f *Formatter, dst string, op Operator, operand string) error {
	switch op {
	case OpBitNot, OpBoolNot:
		f.Line("%s = _mm256_xor_ps(%s, MASK_TRUE);", dst, operand)
	case OpAbs:
		f.Line("%s = _mm256_andnot_ps(_mm256_set1_ps(-0.0f), %s);", dst, operand)
	case OpSqrt:
		f.Line("%s = _mm256_sqrt_ps(%s);", dst, operand)
	case OpFloor:
		f.Line("%s = _mm256_floor_ps(%s);", dst, operand)
	case OpCeil:
		f.Line("%s = _mm256_ceil_ps(%s);", dst, operand)
	case OpRound:
		f.Line("%s = _mm256_round_ps(%s, _MM_FROUND_TO_NEAREST_INT | _MM_FROUND_NO_EXC);", dst, operand)
	case OpTrunc:
		f.Line("%s = _mm256_round_ps(%s, _MM_FROUND_TO_ZERO | _MM_FROUND_NO_EXC);", dst, operand)
	default:
		if fn, ok := libmUnaryFloat[op]; ok {
			laneFallback(f, dst, "float", 8, []string{operand}, avx2FloatExtract, sse4UnaryScalarExpr(fn), avx2FloatPack)
			return nil
		}
		return newBackEndError(ArchAVX2, DataTypeFloat32, string(op))
	}
	return nil
}

// avx2CmpPredicate maps a CompareOp to the _CMP_* predicate _mm256_cmp_ps
// takes. All predicates are quiet, so a comparison against NaN never
// traps: the ordered variants (_OQ) evaluate false on NaN, and != uses the
// unordered variant (_UQ) so it evaluates true.
var avx2CmpPredicate = map[CompareOp]string{
	CmpEq: "_CMP_EQ_OQ", CmpNe: "_CMP_NEQ_UQ", CmpGe: "_CMP_GE_OQ",
	CmpGt: "_CMP_GT_OQ", CmpLe: "_CMP_LE_OQ", CmpLt: "_CMP_LT_OQ",
}

func (avx2FloatTranslator) Cmp(f *Formatter, dst, left string, op CompareOp, right string) error {
	pred, ok := avx2CmpPredicate[op]
	if !ok {
		return newBackEndError(ArchAVX2, DataTypeFloat32, string(op))
	}
	f.Line("%s = _mm256_cmp_ps(%s, %s, %s);", dst, left, right, pred)
	return nil
}

func (avx2FloatTranslator) Blend(f *Formatter, dst, mask, input string) {
	f.Line("%s = _mm256_or_ps(_mm256_and_ps(%s, %s), _mm256_andnot_ps(%s, %s));", dst, mask, input, mask, dst)
}

func (avx2FloatTranslator) ArrayLoad(f *Formatter, dst, arr, offsetExpr string) {
	f.Line("%s = %s[%s];", dst, arr, offsetExpr)
}

func (avx2FloatTranslator) ArrayStore(f *Formatter, arr, offsetExpr, src string) {
	f.Line("%s[%s] = %s;", arr, offsetExpr, src)
}

func (avx2FloatTranslator) ExtractLane(v string, lane int) string { return avx2FloatExtract(v, lane) }
func (avx2FloatTranslator) Pack(results []string) string          { return avx2FloatPack(results) }

func avx2FloatExtract(v string, lane int) string {
	// AVX2 has no single-instruction arbitrary-lane extract for __m256;
	// round-trip through a stack array, same approach compiler_intel.py's
	// AVX2 classes use for their scalar fallbacks.
	return fmt.Sprintf("((float*)&%s)[%d]", v, lane)
}

func avx2FloatPack(results []string) string {
	return fmt.Sprintf("_mm256_set_ps(%s, %s, %s, %s, %s, %s, %s, %s)",
		results[7], results[6], results[5], results[4], results[3], results[2], results[1], results[0])
}

// avx2UInt32Translator targets AVX2, 8 packed uint32 lanes per __m256i.
// Unlike SSE4.2, AVX2 has native variable-shift intrinsics
// (_mm256_sllv_epi32/_mm256_srlv_epi32), so shifts need no lane fallback
// here. ge is computed as gt OR eq rather than via a dedicated compare,
// matching compiler_intel.py's AVX2_UInt32 and avoiding the signed/unsigned
// mixup the Intel packed-integer ge intrinsics invite (spec.md 9).
type avx2UInt32Translator struct{}

func (avx2UInt32Translator) Architecture() Architecture { return ArchAVX2 }
func (avx2UInt32Translator) DataType() DataType         { return DataTypeUInt32 }
func (avx2UInt32Translator) VectorType() string         { return "__m256i" }

func (avx2UInt32Translator) Setup(f *Formatter, k *Kernel) {
	f.Line("const __m256i MASK_TRUE = _mm256_set1_epi32(-1);")
	f.Line("const __m256i MASK_FALSE = _mm256_setzero_si256();")
	f.Line("const __m256i SIGN_BITS = _mm256_set1_epi32(0x80000000);")
}

func (avx2UInt32Translator) Load(f *Formatter, dst, arg, index string) {
	f.Line("%s = _mm256_loadu_si256((const __m256i*)&%s[%s]);", dst, arg, index)
}

func (avx2UInt32Translator) Broadcast(f *Formatter, dst, scalarExpr string) {
	f.Line("const __m256i %s = _mm256_set1_epi32((int)%s);", dst, scalarExpr)
}

func (avx2UInt32Translator) Store(f *Formatter, arg, index, src string) {
	f.Line("_mm256_storeu_si256((__m256i*)&%s[%s], %s);", arg, index, src)
}

func (t avx2UInt32Translator) BinOp(f *Formatter, dst, left string, op Operator, right string) error {
	switch op {
	case OpAdd:
		f.Line("%s = _mm256_add_epi32(%s, %s);", dst, left, right)
	case OpSub:
		f.Line("%s = _mm256_sub_epi32(%s, %s);", dst, left, right)
	case OpMul:
		f.Line("%s = _mm256_mullo_epi32(%s, %s);", dst, left, right)
	case OpBitAnd, OpBoolAnd:
		f.Line("%s = _mm256_and_si256(%s, %s);", dst, left, right)
	case OpBitAndNot:
		f.Line("%s = _mm256_andnot_si256(%s, %s);", dst, right, left)
	case OpBitOr, OpBoolOr:
		f.Line("%s = _mm256_or_si256(%s, %s);", dst, left, right)
	case OpBitXor:
		f.Line("%s = _mm256_xor_si256(%s, %s);", dst, left, right)
	case OpMax:
		f.Line("%s = _mm256_max_epu32(%s, %s);", dst, left, right)
	case OpMin:
		f.Line("%s = _mm256_min_epu32(%s, %s);", dst, left, right)
	case OpShiftLeft:
		f.Line("%s = _mm256_sllv_epi32(%s, %s);", dst, left, right)
	case OpShiftRight:
		f.Line("%s = _mm256_srlv_epi32(%s, %s);", dst, left, right)
	case OpDiv, OpFloorDiv, OpMod:
		laneFallback(f, dst, "uint32_t", 8, []string{left, right}, avx2UIntExtract, sse4IntBinaryExpr(op), avx2UIntPack)
	default:
		return newBackEndError(ArchAVX2, DataTypeUInt32, string(op))
	}
	return nil
}

func (avx2UInt32Translator) UnaryOp(f *Formatter, dst string, op Operator, operand string) error {
	switch op {
	case OpBitNot, OpBoolNot:
		f.Line("%s = _mm256_xor_si256(%s, MASK_TRUE);", dst, operand)
	case OpAbs:
		f.Line("%s = %s; // uint32 is already unsigned", dst, operand)
	default:
		return newBackEndError(ArchAVX2, DataTypeUInt32, string(op))
	}
	return nil
}

func (avx2UInt32Translator) Cmp(f *Formatter, dst, left string, op CompareOp, right string) error {
	flippedL, flippedR := "__fl", "__fr"
	f.Line("__m256i %s = _mm256_xor_si256(%s, SIGN_BITS);", flippedL, left)
	f.Line("__m256i %s = _mm256_xor_si256(%s, SIGN_BITS);", flippedR, right)
	switch op {
	case CmpEq:
		f.Line("%s = _mm256_cmpeq_epi32(%s, %s);", dst, flippedL, flippedR)
	case CmpNe:
		f.Line("%s = _mm256_xor_si256(_mm256_cmpeq_epi32(%s, %s), MASK_TRUE);", dst, flippedL, flippedR)
	case CmpGt:
		f.Line("%s = _mm256_cmpgt_epi32(%s, %s);", dst, flippedL, flippedR)
	case CmpLt:
		f.Line("%s = _mm256_cmpgt_epi32(%s, %s);", dst, flippedR, flippedL)
	case CmpGe:
		f.Line("%s = _mm256_or_si256(_mm256_cmpgt_epi32(%s, %s), _mm256_cmpeq_epi32(%s, %s));", dst, flippedL, flippedR, flippedL, flippedR)
	case CmpLe:
		f.Line("%s = _mm256_or_si256(_mm256_cmpgt_epi32(%s, %s), _mm256_cmpeq_epi32(%s, %s));", dst, flippedR, flippedL, flippedL, flippedR)
	default:
		return newBackEndError(ArchAVX2, DataTypeUInt32, string(op))
	}
	return nil
}

func (avx2UInt32Translator) Blend(f *Formatter, dst, mask, input string) {
	f.Line("%s = _mm256_or_si256(_mm256_and_si256(%s, %s), _mm256_andnot_si256(%s, %s));", dst, mask, input, mask, dst)
}

func (avx2UInt32Translator) ArrayLoad(f *Formatter, dst, arr, offsetExpr string) {
	f.Line("%s = %s[%s];", dst, arr, offsetExpr)
}

func (avx2UInt32Translator) ArrayStore(f *Formatter, arr, offsetExpr, src string) {
	f.Line("%s[%s] = %s;", arr, offsetExpr, src)
}

func (avx2UInt32Translator) ExtractLane(v string, lane int) string { return avx2UIntExtract(v, lane) }
func (avx2UInt32Translator) Pack(results []string) string         { return avx2UIntPack(results) }

func avx2UIntExtract(v string, lane int) string {
	return fmt.Sprintf("((uint32_t*)&%s)[%d]", v, lane)
}

func avx2UIntPack(results []string) string {
	return fmt.Sprintf("_mm256_set_epi32((int)%s, (int)%s, (int)%s, (int)%s, (int)%s, (int)%s, (int)%s, (int)%s)",
		results[7], results[6], results[5], results[4], results[3], results[2], results[1], results[0])
}
