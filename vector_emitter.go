package vecpy

import "fmt"

// EmitVector renders the SIMD-vectorized implementation of k for one
// (architecture, datatype) pair, processing arch.Size elements per loop
// iteration. Grounded on compiler_intel.py's Compiler_Intel.compile_kernel
// / compile_block (spec.md 4.E). The caller is responsible for having
// already emitted k's args struct once per file (Vectorize does this via
// EmitArgsStruct).
func EmitVector(k *Kernel, arch Architecture, dtype DataType) (string, error) {
	t, err := LookupTranslator(arch, dtype)
	if err != nil {
		return "", err
	}
	ctype := dtype.CType()
	vtype := t.VectorType()
	size := arch.Size

	f := NewFormatter()
	f.Section(fmt.Sprintf("%s -- vectorized (%s/%s)", k.Name, arch, dtype))
	f.Line("bool %s(const %s* args) {", vectorFuncName(k), ArgsStructName(k))
	f.Indent()

	t.Setup(f, k)
	for _, v := range k.Arguments(ArgumentFilter{Uniform: true}) {
		f.Line("const %s %s = args->%s;", ctype, v.Name, v.Name)
	}
	for _, v := range k.Literals() {
		if v.IsMaskSentinel() {
			continue // the sentinel vector constants above already cover these
		}
		f.Line("const %s %s = %s;", ctype, v.Name, formatLiteral(v, dtype))
	}
	for _, v := range k.Variables(VariableFilter{}) {
		if v.Kind == KindArray || v.Kind == KindUniformScalar {
			continue
		}
		f.Line("%s %s;", vtype, v.Name)
	}
	f.Blank()

	f.Line("unsigned int index = 0;")
	f.Line("for (; index + %d <= args->N; index += %d) {", size, size)
	f.Indent()
	for _, v := range k.Arguments(ArgumentFilter{Input: true}) {
		if v.Kind != KindScalar {
			continue
		}
		t.Load(f, v.Name, "args->"+v.Name, "index")
	}

	ve := &vectorExprEmitter{t: t, dtype: dtype, vtype: vtype, size: size}
	if err := ve.emitBlock(f, k.Root); err != nil {
		return "", err
	}

	for _, v := range k.Arguments(ArgumentFilter{Output: true}) {
		if v.Kind != KindScalar {
			continue
		}
		t.Store(f, "args->"+v.Name, "index", v.Name)
	}
	f.Unindent()
	f.Line("}")

	f.Line("return true;")
	f.Unindent()
	f.Line("}")
	return f.String(), nil
}

type vectorExprEmitter struct {
	t       Translator
	dtype   DataType
	vtype   string
	size    int
	tmpNext int
}

func (ve *vectorExprEmitter) nextTemp(prefix string) string {
	ve.tmpNext++
	return fmt.Sprintf("__%s%d", prefix, ve.tmpNext)
}

func (ve *vectorExprEmitter) emitBlock(f *Formatter, b *Block) error {
	for _, stmt := range b.Statements {
		if err := ve.emitStmt(f, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (ve *vectorExprEmitter) emitStmt(f *Formatter, stmt Statement) error {
	switch s := stmt.(type) {
	case CommentStmt:
		if s.Text != "" {
			f.Line("// %s", s.Text)
		}
	case AssignStmt:
		return ve.emitAssign(f, s)
	case IfElseStmt:
		if err := ve.emitBlock(f, s.Then); err != nil {
			return err
		}
		if len(s.Else.Statements) > 0 {
			return ve.emitBlock(f, s.Else)
		}
		return nil
	case WhileStmt:
		// The loop mask starts all-false once no lane satisfies the
		// condition, so driving the straight-line body with a native while
		// on the mask's truthiness is both correct and matches
		// compiler_intel.py's WhileLoop handling: iterate while any lane
		// is still active, the per-lane mask silently keeps finished lanes
		// idle via the blends inside the body.
		f.Line("while (%s) {", vectorAnyTrue(ve.t, s.Body.Mask.Name))
		f.Indent()
		if err := ve.emitBlock(f, s.Body); err != nil {
			return err
		}
		f.Unindent()
		f.Line("}")
		return nil
	default:
		return fmt.Errorf("vecpy: vector emitter: unsupported statement %T", stmt)
	}
	return nil
}

// vectorAnyTrue renders a loop guard that is true while any lane of mask
// is set. All four translators back MASK_TRUE/MASK_FALSE and their boolean
// ops with the movemask-style intrinsic implied by !=0 on the register's
// reinterpreted integer bits in every generated header (see each
// Translator's Setup); a straight `!= 0` bitwise test on the raw register
// isn't portable C, so real bindings use the movemask intrinsic matching
// the translator. This helper isolates that one architecture-specific
// spelling.
func vectorAnyTrue(t Translator, maskExpr string) string {
	switch t.VectorType() {
	case "__m128":
		return fmt.Sprintf("_mm_movemask_ps(%s) != 0", maskExpr)
	case "__m128i":
		return fmt.Sprintf("_mm_movemask_epi8(%s) != 0", maskExpr)
	case "__m256":
		return fmt.Sprintf("_mm256_movemask_ps(%s) != 0", maskExpr)
	case "__m256i":
		return fmt.Sprintf("_mm256_movemask_epi8(%s) != 0", maskExpr)
	default:
		return maskExpr
	}
}

func (ve *vectorExprEmitter) emitAssign(f *Formatter, s AssignStmt) error {
	if aa, ok := s.Expr.(ArrayAccess); ok {
		return ve.emitArrayAccess(f, s, aa)
	}
	switch x := s.Expr.(type) {
	case VarRef:
		input := ve.operand(f, x.Var)
		if s.VectorOnly {
			ve.t.Blend(f, s.Dst.Name, s.Mask.Name, input)
		} else {
			f.Line("%s = %s;", s.Dst.Name, input)
		}
		return nil
	case BinOp:
		left := ve.operand(f, x.Left)
		right := ve.operand(f, x.Right)
		return ve.emitComputed(f, s, func(dst string) error { return ve.t.BinOp(f, dst, left, x.Op, right) })
	case UnaryOp:
		operand := ve.operand(f, x.Operand)
		return ve.emitComputed(f, s, func(dst string) error { return ve.t.UnaryOp(f, dst, x.Op, operand) })
	case Cmp:
		left := ve.operand(f, x.Left)
		right := ve.operand(f, x.Right)
		return ve.emitComputed(f, s, func(dst string) error { return ve.t.Cmp(f, dst, left, x.Op, right) })
	default:
		return fmt.Errorf("vecpy: vector emitter: unsupported expression %T", s.Expr)
	}
}

// emitComputed runs compute to fill either s.Dst directly (unconditional
// write) or a fresh temporary that is then blended into s.Dst under
// s.Mask (VectorOnly write inside a masked body).
func (ve *vectorExprEmitter) emitComputed(f *Formatter, s AssignStmt, compute func(dst string) error) error {
	if !s.VectorOnly {
		return compute(s.Dst.Name)
	}
	tmp := ve.nextTemp("t")
	f.Line("%s %s;", ve.vtype, tmp)
	if err := compute(tmp); err != nil {
		return err
	}
	ve.t.Blend(f, s.Dst.Name, s.Mask.Name, tmp)
	return nil
}

// operand returns the vector-register C expression for v, broadcasting a
// uniform argument or plain numeric literal into a fresh temporary first
// since those stay scalar C values everywhere else in the emitted file.
// Mask sentinels (MASK_TRUE/MASK_FALSE) are already vector constants via
// Translator.Setup and need no broadcast.
func (ve *vectorExprEmitter) operand(f *Formatter, v *Variable) string {
	if v.IsMaskSentinel() {
		return v.Name
	}
	if v.Kind == KindUniformScalar || v.Role == RoleLiteral {
		tmp := ve.nextTemp("b")
		ve.t.Broadcast(f, tmp, v.Name)
		return tmp
	}
	return v.Name
}

// isUniformAcrossLanes reports whether v holds the same C value for every
// lane of the current vector iteration (a uniform argument or a literal),
// as opposed to a per-lane-varying value computed inside the vector body.
func isUniformAcrossLanes(v *Variable) bool {
	return v.Kind == KindUniformScalar || v.Role == RoleLiteral || v.IsMaskSentinel()
}

// laneScalar returns the C expression for v's value at lane within the
// current vector iteration: v's name directly if it is uniform across
// lanes, or a per-lane extraction out of its vector register otherwise.
func (ve *vectorExprEmitter) laneScalar(v *Variable, lane int) string {
	if isUniformAcrossLanes(v) {
		return v.Name
	}
	return ve.t.ExtractLane(v.Name, lane)
}

// emitArrayAccess reads or writes a stride-k argument lane by lane: array
// accesses are never vectorized as a single gather/scatter (spec.md 4.C).
// Both the subscript and, for a store, the stored value may be
// lane-varying, so each lane is extracted, read/written through
// Translator.ArrayLoad/ArrayStore individually, and (for a load) repacked
// into the destination register.
func (ve *vectorExprEmitter) emitArrayAccess(f *Formatter, s AssignStmt, aa ArrayAccess) error {
	ctype := ve.dtype.CType()
	f.Line("{")
	f.Indent()
	if aa.Write {
		for lane := 0; lane < ve.size; lane++ {
			idxExpr := ve.laneScalar(aa.Index, lane)
			valExpr := ve.laneScalar(aa.Value, lane)
			offset := fmt.Sprintf("(index + %d)*%d + %s", lane, aa.Array.Stride, idxExpr)
			if s.VectorOnly {
				// Lanes the block mask excludes keep their stored value.
				f.Line("if (%s != 0) {", ve.t.ExtractLane(s.Mask.Name, lane))
				f.Indent()
			}
			ve.t.ArrayStore(f, aa.Array.Name, offset, valExpr)
			if s.VectorOnly {
				f.Unindent()
				f.Line("}")
			}
		}
		f.Unindent()
		f.Line("}")
		return nil
	}
	results := make([]string, ve.size)
	for lane := 0; lane < ve.size; lane++ {
		idxExpr := ve.laneScalar(aa.Index, lane)
		offset := fmt.Sprintf("(index + %d)*%d + %s", lane, aa.Array.Stride, idxExpr)
		rv := fmt.Sprintf("__g%d", lane)
		f.Line("%s %s;", ctype, rv)
		ve.t.ArrayLoad(f, rv, aa.Array.Name, offset)
		results[lane] = rv
	}
	if s.VectorOnly {
		ve.t.Blend(f, s.Dst.Name, s.Mask.Name, ve.t.Pack(results))
	} else {
		f.Line("%s = %s;", s.Dst.Name, ve.t.Pack(results))
	}
	f.Unindent()
	f.Line("}")
	return nil
}
