package vecpy

import (
	"fmt"
	"math"
)

// Lower walks a FuncDef (spec.md 6's AST input) and produces a populated,
// immutable Kernel (spec.md 3/4.A). AST acquisition -- turning source text
// into a FuncDef -- is out of scope; Lower is the first stage this package
// actually performs.
func Lower(fn *FuncDef) (*Kernel, error) {
	l := &lowerer{}
	return l.lower(fn)
}

// lowerer carries the bits of state that persist across the whole pass:
// which kernel it is filling in, and whether it has already seen the
// one-and-only docstring or return statement.
type lowerer struct {
	k             *Kernel
	docstringSeen bool
	returnSeen    bool
	// maskDepth counts nested If/While bodies the lowerer is currently
	// inside. Every ordinary assignment made at maskDepth > 0 is marked
	// VectorOnly: in the vector emitter it must blend against the
	// variable's previous value (lanes the enclosing mask excludes keep
	// their old value), since straight-line vector code has no real
	// branch to skip it the way scalar code does. The mask-bookkeeping
	// assignments If/While themselves emit (then_mask, else_mask, the
	// loop mask) are a full overwrite regardless of depth, so those are
	// built with an explicit VectorOnly: false instead of going through
	// emit. The loop condition re-lowered at the end of a while body is
	// mask bookkeeping too, so it is lowered with maskDepth reset to 0.
	maskDepth int
}

// emit appends `dst = expr` to block, marking it VectorOnly whenever the
// lowerer is currently inside a masked body.
func (l *lowerer) emit(block *Block, dst *Variable, expr Expression) {
	block.Add(AssignStmt{Dst: dst, Expr: expr, VectorOnly: l.maskDepth > 0, Mask: block.Mask})
}

var binaryOpTable = map[string]Operator{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "//": OpFloorDiv, "%": OpMod, "**": OpPow,
	"&": OpBitAnd, "&~": OpBitAndNot, "|": OpBitOr, "^": OpBitXor, "<<": OpShiftLeft, ">>": OpShiftRight,
}

var compareOpTable = map[string]CompareOp{
	"==": CmpEq, "!=": CmpNe, ">=": CmpGe, ">": CmpGt, "<=": CmpLe, "<": CmpLt,
}

var binaryFuncTable = map[string]Operator{
	"atan2": OpAtan2, "copysign": OpCopysign, "fmod": OpFmod, "hypot": OpHypot,
	"ldexp": OpLdexp, "pow": OpPow, "max": OpMax, "min": OpMin,
}

var unaryFuncTable = map[string]Operator{
	"abs": OpAbs, "round": OpRound,
	"acos": OpAcos, "acosh": OpAcosh, "asin": OpAsin, "asinh": OpAsinh,
	"atan": OpAtan, "atanh": OpAtanh, "ceil": OpCeil, "cos": OpCos, "cosh": OpCosh,
	"erf": OpErf, "erfc": OpErfc, "exp": OpExp, "expm1": OpExpm1, "floor": OpFloor,
	"gamma": OpGamma, "lgamma": OpLgamma, "log10": OpLog10, "log1p": OpLog1p,
	"log2": OpLog2, "sin": OpSin, "sinh": OpSinh, "sqrt": OpSqrt, "tan": OpTan,
	"tanh": OpTanh, "trunc": OpTrunc,
}

func (l *lowerer) lower(fn *FuncDef) (*Kernel, error) {
	if fn.Name == "" {
		return nil, newFrontEndError(fn.Line, "kernel must have a name")
	}
	l.k = NewKernel(fn.Name)
	if err := l.lowerParams(fn.Params, fn.Line); err != nil {
		return nil, err
	}
	if err := l.lowerBlock(fn.Body, l.k.Root, true); err != nil {
		return nil, err
	}
	if !l.returnSeen {
		return nil, newFrontEndError(fn.Line, "kernel %q has no return statement", fn.Name)
	}
	return l.k, nil
}

func (l *lowerer) lowerParams(params []Param, line int) error {
	seen := map[string]bool{}
	for _, p := range params {
		if seen[p.Name] {
			return newFrontEndError(line, "duplicate parameter name %q", p.Name)
		}
		seen[p.Name] = true
		switch p.Annotation {
		case AnnotationNone:
			l.k.AddArgument(p.Name, KindScalar, 0)
		case AnnotationUniform:
			l.k.AddArgument(p.Name, KindUniformScalar, 0)
		case AnnotationStride:
			if p.Stride < 2 {
				return newFrontEndError(line, "stride annotation on %q must be >= 2, got %d", p.Name, p.Stride)
			}
			l.k.AddArgument(p.Name, KindArray, p.Stride)
		default:
			return newFrontEndError(line, "unknown parameter annotation on %q", p.Name)
		}
	}
	count := 0
	for _, v := range l.k.Arguments(ArgumentFilter{}) {
		if v.Kind == KindScalar {
			count++
		}
	}
	if count == 0 {
		return newFrontEndError(line, "kernel requires at least one non-uniform, non-array argument")
	}
	return nil
}

func (l *lowerer) lowerBlock(nodes []Node, block *Block, isRoot bool) error {
	for i, n := range nodes {
		switch stmt := n.(type) {
		case DocstringStmt:
			if !isRoot || i != 0 {
				return newFrontEndError(stmt.Line, "docstring is only permitted as the first statement of the kernel body")
			}
			if l.docstringSeen {
				return newFrontEndError(stmt.Line, "duplicate docstring")
			}
			l.docstringSeen = true
			l.k.Docstring = stmt.Text
		case PureCommentStmt:
			block.Add(CommentStmt{Text: stmt.Text})
		case AssignNode:
			block.Add(CommentStmt{Text: sourceLineComment(stmt.Line)})
			if err := l.lowerAssign(stmt, block); err != nil {
				return err
			}
		case AugAssignStmt:
			block.Add(CommentStmt{Text: sourceLineComment(stmt.Line)})
			if err := l.lowerAugAssign(stmt, block); err != nil {
				return err
			}
		case IfStmt:
			block.Add(CommentStmt{Text: sourceLineComment(stmt.Line)})
			if err := l.lowerIf(stmt, block); err != nil {
				return err
			}
		case WhileNode:
			block.Add(CommentStmt{Text: sourceLineComment(stmt.Line)})
			if err := l.lowerWhile(stmt, block); err != nil {
				return err
			}
		case ReturnStmt:
			if !isRoot {
				return newFrontEndError(stmt.Line, "return is only permitted at the top level of the kernel body")
			}
			if l.returnSeen {
				return newFrontEndError(stmt.Line, "duplicate return statement")
			}
			if err := l.lowerReturn(stmt); err != nil {
				return err
			}
			l.returnSeen = true
		default:
			return newFrontEndError(0, "unsupported statement node %T", n)
		}
	}
	return nil
}

func sourceLineComment(line int) string {
	if line <= 0 {
		return ""
	}
	return fmt.Sprintf("line %d", line)
}

// lowerReturn validates the kernel's declared outputs and flags the
// corresponding argument Variables, per spec.md 4.B. It emits no IR.
func (l *lowerer) lowerReturn(stmt ReturnStmt) error {
	if len(stmt.Names) == 0 {
		return newFrontEndError(stmt.Line, "return must name at least one output")
	}
	seen := map[string]bool{}
	for _, name := range stmt.Names {
		if seen[name] {
			return newFrontEndError(stmt.Line, "output %q returned more than once", name)
		}
		seen[name] = true
		v, ok := l.k.GetVariableByName(name)
		if !ok {
			return newFrontEndError(stmt.Line, "return names undefined variable %q", name)
		}
		if v.Role != RoleArgument {
			return newFrontEndError(stmt.Line, "return must name a kernel argument, got %q", name)
		}
		if v.Kind == KindUniformScalar {
			return newFrontEndError(stmt.Line, "uniform argument %q cannot be an output", name)
		}
		v.Output = true
	}
	return nil
}

// lowerAssign handles both assignment shapes from spec.md 4.B: a single
// shared value across one or more targets, and positional tuple unpacking
// across targets and values of equal, matching count greater than one.
func (l *lowerer) lowerAssign(stmt AssignNode, block *Block) error {
	switch {
	case len(stmt.Values) == 1:
		expr, kind, err := l.lowerExprForm(stmt.Values[0], block)
		if err != nil {
			return err
		}
		if len(stmt.Targets) == 1 {
			return l.storeExprToTarget(stmt.Targets[0], expr, kind, block)
		}
		rhsVar, err := l.materialize(expr, kind, block)
		if err != nil {
			return err
		}
		for _, t := range stmt.Targets {
			if err := l.storeExprToTarget(t, VarRef{Var: rhsVar}, kind, block); err != nil {
				return err
			}
		}
		return nil
	case len(stmt.Values) == len(stmt.Targets) && len(stmt.Targets) > 1:
		vars := make([]*Variable, len(stmt.Values))
		for i, v := range stmt.Values {
			vv, err := l.lowerOperandVar(v, block)
			if err != nil {
				return err
			}
			vars[i] = vv
		}
		for i, t := range stmt.Targets {
			if err := l.storeExprToTarget(t, VarRef{Var: vars[i]}, vars[i].Kind, block); err != nil {
				return err
			}
		}
		return nil
	default:
		return newFrontEndError(stmt.Line, "assignment has %d target(s) and %d value(s)", len(stmt.Targets), len(stmt.Values))
	}
}

// lowerAugAssign lowers `target op= value` as `target = target op value`.
func (l *lowerer) lowerAugAssign(stmt AugAssignStmt, block *Block) error {
	op, ok := binaryOpTable[stmt.Op]
	if !ok {
		return newFrontEndError(stmt.Line, "unsupported augmented-assignment operator %q", stmt.Op)
	}
	curVar, err := l.lowerOperandVar(stmt.Target, block)
	if err != nil {
		return err
	}
	rhsVar, err := l.lowerOperandVar(stmt.Value, block)
	if err != nil {
		return err
	}
	if curVar.Kind == KindMask || rhsVar.Kind == KindMask {
		return newFrontEndError(stmt.Line, "augmented-assignment operator %q is not valid on mask operands", stmt.Op)
	}
	return l.storeExprToTarget(stmt.Target, BinOp{Left: curVar, Op: op, Right: rhsVar}, KindScalar, block)
}

// lowerIf computes then_mask = c AND parent_mask and, when present,
// else_mask = (NOT c) AND parent_mask, both as full-overwrite (VectorOnly
// false) assignments, and lowers the two bodies under their respective
// masks (spec.md 4.B).
func (l *lowerer) lowerIf(stmt IfStmt, block *Block) error {
	condVar, err := l.lowerOperandVar(stmt.Test, block)
	if err != nil {
		return err
	}
	if condVar.Kind != KindMask {
		return newFrontEndError(stmt.Line, "if condition must be a boolean expression")
	}
	thenMask := l.k.AddTemporary("mask", KindMask)
	block.Add(AssignStmt{Dst: thenMask, Expr: BinOp{Left: condVar, Op: OpBoolAnd, Right: block.Mask}, Mask: block.Mask})
	thenBlock := &Block{Mask: thenMask}
	l.maskDepth++
	err = l.lowerBlock(stmt.Body, thenBlock, false)
	l.maskDepth--
	if err != nil {
		return err
	}

	elseBlock := &Block{Mask: block.Mask}
	if len(stmt.Orelse) > 0 {
		notCond := l.k.AddTemporary("var", KindMask)
		block.Add(AssignStmt{Dst: notCond, Expr: UnaryOp{Op: OpBoolNot, Operand: condVar}, Mask: block.Mask})
		elseMask := l.k.AddTemporary("mask", KindMask)
		block.Add(AssignStmt{Dst: elseMask, Expr: BinOp{Left: notCond, Op: OpBoolAnd, Right: block.Mask}, Mask: block.Mask})
		elseBlock = &Block{Mask: elseMask}
		l.maskDepth++
		err = l.lowerBlock(stmt.Orelse, elseBlock, false)
		l.maskDepth--
		if err != nil {
			return err
		}
	}
	block.Add(IfElseStmt{Then: thenBlock, Else: elseBlock})
	return nil
}

// lowerWhile computes the loop mask before the loop and again at the end of
// the body, re-lowering the condition expression so it picks up whatever
// the body just wrote (spec.md 4.B).
func (l *lowerer) lowerWhile(stmt WhileNode, block *Block) error {
	condVar, err := l.lowerOperandVar(stmt.Test, block)
	if err != nil {
		return err
	}
	if condVar.Kind != KindMask {
		return newFrontEndError(stmt.Line, "while condition must be a boolean expression")
	}
	loopMask := l.k.AddTemporary("mask", KindMask)
	block.Add(AssignStmt{Dst: loopMask, Expr: BinOp{Left: condVar, Op: OpBoolAnd, Right: block.Mask}, Mask: block.Mask})

	bodyBlock := &Block{Mask: loopMask}
	l.maskDepth++
	err = l.lowerBlock(stmt.Body, bodyBlock, false)
	if err == nil {
		var condVar2 *Variable
		// The re-lowered condition is mask bookkeeping: compute it as a
		// full overwrite, like the loop mask it feeds.
		depth := l.maskDepth
		l.maskDepth = 0
		condVar2, err = l.lowerOperandVar(stmt.Test, bodyBlock)
		l.maskDepth = depth
		if err == nil {
			if condVar2.Kind != KindMask {
				err = newFrontEndError(stmt.Line, "while condition must be a boolean expression")
			} else {
				bodyBlock.Add(AssignStmt{Dst: loopMask, Expr: BinOp{Left: condVar2, Op: OpBoolAnd, Right: block.Mask}, Mask: bodyBlock.Mask})
			}
		}
	}
	l.maskDepth--
	if err != nil {
		return err
	}
	block.Add(WhileStmt{Body: bodyBlock})
	return nil
}

// storeExprToTarget writes expr (already lowered, of the given kind) to a
// NameExpr or SubscriptExpr assignment target.
func (l *lowerer) storeExprToTarget(target Node, expr Expression, kind Kind, block *Block) error {
	switch t := target.(type) {
	case NameExpr:
		return l.storeName(t, expr, kind, block)
	case SubscriptExpr:
		return l.storeSubscript(t, expr, kind, block)
	default:
		return newFrontEndError(0, "invalid assignment target %T", target)
	}
}

func (l *lowerer) storeName(t NameExpr, expr Expression, kind Kind, block *Block) error {
	existing, existed := l.k.GetVariableByName(t.Id)
	if existed && existing.Role == RoleArgument && existing.Kind == KindUniformScalar {
		return newFrontEndError(t.Line, "uniform argument %q is immutable", t.Id)
	}
	if existed && existing.Kind != kind {
		return newFrontEndError(t.Line, "type mismatch assigning to %q: was %s, now %s", t.Id, existing.Kind, kind)
	}
	dst := l.k.AddOrReuseNamed(t.Id, kind)
	if dst.Role == RoleArgument {
		dst.Output = true
	}
	l.emit(block, dst, expr)
	return nil
}

func (l *lowerer) storeSubscript(t SubscriptExpr, expr Expression, kind Kind, block *Block) error {
	rhsVar, err := l.materialize(expr, kind, block)
	if err != nil {
		return err
	}
	ne, ok := t.Value.(NameExpr)
	if !ok {
		return newFrontEndError(t.Line, "array store target must be a plain array argument")
	}
	arr, ok := l.k.GetVariableByName(ne.Id)
	if !ok {
		return newFrontEndError(t.Line, "undefined variable %q", ne.Id)
	}
	if arr.Kind != KindArray {
		return newFrontEndError(t.Line, "%q is not a stride>=2 array argument", ne.Id)
	}
	idx, err := l.lowerOperandVar(t.Index, block)
	if err != nil {
		return err
	}
	if idx.Kind == KindMask {
		return newFrontEndError(t.Line, "array index cannot be a mask")
	}
	arr.Output = true
	l.emit(block, arr, ArrayAccess{Array: arr, Index: idx, Write: true, Value: rhsVar})
	return nil
}

// materialize returns expr's Variable directly if it is already a bare
// VarRef, otherwise assigns it to a fresh temporary first.
func (l *lowerer) materialize(expr Expression, kind Kind, block *Block) (*Variable, error) {
	if vr, ok := expr.(VarRef); ok {
		return vr.Var, nil
	}
	tmp := l.k.AddTemporary("var", kind)
	l.emit(block, tmp, expr)
	return tmp, nil
}

// lowerOperandVar lowers node and guarantees the result is already a
// Variable, materializing through a temporary if node is a compound
// expression. Every Expression operand in the IR must be a Variable
// (spec.md 3), so every recursive call into a subexpression goes through
// here.
func (l *lowerer) lowerOperandVar(node Node, block *Block) (*Variable, error) {
	expr, kind, err := l.lowerExprForm(node, block)
	if err != nil {
		return nil, err
	}
	return l.materialize(expr, kind, block)
}

// lowerExprForm lowers node into the Expression/Kind pair that would be
// assigned to its enclosing target, without forcing a temporary when node
// is already just a name, literal, or attribute reference.
func (l *lowerer) lowerExprForm(node Node, block *Block) (Expression, Kind, error) {
	switch n := node.(type) {
	case NumberLit:
		return VarRef{Var: l.k.GetOrAddLiteral(n.Value, "")}, KindScalar, nil
	case NameExpr:
		v, ok := l.k.GetVariableByName(n.Id)
		if !ok {
			return nil, 0, newFrontEndError(n.Line, "undefined variable %q", n.Id)
		}
		return VarRef{Var: v}, v.Kind, nil
	case AttributeExpr:
		v, err := l.lowerAttribute(n)
		if err != nil {
			return nil, 0, err
		}
		return VarRef{Var: v}, KindScalar, nil
	case BinaryExpr:
		return l.lowerBinary(n, block)
	case UnaryExpr:
		return l.lowerUnary(n, block)
	case CompareExpr:
		return l.lowerCompare(n, block)
	case BoolExpr:
		return l.lowerBool(n, block)
	case CallExpr:
		return l.lowerCall(n, block)
	case SubscriptExpr:
		return l.lowerSubscriptRead(n, block)
	default:
		return nil, 0, newFrontEndError(0, "unsupported expression node %T", node)
	}
}

func (l *lowerer) lowerBinary(n BinaryExpr, block *Block) (Expression, Kind, error) {
	op, ok := binaryOpTable[n.Op]
	if !ok {
		return nil, 0, newFrontEndError(n.Line, "unsupported binary operator %q", n.Op)
	}
	left, err := l.lowerOperandVar(n.Left, block)
	if err != nil {
		return nil, 0, err
	}
	right, err := l.lowerOperandVar(n.Right, block)
	if err != nil {
		return nil, 0, err
	}
	if left.Kind == KindMask || right.Kind == KindMask {
		return nil, 0, newFrontEndError(n.Line, "operator %q is not defined on mask operands", n.Op)
	}
	return BinOp{Left: left, Op: op, Right: right}, KindScalar, nil
}

func (l *lowerer) lowerUnary(n UnaryExpr, block *Block) (Expression, Kind, error) {
	switch n.Op {
	case "+":
		return l.lowerExprForm(n.Operand, block)
	case "-":
		if lit, ok := n.Operand.(NumberLit); ok {
			return VarRef{Var: l.k.GetOrAddLiteral(-lit.Value, "")}, KindScalar, nil
		}
		operand, err := l.lowerOperandVar(n.Operand, block)
		if err != nil {
			return nil, 0, err
		}
		if operand.Kind == KindMask {
			return nil, 0, newFrontEndError(n.Line, "unary - is not defined on a mask operand")
		}
		zero := l.k.GetOrAddLiteral(0, "")
		return BinOp{Left: zero, Op: OpSub, Right: operand}, KindScalar, nil
	case "~":
		operand, err := l.lowerOperandVar(n.Operand, block)
		if err != nil {
			return nil, 0, err
		}
		if operand.Kind == KindMask {
			return nil, 0, newFrontEndError(n.Line, "~ is not defined on a mask operand, use not")
		}
		return UnaryOp{Op: OpBitNot, Operand: operand}, KindScalar, nil
	case "not":
		operand, err := l.lowerOperandVar(n.Operand, block)
		if err != nil {
			return nil, 0, err
		}
		if operand.Kind != KindMask {
			return nil, 0, newFrontEndError(n.Line, "not requires a boolean (mask) operand")
		}
		return UnaryOp{Op: OpBoolNot, Operand: operand}, KindMask, nil
	default:
		return nil, 0, newFrontEndError(n.Line, "unsupported unary operator %q", n.Op)
	}
}

func (l *lowerer) lowerCompare(n CompareExpr, block *Block) (Expression, Kind, error) {
	op, ok := compareOpTable[n.Op]
	if !ok {
		return nil, 0, newFrontEndError(n.Line, "unsupported comparison operator %q", n.Op)
	}
	left, err := l.lowerOperandVar(n.Left, block)
	if err != nil {
		return nil, 0, err
	}
	right, err := l.lowerOperandVar(n.Right, block)
	if err != nil {
		return nil, 0, err
	}
	if left.Kind == KindMask || right.Kind == KindMask {
		return nil, 0, newFrontEndError(n.Line, "comparison operator %q is not defined on mask operands", n.Op)
	}
	return Cmp{Left: left, Op: op, Right: right}, KindMask, nil
}

func (l *lowerer) lowerBool(n BoolExpr, block *Block) (Expression, Kind, error) {
	if len(n.Values) < 2 {
		return nil, 0, newFrontEndError(n.Line, "boolean expression requires at least two operands")
	}
	var op Operator
	switch n.Op {
	case "and":
		op = OpBoolAnd
	case "or":
		op = OpBoolOr
	default:
		return nil, 0, newFrontEndError(n.Line, "unsupported boolean operator %q", n.Op)
	}
	acc, err := l.lowerOperandVar(n.Values[0], block)
	if err != nil {
		return nil, 0, err
	}
	if acc.Kind != KindMask {
		return nil, 0, newFrontEndError(n.Line, "%q operands must be boolean expressions", n.Op)
	}
	for _, v := range n.Values[1:] {
		rhs, err := l.lowerOperandVar(v, block)
		if err != nil {
			return nil, 0, err
		}
		if rhs.Kind != KindMask {
			return nil, 0, newFrontEndError(n.Line, "%q operands must be boolean expressions", n.Op)
		}
		tmp := l.k.AddTemporary("var", KindMask)
		l.emit(block, tmp, BinOp{Left: acc, Op: op, Right: rhs})
		acc = tmp
	}
	return VarRef{Var: acc}, KindMask, nil
}

func (l *lowerer) lowerCall(n CallExpr, block *Block) (Expression, Kind, error) {
	switch n.Func {
	case "degrees", "radians":
		if len(n.Args) != 1 {
			return nil, 0, newFrontEndError(n.Line, "%s() takes exactly one argument", n.Func)
		}
		x, err := l.lowerOperandVar(n.Args[0], block)
		if err != nil {
			return nil, 0, err
		}
		if x.Kind == KindMask {
			return nil, 0, newFrontEndError(n.Line, "%s() is not defined on a mask operand", n.Func)
		}
		factor := 180.0 / math.Pi
		if n.Func == "radians" {
			factor = math.Pi / 180.0
		}
		lit := l.k.GetOrAddLiteral(factor, "")
		return BinOp{Left: x, Op: OpMul, Right: lit}, KindScalar, nil
	case "log":
		switch len(n.Args) {
		case 1:
			x, err := l.lowerOperandVar(n.Args[0], block)
			if err != nil {
				return nil, 0, err
			}
			if x.Kind == KindMask {
				return nil, 0, newFrontEndError(n.Line, "log() is not defined on a mask operand")
			}
			return UnaryOp{Op: OpLog, Operand: x}, KindScalar, nil
		case 2:
			x, err := l.lowerOperandVar(n.Args[0], block)
			if err != nil {
				return nil, 0, err
			}
			base, err := l.lowerOperandVar(n.Args[1], block)
			if err != nil {
				return nil, 0, err
			}
			if x.Kind == KindMask || base.Kind == KindMask {
				return nil, 0, newFrontEndError(n.Line, "log() is not defined on a mask operand")
			}
			logx := l.k.AddTemporary("var", KindScalar)
			l.emit(block, logx, UnaryOp{Op: OpLog, Operand: x})
			logbase := l.k.AddTemporary("var", KindScalar)
			l.emit(block, logbase, UnaryOp{Op: OpLog, Operand: base})
			return BinOp{Left: logx, Op: OpDiv, Right: logbase}, KindScalar, nil
		default:
			return nil, 0, newFrontEndError(n.Line, "log() takes one or two arguments")
		}
	}
	if op, ok := binaryFuncTable[n.Func]; ok {
		if len(n.Args) != 2 {
			return nil, 0, newFrontEndError(n.Line, "%s() takes exactly two arguments", n.Func)
		}
		a, err := l.lowerOperandVar(n.Args[0], block)
		if err != nil {
			return nil, 0, err
		}
		b, err := l.lowerOperandVar(n.Args[1], block)
		if err != nil {
			return nil, 0, err
		}
		if a.Kind == KindMask || b.Kind == KindMask {
			return nil, 0, newFrontEndError(n.Line, "%s() is not defined on a mask operand", n.Func)
		}
		return BinOp{Left: a, Op: op, Right: b}, KindScalar, nil
	}
	if op, ok := unaryFuncTable[n.Func]; ok {
		if len(n.Args) != 1 {
			return nil, 0, newFrontEndError(n.Line, "%s() takes exactly one argument", n.Func)
		}
		a, err := l.lowerOperandVar(n.Args[0], block)
		if err != nil {
			return nil, 0, err
		}
		if a.Kind == KindMask {
			return nil, 0, newFrontEndError(n.Line, "%s() is not defined on a mask operand", n.Func)
		}
		return UnaryOp{Op: op, Operand: a}, KindScalar, nil
	}
	return nil, 0, newFrontEndError(n.Line, "unknown function %q", n.Func)
}

func (l *lowerer) lowerAttribute(n AttributeExpr) (*Variable, error) {
	if ne, ok := n.Value.(NameExpr); ok && ne.Id == "math" {
		switch n.Attr {
		case "pi":
			return l.k.GetOrAddLiteral(math.Pi, "PI"), nil
		case "e":
			return l.k.GetOrAddLiteral(math.E, "E"), nil
		}
	}
	return nil, newFrontEndError(n.Line, "unsupported attribute access")
}

func (l *lowerer) lowerSubscriptRead(n SubscriptExpr, block *Block) (Expression, Kind, error) {
	ne, ok := n.Value.(NameExpr)
	if !ok {
		return nil, 0, newFrontEndError(n.Line, "subscript base must be a plain array argument")
	}
	arr, ok := l.k.GetVariableByName(ne.Id)
	if !ok {
		return nil, 0, newFrontEndError(n.Line, "undefined variable %q", ne.Id)
	}
	if arr.Kind != KindArray {
		return nil, 0, newFrontEndError(n.Line, "%q is not a stride>=2 array argument", ne.Id)
	}
	idx, err := l.lowerOperandVar(n.Index, block)
	if err != nil {
		return nil, 0, err
	}
	if idx.Kind == KindMask {
		return nil, 0, newFrontEndError(n.Line, "array index cannot be a mask")
	}
	return ArrayAccess{Array: arr, Index: idx, Write: false}, KindScalar, nil
}
