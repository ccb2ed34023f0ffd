package vecpy

import "sort"

// Kernel is the root owner of a compiled function: its variable table, the
// argument and literal sub-tables derived from it, and the root block.
// Once built by the Lowerer, a Kernel is immutable; the emitters only read
// it. Kernel owns a monotonically increasing index counter so that two
// kernels compiled in the same process (or concurrently) never share an
// index counter: each kernel numbers its own Variables from 0, unaffected
// by any other kernel -- spec.md 9 replaces the original implementation's
// mutable global counter with this per-Kernel one.
type Kernel struct {
	Name      string
	Docstring string
	Root      *Block

	nextIndex int
	byName    map[string]*Variable
	byLiteral map[float64]*Variable
	ordered   []*Variable // all variables ever added, in index order
}

// NewKernel creates an empty kernel with only its root block (mask
// MASK_TRUE) populated. Callers should use a Lowerer to populate the rest.
func NewKernel(name string) *Kernel {
	k := &Kernel{
		Name:      name,
		Docstring: "",
		byName:    make(map[string]*Variable),
		byLiteral: make(map[float64]*Variable),
	}
	k.newVariable("MASK_TRUE", RoleMaskLiteral, KindMask, 0, ptr(maskTrueValue()))
	k.newVariable("MASK_FALSE", RoleMaskLiteral, KindMask, 0, ptr(maskFalseValue()))
	k.Root = &Block{Mask: k.MaskTrue()}
	return k
}

func ptr(f float64) *float64 { return &f }

// newVariable allocates a fresh Variable with the next kernel-local index
// and registers it in the name/literal tables.
func (k *Kernel) newVariable(name string, role Role, kind Kind, stride int, literal *float64) *Variable {
	v := &Variable{
		Index:   k.nextIndex,
		Name:    name,
		Role:    role,
		Kind:    kind,
		Stride:  stride,
		Literal: literal,
	}
	k.nextIndex++
	k.registerVariable(v)
	return v
}

// registerVariable inserts v into the name table. A name collision replaces
// the stored reference but preserves the original variable's index --
// per spec.md 4.A, index reflects first-assignment order and is never
// reassigned on overwrite. The replacing Variable takes the original's
// Index in place of its own.
func (k *Kernel) registerVariable(v *Variable) {
	if existing, ok := k.byName[v.Name]; ok {
		v.Index = existing.Index
		for i, o := range k.ordered {
			if o.Name == v.Name {
				k.ordered[i] = v
				break
			}
		}
	} else {
		k.ordered = append(k.ordered, v)
	}
	k.byName[v.Name] = v
	// Only RoleLiteral variables participate in numeric-literal dedup.
	// MASK_TRUE/MASK_FALSE also carry a Literal value (1/0, for the scalar
	// emitter's `const bool` declarations) but must never be returned by
	// GetOrAddLiteral(1.0)/GetOrAddLiteral(0.0) -- they are mask sentinels,
	// not numeric literals, and the vector emitter renders them as the raw
	// all-ones/all-zeros register rather than a broadcast value.
	if v.Literal != nil && v.Role == RoleLiteral {
		k.byLiteral[*v.Literal] = v
	}
}

// AddArgument registers a function parameter. kind and stride come from the
// parameter's annotation (spec.md 4.B). Every argument is marked Input
// here; Output is filled in later as the body is lowered, once any
// assignment targets the argument (or the return statement names it).
func (k *Kernel) AddArgument(name string, kind Kind, stride int) *Variable {
	v := k.newVariable(name, RoleArgument, kind, stride, nil)
	v.Input = true
	return v
}

// AddTemporary allocates a fresh, uniquely named temporary of the given
// kind (used for every intermediate expression result).
func (k *Kernel) AddTemporary(prefix string, kind Kind) *Variable {
	name := generatedName(prefix, k.nextIndex)
	return k.newVariable(name, RoleTemporary, kind, 0, nil)
}

// AddOrReuseNamed returns the existing Variable named name if one exists
// (reusing its kind), or creates a new temporary-role Variable with that
// exact name otherwise. Used when lowering `x = expr` for a source-level
// name `x` that may or may not already have a Variable.
func (k *Kernel) AddOrReuseNamed(name string, kind Kind) *Variable {
	if v, ok := k.byName[name]; ok {
		return v
	}
	return k.newVariable(name, RoleTemporary, kind, 0, nil)
}

// GetOrAddLiteral returns the Variable for value, creating one (deduplicated
// by exact numeric value, per spec.md 4.B) if none exists yet.
func (k *Kernel) GetOrAddLiteral(value float64, suffix string) *Variable {
	if v, ok := k.GetLiteralByValue(value); ok {
		return v
	}
	name := generatedName("lit", k.nextIndex)
	if suffix != "" {
		name += "_" + suffix
	}
	val := value
	return k.newVariable(name, RoleLiteral, KindScalar, 0, &val)
}

func generatedName(prefix string, index int) string {
	return prefix + itoa3(index)
}

func itoa3(n int) string {
	s := ""
	if n == 0 {
		return "000"
	}
	digits := []byte{}
	for n > 0 {
		digits = append(digits, byte('0'+n%10))
		n /= 10
	}
	for len(digits) < 3 {
		digits = append(digits, '0')
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

// GetVariableByName looks up a variable by its current name.
func (k *Kernel) GetVariableByName(name string) (*Variable, bool) {
	v, ok := k.byName[name]
	return v, ok
}

// GetLiteralByValue looks up the deduplicated literal Variable for value.
func (k *Kernel) GetLiteralByValue(value float64) (*Variable, bool) {
	v, ok := k.byLiteral[value]
	return v, ok
}

// ArgumentFilter narrows the result of Arguments.
type ArgumentFilter struct {
	Input   bool // only arguments with Input set
	Output  bool // only arguments with Output set
	Uniform bool // only uniform-scalar arguments
	Array   bool // only array (stride>=2) arguments
}

// Arguments returns the argument sub-table, sorted by index, optionally
// filtered.
func (k *Kernel) Arguments(filter ArgumentFilter) []*Variable {
	var out []*Variable
	for _, v := range k.sortedVariables() {
		if v.Role != RoleArgument {
			continue
		}
		if filter.Input && !v.Input {
			continue
		}
		if filter.Output && !v.Output {
			continue
		}
		if filter.Uniform && v.Kind != KindUniformScalar {
			continue
		}
		if filter.Array && v.Kind != KindArray {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Literals returns every literal (and mask-literal) Variable, sorted by
// numeric value.
func (k *Kernel) Literals() []*Variable {
	out := make([]*Variable, 0, len(k.byLiteral)+2)
	for _, v := range k.byLiteral {
		out = append(out, v)
	}
	for _, v := range k.ordered {
		if v.Role == RoleMaskLiteral {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if *out[i].Literal != *out[j].Literal {
			return *out[i].Literal < *out[j].Literal
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// VariableFilter narrows the result of Variables.
type VariableFilter struct {
	Uniform  *bool // nil: don't filter; else require Kind==UniformScalar to equal *Uniform
	Array    *bool // nil: don't filter; else require Kind==Array to equal *Array
	Mask     *bool // nil: don't filter; else require Kind==Mask to equal *Mask
}

// Variables returns every non-literal Variable, sorted by index, optionally
// filtered by kind. This mirrors the "stack variables" query the scalar and
// vector emitters use to declare locals.
func (k *Kernel) Variables(filter VariableFilter) []*Variable {
	var out []*Variable
	for _, v := range k.sortedVariables() {
		if v.Literal != nil {
			continue
		}
		if filter.Uniform != nil && (v.Kind == KindUniformScalar) != *filter.Uniform {
			continue
		}
		if filter.Array != nil && (v.Kind == KindArray) != *filter.Array {
			continue
		}
		if filter.Mask != nil && (v.Kind == KindMask) != *filter.Mask {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (k *Kernel) sortedVariables() []*Variable {
	out := append([]*Variable(nil), k.ordered...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// MaskTrue returns the kernel's sentinel all-true mask Variable, the root
// block's mask.
func (k *Kernel) MaskTrue() *Variable {
	v, _ := k.GetVariableByName("MASK_TRUE")
	return v
}

func boolPtr(b bool) *bool { return &b }
