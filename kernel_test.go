package vecpy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKernelSeedsMaskSentinels(t *testing.T) {
	k := NewKernel("k")
	assert.Equal(t, "MASK_TRUE", k.MaskTrue().Name)
	falseVar, ok := k.GetVariableByName("MASK_FALSE")
	require.True(t, ok)
	assert.Equal(t, RoleMaskLiteral, falseVar.Role)
	assert.Equal(t, RoleMaskLiteral, k.MaskTrue().Role)
	assert.Same(t, k.MaskTrue(), k.Root.Mask)
}

func TestGetOrAddLiteralDedups(t *testing.T) {
	k := NewKernel("k")
	a := k.GetOrAddLiteral(2.5, "")
	b := k.GetOrAddLiteral(2.5, "unused-suffix")
	assert.Same(t, a, b)
	c := k.GetOrAddLiteral(3.5, "")
	assert.NotSame(t, a, c)
}

func TestRegisterVariablePreservesIndexOnOverwrite(t *testing.T) {
	k := NewKernel("k")
	first := k.AddArgument("x", KindScalar, 0)
	idx := first.Index
	second := &Variable{Index: 999, Name: "x", Role: RoleTemporary, Kind: KindScalar}
	k.registerVariable(second)
	assert.Equal(t, idx, second.Index)
	got, ok := k.GetVariableByName("x")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestArgumentsFilter(t *testing.T) {
	k, err := Lower(s4Kernel())
	require.NoError(t, err)
	uniform := k.Arguments(ArgumentFilter{Uniform: true})
	require.Len(t, uniform, 2)
	for _, v := range uniform {
		assert.Equal(t, KindUniformScalar, v.Kind)
	}
}

func TestVariablesMaskFilter(t *testing.T) {
	k, err := Lower(s2Kernel())
	require.NoError(t, err)
	trueVal, falseVal := true, false
	masks := k.Variables(VariableFilter{Mask: &trueVal})
	for _, v := range masks {
		assert.Equal(t, KindMask, v.Kind)
	}
	nonMasks := k.Variables(VariableFilter{Mask: &falseVal})
	for _, v := range nonMasks {
		assert.NotEqual(t, KindMask, v.Kind)
	}
}
