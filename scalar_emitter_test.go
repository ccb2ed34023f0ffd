package vecpy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitScalarMaskedUpdateUsesRealBranch(t *testing.T) {
	k, err := Lower(s2Kernel())
	require.NoError(t, err)
	text, err := EmitScalar(k, DataTypeFloat32)
	require.NoError(t, err)
	// The scalar emitter reaches a masked assignment through a real if,
	// never a blend -- spec.md 4.D.
	assert.Contains(t, text, "if (")
	assert.NotContains(t, text, "blend")
}

func TestEmitScalarLoopConvergence(t *testing.T) {
	k, err := Lower(s3Kernel())
	require.NoError(t, err)
	text, err := EmitScalar(k, DataTypeFloat32)
	require.NoError(t, err)
	assert.Contains(t, text, "while (")
}

func TestEmitScalarUniformArgumentIsByValue(t *testing.T) {
	k, err := Lower(s4Kernel())
	require.NoError(t, err)
	text, err := EmitScalar(k, DataTypeFloat32)
	require.NoError(t, err)
	assert.Contains(t, text, "args->a")
	assert.NotContains(t, text, "args->a[index]")
}
