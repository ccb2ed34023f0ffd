package vecpy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitVectorMaskedUpdateBlends(t *testing.T) {
	k, err := Lower(s2Kernel())
	require.NoError(t, err)
	text, err := EmitVector(k, ArchSSE4, DataTypeFloat32)
	require.NoError(t, err)
	// Straight-line vector code never branches -- both arms of the if/else
	// are emitted unconditionally, and the masked write blends instead.
	assert.Contains(t, text, "_mm_or_ps(_mm_and_ps(")
	assert.NotContains(t, text, "if (")
}

func TestEmitVectorWhileUsesMovemaskGuard(t *testing.T) {
	k, err := Lower(s3Kernel())
	require.NoError(t, err)
	text, err := EmitVector(k, ArchAVX2, DataTypeFloat32)
	require.NoError(t, err)
	assert.Contains(t, text, "_mm256_movemask_ps(")
	assert.Contains(t, text, "while (")
}

func TestEmitVectorStrideAccessIsPerLane(t *testing.T) {
	k, err := Lower(s5Kernel())
	require.NoError(t, err)
	text, err := EmitVector(k, ArchAVX2, DataTypeFloat32)
	require.NoError(t, err)
	// Array access never collapses to a single gather/scatter: every lane
	// gets its own scalar ArrayLoad call. s5Kernel reads pair[0] and
	// pair[1] separately, each unrolled across all 8 AVX2 lanes.
	assert.Equal(t, 16, countOccurrences(text, "pair["))
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
		}
	}
	return count
}
