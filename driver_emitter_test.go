package vecpy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignmentBytes(t *testing.T) {
	assert.Equal(t, 1, alignmentBytes(ArchGeneric))
	assert.Equal(t, 16, alignmentBytes(ArchSSE4))
	assert.Equal(t, 32, alignmentBytes(ArchAVX2))
}

func TestEmitDriverBakesThreadCount(t *testing.T) {
	k, err := Lower(s1Kernel())
	require.NoError(t, err)
	text, err := EmitDriver(k, ArchAVX2, DataTypeFloat32, 4)
	require.NoError(t, err)
	assert.Contains(t, text, "const unsigned int numThreads = 4U;")
	// run() itself takes no thread-count parameter -- it is baked in above.
	assert.Contains(t, text, "bool s1_run(const S1Args* args) {")
}

func TestEmitDriverClampsNonPositiveThreads(t *testing.T) {
	k, err := Lower(s1Kernel())
	require.NoError(t, err)
	text, err := EmitDriver(k, ArchAVX2, DataTypeFloat32, 0)
	require.NoError(t, err)
	assert.Contains(t, text, "const unsigned int numThreads = 1U;")
}

// S6 -- misalignment rejection happens before any thread is spawned.
func TestEmitDriverChecksAlignmentBeforeSpawning(t *testing.T) {
	k, err := Lower(s1Kernel())
	require.NoError(t, err)
	text, err := EmitDriver(k, ArchSSE4, DataTypeFloat32, 2)
	require.NoError(t, err)
	checkIdx := strings.Index(text, checkArgsFuncName(k)+"(args)")
	spawnIdx := strings.Index(text, "pthread_create")
	require.True(t, checkIdx >= 0 && spawnIdx >= 0)
	assert.Less(t, checkIdx, spawnIdx)
}

// Tail correctness -- offsets beyond the worker slices run the scalar
// kernel (spec.md 8, universal property 3).
func TestEmitDriverHandlesTail(t *testing.T) {
	k, err := Lower(s1Kernel())
	require.NoError(t, err)
	text, err := EmitDriver(k, ArchAVX2, DataTypeFloat32, 3)
	require.NoError(t, err)
	assert.Contains(t, text, "if (offset < args->N)")
	assert.Contains(t, text, "tailArgs.N = args->N - offset;")
	assert.Contains(t, text, scalarFuncName(k)+"(&tailArgs)")
}

func TestEmitDriverStrideAdvancesOffsetByStride(t *testing.T) {
	k, err := Lower(s5Kernel())
	require.NoError(t, err)
	text, err := EmitDriver(k, ArchAVX2, DataTypeFloat32, 2)
	require.NoError(t, err)
	assert.Contains(t, text, "args->pair + offset*2")
}
