package vecpy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBenchmarkSpeedup(t *testing.T) {
	d1, d2, ratio := BenchmarkSpeedup(
		func() { time.Sleep(2 * time.Millisecond) },
		func() { time.Sleep(1 * time.Millisecond) },
	)
	assert.Greater(t, d1, time.Duration(0))
	assert.Greater(t, d2, time.Duration(0))
	assert.Greater(t, ratio, 1.0)
}
