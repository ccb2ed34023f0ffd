package vecpy

import "time"

// BenchmarkSpeedup runs kernel1 then kernel2 and reports each call's
// wall-clock duration plus the ratio of the first to the second. Grounded
// on runtime.py's get_speedup, which timed a kernel's scalar-only call
// against its vectorized call; generalized here to any two no-argument
// callables since this package never executes the C it emits (spec.md 1)
// -- callers who load the generated scalar and vector entry points
// themselves (via cgo or their own FFI) pass those calls in directly.
func BenchmarkSpeedup(kernel1, kernel2 func()) (time.Duration, time.Duration, float64) {
	start1 := time.Now()
	kernel1()
	mid := time.Now()
	kernel2()
	end := time.Now()

	d1 := mid.Sub(start1)
	d2 := end.Sub(mid)
	var speedup float64
	if d2 > 0 {
		speedup = float64(d1) / float64(d2)
	}
	return d1, d2, speedup
}
