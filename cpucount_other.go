//go:build !linux
// +build !linux

package vecpy

import "runtime"

// detectNumThreads falls back to the Go runtime's logical CPU count on every
// platform other than Linux, matching the teacher's parallel_darwin.go
// fallback.
func detectNumThreads() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}
