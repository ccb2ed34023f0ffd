//go:build linux
// +build linux

package vecpy

import "golang.org/x/sys/unix"

// detectNumThreads reads the calling process's CPU affinity mask via
// sched_getaffinity and returns the number of cores it names. Grounded on
// the teacher's filewatcher_unix.go/parallel_unix.go Linux-only build-tag
// split, swapping /proc/cpuinfo scanning for the syscall x/sys/unix already
// wraps.
func detectNumThreads() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 1
	}
	n := set.Count()
	if n < 1 {
		return 1
	}
	return n
}
