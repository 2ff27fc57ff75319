// Count available CPUs based on affinity, adapted from the teacher's
// available_cpus_linux.go.

//go:build linux

package runtimeinfo

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// AvailableCPUCount counts CPUs available to this process's affinity mask,
// falling back to runtime.NumCPU() if the mask cannot be read.
func AvailableCPUCount() int {
	cpuSet := unix.CPUSet{}
	err := unix.SchedGetaffinity(os.Getpid(), &cpuSet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unix.SchedGetaffinity: %v", err)
		return runtime.NumCPU()
	}
	count := 0
	for _, cpuMask := range cpuSet {
		for cpuMask != 0 {
			count++
			cpuMask &= cpuMask - 1
		}
	}
	if count > runtime.NumCPU() {
		count = runtime.NumCPU()
	}
	return count
}
