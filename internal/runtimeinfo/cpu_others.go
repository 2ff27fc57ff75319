//go:build !linux

package runtimeinfo

import "runtime"

// AvailableCPUCount falls back to runtime.NumCPU() on non-Linux platforms,
// which have no cheap affinity-mask query.
func AvailableCPUCount() int {
	return runtime.NumCPU()
}
