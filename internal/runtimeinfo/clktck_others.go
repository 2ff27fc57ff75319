//go:build !unix

package runtimeinfo

import "fmt"

// SysClktck has no cheap equivalent off unix; callers should treat the
// error as "unavailable on this platform" rather than a real failure.
func SysClktck() (int64, error) {
	return 0, fmt.Errorf("runtimeinfo: SysClktck unavailable on this platform")
}
