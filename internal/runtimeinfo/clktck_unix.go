//go:build unix

package runtimeinfo

import (
	"github.com/tklauser/go-sysconf"
)

// SysClktck returns the kernel's USER_HZ (SC_CLK_TCK) value, used to
// sanity-check timer resolution assumptions at startup.
func SysClktck() (int64, error) {
	return sysconf.Sysconf(sysconf.SC_CLK_TCK)
}
