//go:build linux || darwin

package scan

import "syscall"

func timespec(ts syscall.Timespec) float64 {
	return float64(ts.Sec) + float64(ts.Nsec)/1e9
}
