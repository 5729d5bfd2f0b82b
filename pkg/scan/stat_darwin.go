//go:build darwin

package scan

import (
	"io/fs"
	"syscall"
)

func statOf(info fs.FileInfo) Stat {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return modTimeStat(info)
	}
	return Stat{
		Atime: timespec(st.Atimespec),
		Mtime: timespec(st.Mtimespec),
		Ctime: timespec(st.Ctimespec),
	}
}
