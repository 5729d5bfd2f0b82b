//go:build linux

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
		Atime: timespec(st.Atim),
		Mtime: timespec(st.Mtim),
		Ctime: timespec(st.Ctim),
	}
}
