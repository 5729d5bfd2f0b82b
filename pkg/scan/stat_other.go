//go:build !linux && !darwin

package scan

import "io/fs"

func statOf(info fs.FileInfo) Stat {
	return modTimeStat(info)
}
