//go:build !linux

package app

import (
	"os"
	"time"
)

// Platforms without Stat_t access fall back to the portable subset: the
// modification time stands in for access and change time, writability is
// judged from the permission bits, and ownership stays unresolved.

func statTimes(info os.FileInfo) (atime, ctime time.Time) {
	return info.ModTime(), info.ModTime()
}

func pathWritable(_ string, info os.FileInfo) bool {
	return info.Mode().Perm()&0200 != 0
}

func fileOwner(_ os.FileInfo) string {
	return ""
}
