//go:build linux

package app

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// statTimes extracts access and status-change time from the stat result
// already captured for the entry.
func statTimes(info os.FileInfo) (atime, ctime time.Time) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime(), info.ModTime()
	}
	atime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
	ctime = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	return atime, ctime
}

// pathWritable reports whether the calling process may write the file,
// checked against effective credentials.
func pathWritable(path string, _ os.FileInfo) bool {
	return unix.Access(path, unix.W_OK) == nil
}

// fileOwner resolves the owning user name, degrading to the numeric uid
// when the account cannot be resolved.
func fileOwner(info os.FileInfo) string {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}
	uid := strconv.FormatUint(uint64(st.Uid), 10)
	if u, err := user.LookupId(uid); err == nil && u.Username != "" {
		return u.Username
	}
	return uid
}
