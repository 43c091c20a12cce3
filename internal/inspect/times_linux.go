//go:build linux

package inspect

import (
	"golang.org/x/sys/unix"
)

// entryTimes returns birth and access times in epoch milliseconds using
// statx. Fields the filesystem does not report come back as zero.
func entryTimes(path string) (created, accessed uint64) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME|unix.STATX_ATIME, &stx); err != nil {
		return 0, 0
	}
	if stx.Mask&unix.STATX_BTIME != 0 {
		created = statxMillis(stx.Btime)
	}
	if stx.Mask&unix.STATX_ATIME != 0 {
		accessed = statxMillis(stx.Atime)
	}
	return created, accessed
}

func statxMillis(ts unix.StatxTimestamp) uint64 {
	if ts.Sec < 0 {
		return 0
	}
	return uint64(ts.Sec)*1000 + uint64(ts.Nsec)/1_000_000
}
