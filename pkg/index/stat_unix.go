//go:build unix

package index

import (
	"os"
	"syscall"
)

// systemMetadata extracts device, inode, uid and gid when the filesystem
// exposes a stat structure (osfs does, memfs does not).
func systemMetadata(info os.FileInfo) (dev, ino, uid, gid uint32) {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint32(stat.Dev), uint32(stat.Ino), uint32(stat.Uid), uint32(stat.Gid)
	}
	return 0, 0, 0, 0
}
