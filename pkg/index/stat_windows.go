//go:build windows

package index

import (
	"os"
)

// systemMetadata returns zeros; Git for Windows does the same.
func systemMetadata(info os.FileInfo) (dev, ino, uid, gid uint32) {
	return 0, 0, 0, 0
}
