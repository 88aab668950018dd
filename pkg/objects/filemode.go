package objects

import (
	"os"
	"strconv"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// FileMode is the mode of a tree entry. Git stores the type in the upper
// bits and permissions in the lower nine.
type FileMode uint32

const (
	FileModeTypeMask FileMode = 0o170000
	FileModeExecMask FileMode = 0o000111

	// Entry modes that may appear in a tree.
	FileModeEmpty      FileMode = 0
	FileModeTree       FileMode = 0o040000
	FileModeRegular    FileMode = 0o100644
	FileModeExecutable FileMode = 0o100755
	FileModeSymlink    FileMode = 0o120000
	FileModeSubmodule  FileMode = 0o160000

	// FileModeCommit is the gitlink mode; a submodule entry points at a commit.
	FileModeCommit = FileModeSubmodule

	// legacy group-writable blob mode still found in old repositories
	fileModeRegularGroupWritable FileMode = 0o100664
)

// Type returns the type bits.
func (m FileMode) Type() FileMode {
	return m & FileModeTypeMask
}

// IsTree reports whether the entry is a subtree.
func (m FileMode) IsTree() bool { return m == FileModeTree }

// IsBlob reports whether the entry points at a blob (file or symlink).
func (m FileMode) IsBlob() bool {
	return m == FileModeRegular || m == FileModeExecutable || m == FileModeSymlink
}

// IsFile reports whether the entry is a regular or executable file.
func (m FileMode) IsFile() bool {
	return m == FileModeRegular || m == FileModeExecutable
}

func (m FileMode) IsSymlink() bool    { return m == FileModeSymlink }
func (m FileMode) IsSubmodule() bool  { return m == FileModeSubmodule }
func (m FileMode) IsExecutable() bool { return m == FileModeExecutable }

// Valid reports whether m is one of the canonical tree modes.
func (m FileMode) Valid() bool {
	switch m {
	case FileModeTree, FileModeRegular, FileModeExecutable, FileModeSymlink, FileModeSubmodule:
		return true
	}
	return false
}

// ObjectType is the type of object an entry with this mode points at.
func (m FileMode) ObjectType() ObjectType {
	switch {
	case m.IsTree():
		return TreeType
	case m.IsSubmodule():
		return CommitType
	default:
		return BlobType
	}
}

// String returns the octal form used in tree objects, without leading zero
// for trees ("40000"), matching Git's serialization.
func (m FileMode) String() string {
	return strconv.FormatUint(uint64(m), 8)
}

// Name is a human readable kind.
func (m FileMode) Name() string {
	switch m {
	case FileModeTree:
		return "tree"
	case FileModeRegular:
		return "regular"
	case FileModeExecutable:
		return "executable"
	case FileModeSymlink:
		return "symlink"
	case FileModeSubmodule:
		return "submodule"
	default:
		return "unknown"
	}
}

// ParseFileMode parses the octal form found in tree objects and normalizes
// legacy modes to their canonical value.
func ParseFileMode(s string) (FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, errs.New(pkgName, errs.CodeInvalidArgument, "parse_mode", "invalid file mode "+strconv.Quote(s), err)
	}
	m := FileMode(v)
	if m == fileModeRegularGroupWritable {
		m = FileModeRegular
	}
	if !m.Valid() {
		return 0, errs.Newf(pkgName, errs.CodeInvalidArgument, "parse_mode", "unsupported file mode %o", v)
	}
	return m, nil
}

// FromOSFileMode converts os.FileMode to a tree entry mode.
func FromOSFileMode(mode os.FileMode) FileMode {
	switch {
	case mode&os.ModeSymlink != 0:
		return FileModeSymlink
	case mode.IsDir():
		return FileModeTree
	case mode&0o111 != 0:
		return FileModeExecutable
	default:
		return FileModeRegular
	}
}

// ToOSFileMode converts an entry mode to a permission set for checkout.
func (m FileMode) ToOSFileMode() os.FileMode {
	switch m {
	case FileModeSymlink:
		return os.ModeSymlink | 0o777
	case FileModeExecutable:
		return 0o755
	case FileModeTree, FileModeSubmodule:
		return os.ModeDir | 0o755
	default:
		return 0o644
	}
}
