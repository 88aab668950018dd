package worktree

import (
	"strings"

	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// fileRef is a blob staged in a directory node.
type fileRef struct {
	id   objects.ObjectID
	mode objects.FileMode
}

// directoryNode is one directory of the in-memory layout built from flat
// paths before it is turned into tree objects bottom-up.
type directoryNode struct {
	name    string
	files   map[string]fileRef
	subdirs map[string]*directoryNode
}

func newDirectoryNode(name string) *directoryNode {
	return &directoryNode{
		name:    name,
		files:   make(map[string]fileRef),
		subdirs: make(map[string]*directoryNode),
	}
}

// addEntry places a slash separated path below dn, creating intermediate
// directories on the way.
//
//	node.addEntry("src/util/helper.go", id, objects.FileModeRegular)
//
// creates "src" and "src/util" and stores helper.go in the latter.
func (dn *directoryNode) addEntry(p string, id objects.ObjectID, mode objects.FileMode) {
	first, rest, nested := strings.Cut(p, "/")
	if !nested {
		dn.files[first] = fileRef{id: id, mode: mode}
		return
	}
	dn.getOrCreateSubdir(first).addEntry(rest, id, mode)
}

func (dn *directoryNode) getOrCreateSubdir(name string) *directoryNode {
	if subdir, ok := dn.subdirs[name]; ok {
		return subdir
	}
	subdir := newDirectoryNode(name)
	dn.subdirs[name] = subdir
	return subdir
}

// count returns the number of files below dn.
func (dn *directoryNode) count() int {
	n := len(dn.files)
	for _, sub := range dn.subdirs {
		n += sub.count()
	}
	return n
}
