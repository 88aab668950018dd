package blame

import (
	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
)

// lineRef follows one line of the blamed file through history.
type lineRef struct {
	final int // 0-based line in the blamed version
	orig  int // 0-based line in the suspect's version
}

// suspect is a version of the file (a commit and a path) that may be
// responsible for its pending lines.
type suspect struct {
	commit  *commit.Commit
	path    string
	blobID  objects.ObjectID
	content []byte
	lines   [][]byte
	pending []lineRef
	seq     int
}

type suspectKey struct {
	id   objects.ObjectID
	path string
}

func (s *suspect) key() suspectKey { return suspectKey{s.commit.ID(), s.path} }

// suspectQueue yields the suspect with the newest committer time first;
// ties come out in discovery order.
type suspectQueue struct {
	heap *binaryheap.Heap
	seq  int
}

func newSuspectQueue() *suspectQueue {
	return &suspectQueue{heap: binaryheap.NewWith(byCommitTime)}
}

func byCommitTime(a, b interface{}) int {
	x, y := a.(*suspect), b.(*suspect)
	tx, ty := x.commit.Time(), y.commit.Time()
	switch {
	case tx.After(ty):
		return -1
	case tx.Before(ty):
		return 1
	case x.seq < y.seq:
		return -1
	case x.seq > y.seq:
		return 1
	default:
		return 0
	}
}

func (q *suspectQueue) push(s *suspect) {
	q.seq++
	s.seq = q.seq
	q.heap.Push(s)
}

func (q *suspectQueue) pop() (*suspect, bool) {
	v, ok := q.heap.Pop()
	if !ok {
		return nil, false
	}
	return v.(*suspect), true
}
