package revwalk

import (
	"github.com/emirpasic/gods/trees/binaryheap"
)

// node is a commit as the walker sees it.
type node struct {
	info *commitInfo
	seq  int // discovery order, breaks time ties
}

// queue hands out nodes in walk order.
type queue interface {
	push(n *node)
	pop() (*node, bool)
	len() int
}

// fifoQueue yields nodes in push order.
type fifoQueue struct {
	items []*node
}

func (q *fifoQueue) push(n *node) { q.items = append(q.items, n) }
func (q *fifoQueue) len() int     { return len(q.items) }

func (q *fifoQueue) pop() (*node, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	n := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return n, true
}

// lifoQueue yields the most recently pushed node first.
type lifoQueue struct {
	items []*node
}

func (q *lifoQueue) push(n *node) { q.items = append(q.items, n) }
func (q *lifoQueue) len() int     { return len(q.items) }

func (q *lifoQueue) pop() (*node, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	last := len(q.items) - 1
	n := q.items[last]
	q.items = q.items[:last]
	return n, true
}

// timeQueue yields the newest committer time first; equal times come out
// in discovery order.
type timeQueue struct {
	heap *binaryheap.Heap
}

func newTimeQueue() *timeQueue {
	return &timeQueue{heap: binaryheap.NewWith(byCommitTime)}
}

func byCommitTime(a, b interface{}) int {
	x, y := a.(*node), b.(*node)
	switch {
	case x.info.time > y.info.time:
		return -1
	case x.info.time < y.info.time:
		return 1
	case x.seq < y.seq:
		return -1
	case x.seq > y.seq:
		return 1
	default:
		return 0
	}
}

func (q *timeQueue) push(n *node) { q.heap.Push(n) }
func (q *timeQueue) len() int     { return q.heap.Size() }

func (q *timeQueue) pop() (*node, bool) {
	v, ok := q.heap.Pop()
	if !ok {
		return nil, false
	}
	return v.(*node), true
}
