// Package revwalk enumerates commits reachable from a set of pushed roots,
// excluding everything reachable from hidden roots.
package revwalk

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/objects/tag"
	"github.com/utkarsh5026/gitcore/pkg/refs"
)

const pkgName = "revwalk"

var (
	// ErrIterOver is returned by Next once every commit has been produced.
	// The walker is reset at that point.
	ErrIterOver = errors.New("revwalk: iteration over")

	// ErrStop may be returned by an Iter callback to end the walk early.
	ErrStop = errors.New("revwalk: stop")
)

// Sort selects the output order. Modes combine bitwise.
type Sort uint8

const (
	// SortNone is breadth first from the roots in push order.
	SortNone Sort = 0
	// SortTopological never emits a commit before all of its children
	// in the walked set.
	SortTopological Sort = 1 << 0
	// SortTime emits newer committer times first.
	SortTime Sort = 1 << 1
	// SortReverse reverses whatever order the other flags produce.
	SortReverse Sort = 1 << 2

	sortMask = SortTopological | SortTime | SortReverse
)

type commitInfo struct {
	id      objects.ObjectID
	parents []objects.ObjectID
	time    int64
	commit  *commit.Commit
}

// Walker is a restartable commit iterator. It is not safe for concurrent
// use.
//
// Lifecycle: a new walker is idle; Push makes it ready; the first Next
// starts walking; ErrIterOver or Reset returns it to idle with roots and
// hidden commits cleared. Sorting and first-parent mode survive resets.
type Walker struct {
	objects objects.Reader
	refs    *refs.Store
	logger  *slog.Logger

	sorting     Sort
	firstParent bool

	roots  []objects.ObjectID
	hidden []objects.ObjectID

	cache   map[objects.ObjectID]*commitInfo
	it      *iteration
	emitted map[objects.ObjectID]bool
}

// Option configures a Walker.
type Option func(*Walker)

// WithRefs enables PushRef, PushGlob, PushHead and their Hide variants.
func WithRefs(s *refs.Store) Option {
	return func(w *Walker) { w.refs = s }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(w *Walker) { w.logger = l }
}

// New returns an idle walker reading commits from r.
func New(r objects.Reader, opts ...Option) *Walker {
	w := &Walker{objects: r, cache: make(map[objects.ObjectID]*commitInfo)}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logger.Component(w.logger, "revwalk")
	return w
}

// Sorting changes the output order. A walk in progress is discarded; the
// pushed and hidden roots are kept.
func (w *Walker) Sorting(mode Sort) {
	w.sorting = mode & sortMask
	w.restart()
}

// SimplifyFirstParent makes the walk follow only first parents. A walk in
// progress is discarded.
func (w *Walker) SimplifyFirstParent() {
	w.firstParent = true
	w.restart()
}

// Reset clears roots, hidden commits and any walk in progress.
func (w *Walker) Reset() {
	w.roots = nil
	w.hidden = nil
	w.restart()
}

func (w *Walker) restart() {
	w.it = nil
	w.emitted = nil
}

// Push adds a root. Annotated tags are peeled; anything that does not peel
// to a commit is INVALID_ARGUMENT.
func (w *Walker) Push(ctx context.Context, id objects.ObjectID) error {
	peeled, err := w.peelToCommit(ctx, "push", id)
	if err != nil {
		return err
	}
	w.roots = append(w.roots, peeled)
	w.it = nil
	return nil
}

// Hide excludes id and all of its ancestors from the output.
func (w *Walker) Hide(ctx context.Context, id objects.ObjectID) error {
	peeled, err := w.peelToCommit(ctx, "hide", id)
	if err != nil {
		return err
	}
	w.hidden = append(w.hidden, peeled)
	w.it = nil
	return nil
}

// PushRef pushes the commit the reference called name resolves to.
func (w *Walker) PushRef(ctx context.Context, name string) error {
	id, err := w.resolveRef(ctx, "push_ref", name)
	if err != nil {
		return err
	}
	return w.Push(ctx, id)
}

// HideRef hides the commit the reference called name resolves to.
func (w *Walker) HideRef(ctx context.Context, name string) error {
	id, err := w.resolveRef(ctx, "hide_ref", name)
	if err != nil {
		return err
	}
	return w.Hide(ctx, id)
}

// PushHead is PushRef("HEAD").
func (w *Walker) PushHead(ctx context.Context) error { return w.PushRef(ctx, refs.HEAD) }

// HideHead is HideRef("HEAD").
func (w *Walker) HideHead(ctx context.Context) error { return w.HideRef(ctx, refs.HEAD) }

// PushGlob pushes every reference matching pattern (see refs.Store.Glob).
// References that do not point at commits are skipped.
func (w *Walker) PushGlob(ctx context.Context, pattern string) error {
	return w.globEach(ctx, "push_glob", pattern, w.Push)
}

// HideGlob hides every reference matching pattern.
func (w *Walker) HideGlob(ctx context.Context, pattern string) error {
	return w.globEach(ctx, "hide_glob", pattern, w.Hide)
}

func (w *Walker) globEach(ctx context.Context, op, pattern string, fn func(context.Context, objects.ObjectID) error) error {
	if w.refs == nil {
		return errs.New(pkgName, errs.CodeUnsupported, op, "walker has no reference store", nil)
	}
	matched, err := w.refs.Glob(pattern)
	if err != nil {
		return errs.Wrap(err, pkgName, op)
	}
	for _, ref := range matched {
		if ref.IsSymbolic() {
			continue
		}
		err := fn(ctx, ref.Target)
		if errs.IsInvalidArgument(err) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) resolveRef(ctx context.Context, op, name string) (objects.ObjectID, error) {
	if w.refs == nil {
		return objects.ObjectID{}, errs.New(pkgName, errs.CodeUnsupported, op, "walker has no reference store", nil)
	}
	id, err := w.refs.ResolveID(ctx, name)
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, op)
	}
	return id, nil
}

func (w *Walker) peelToCommit(ctx context.Context, op string, id objects.ObjectID) (objects.ObjectID, error) {
	if info, ok := w.cache[id]; ok {
		return info.id, nil
	}
	raw, err := tag.Peel(ctx, w.objects, id)
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, op)
	}
	if raw.Type != objects.CommitType {
		return objects.ObjectID{}, errs.Newf(pkgName, errs.CodeInvalidArgument, op, "%s is a %s, not a commit", id.Short(), raw.Type)
	}
	c, err := commit.FromRaw(raw)
	if err != nil {
		return objects.ObjectID{}, errs.Wrap(err, pkgName, op)
	}
	w.remember(c)
	return raw.ID, nil
}

func (w *Walker) remember(c *commit.Commit) *commitInfo {
	info := &commitInfo{
		id:      c.ID(),
		parents: c.Parents(),
		time:    c.Time().Unix(),
		commit:  c,
	}
	w.cache[info.id] = info
	return info
}

func (w *Walker) load(ctx context.Context, id objects.ObjectID) (*commitInfo, error) {
	if info, ok := w.cache[id]; ok {
		return info, nil
	}
	if err := errs.CheckContext(ctx, pkgName, "next"); err != nil {
		return nil, err
	}
	c, err := commit.Lookup(ctx, w.objects, id)
	if err != nil {
		return nil, errs.Wrap(err, pkgName, "load_commit")
	}
	return w.remember(c), nil
}

// Next returns the next commit id. When the walk is exhausted it returns
// ErrIterOver and the walker goes back to idle.
func (w *Walker) Next(ctx context.Context) (objects.ObjectID, error) {
	if err := errs.CheckContext(ctx, pkgName, "next"); err != nil {
		return objects.ObjectID{}, err
	}

	if w.it == nil {
		if len(w.roots) == 0 {
			w.Reset()
			return objects.ObjectID{}, ErrIterOver
		}
		it, err := w.prepare(ctx)
		if err != nil {
			return objects.ObjectID{}, err
		}
		w.it = it
		if w.emitted == nil {
			w.emitted = make(map[objects.ObjectID]bool)
		}
	}

	for {
		id, ok, err := w.it.next(ctx, w)
		if err != nil {
			return objects.ObjectID{}, err
		}
		if !ok {
			w.Reset()
			return objects.ObjectID{}, ErrIterOver
		}
		if w.emitted[id] {
			continue
		}
		w.emitted[id] = true
		return id, nil
	}
}

// NextCommit is Next returning the parsed commit.
func (w *Walker) NextCommit(ctx context.Context) (*commit.Commit, error) {
	id, err := w.Next(ctx)
	if err != nil {
		return nil, err
	}
	info, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return info.commit, nil
}

// Iter calls fn for every remaining commit. Returning ErrStop from fn ends
// the walk with a CANCELLED error; other errors are returned wrapped. The
// walker is reset in every case.
func (w *Walker) Iter(ctx context.Context, fn func(*commit.Commit) error) error {
	for {
		c, err := w.NextCommit(ctx)
		if errors.Is(err, ErrIterOver) {
			return nil
		}
		if err != nil {
			w.Reset()
			return err
		}
		if err := fn(c); err != nil {
			w.Reset()
			if errors.Is(err, ErrStop) {
				return errs.New(pkgName, errs.CodeCancelled, "iter", "walk stopped by callback", err)
			}
			return errs.Wrap(err, pkgName, "iter")
		}
	}
}

// walkedParents returns the parents the walk follows from info.
func (w *Walker) walkedParents(info *commitInfo) []objects.ObjectID {
	if w.firstParent && len(info.parents) > 1 {
		return info.parents[:1]
	}
	return info.parents
}

// iteration is one pass over the graph. Lazy iterations expand parents as
// commits are popped; full iterations compute the whole order up front
// (topological and reverse orders need every commit first).
type iteration struct {
	hidden map[objects.ObjectID]bool

	q    queue
	seen map[objects.ObjectID]bool
	seq  int

	full bool
	list []objects.ObjectID
	pos  int
}

func (w *Walker) prepare(ctx context.Context) (*iteration, error) {
	hidden, err := w.hiddenClosure(ctx)
	if err != nil {
		return nil, err
	}

	it := &iteration{hidden: hidden, seen: make(map[objects.ObjectID]bool)}
	if w.sorting&SortTime != 0 && w.sorting&SortTopological == 0 {
		it.q = newTimeQueue()
	} else {
		it.q = &fifoQueue{}
	}
	for _, root := range w.roots {
		if err := it.enqueue(ctx, w, root); err != nil {
			return nil, err
		}
	}

	if w.sorting&(SortTopological|SortReverse) == 0 {
		return it, nil
	}

	var order []objects.ObjectID
	if w.sorting&SortTopological != 0 {
		order, err = w.topoOrder(ctx, it)
	} else {
		order, err = it.drain(ctx, w)
	}
	if err != nil {
		return nil, err
	}
	if w.sorting&SortReverse != 0 {
		slices.Reverse(order)
	}

	w.logger.Debug("walk prepared", "commits", len(order), "hidden", len(hidden), "sorting", int(w.sorting))
	return &iteration{full: true, list: order}, nil
}

// hiddenClosure returns the hidden roots and all of their ancestors.
func (w *Walker) hiddenClosure(ctx context.Context) (map[objects.ObjectID]bool, error) {
	hidden := make(map[objects.ObjectID]bool)
	stack := slices.Clone(w.hidden)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if hidden[id] {
			continue
		}
		hidden[id] = true

		info, err := w.load(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, p := range info.parents {
			if !hidden[p] {
				stack = append(stack, p)
			}
		}
	}
	return hidden, nil
}

func (it *iteration) enqueue(ctx context.Context, w *Walker, id objects.ObjectID) error {
	if it.seen[id] || it.hidden[id] {
		return nil
	}
	info, err := w.load(ctx, id)
	if err != nil {
		return err
	}
	it.seen[id] = true
	it.q.push(&node{info: info, seq: it.seq})
	it.seq++
	return nil
}

func (it *iteration) next(ctx context.Context, w *Walker) (objects.ObjectID, bool, error) {
	if it.full {
		if it.pos >= len(it.list) {
			return objects.ObjectID{}, false, nil
		}
		id := it.list[it.pos]
		it.pos++
		return id, true, nil
	}

	n, ok := it.q.pop()
	if !ok {
		return objects.ObjectID{}, false, nil
	}
	for _, p := range w.walkedParents(n.info) {
		if err := it.enqueue(ctx, w, p); err != nil {
			return objects.ObjectID{}, false, err
		}
	}
	return n.info.id, true, nil
}

func (it *iteration) drain(ctx context.Context, w *Walker) ([]objects.ObjectID, error) {
	var out []objects.ObjectID
	for {
		id, ok, err := it.next(ctx, w)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, id)
	}
}

// topoOrder collects every commit the lazy iteration would visit and
// orders them so that each commit follows all of its children. Ready
// commits are taken newest first with SortTime, otherwise depth first so
// that a line of history stays together.
func (w *Walker) topoOrder(ctx context.Context, it *iteration) ([]objects.ObjectID, error) {
	var nodes []*node
	for {
		n, ok := it.q.pop()
		if !ok {
			break
		}
		nodes = append(nodes, n)
		for _, p := range w.walkedParents(n.info) {
			if err := it.enqueue(ctx, w, p); err != nil {
				return nil, err
			}
		}
	}

	byID := make(map[objects.ObjectID]*node, len(nodes))
	children := make(map[objects.ObjectID]int, len(nodes))
	for _, n := range nodes {
		byID[n.info.id] = n
	}
	for _, n := range nodes {
		for _, p := range w.walkedParents(n.info) {
			if _, ok := byID[p]; ok {
				children[p]++
			}
		}
	}

	var ready queue
	if w.sorting&SortTime != 0 {
		ready = newTimeQueue()
	} else {
		ready = &lifoQueue{}
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		if children[nodes[i].info.id] == 0 {
			ready.push(nodes[i])
		}
	}

	order := make([]objects.ObjectID, 0, len(nodes))
	for {
		n, ok := ready.pop()
		if !ok {
			break
		}
		if err := errs.CheckContext(ctx, pkgName, "next"); err != nil {
			return nil, err
		}
		order = append(order, n.info.id)

		parents := w.walkedParents(n.info)
		for i := len(parents) - 1; i >= 0; i-- {
			p, ok := byID[parents[i]]
			if !ok {
				continue
			}
			children[parents[i]]--
			if children[parents[i]] == 0 {
				ready.push(p)
			}
		}
	}
	return order, nil
}
