package credentials

import (
	"context"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
)

// TransferProgress is a snapshot of a fetch or clone in flight.
type TransferProgress struct {
	TotalObjects    int
	IndexedObjects  int
	ReceivedObjects int
	LocalObjects    int
	TotalDeltas     int
	IndexedDeltas   int
	ReceivedBytes   int64
}

// Done reports whether every object has been received and indexed.
func (p TransferProgress) Done() bool {
	return p.TotalObjects > 0 && p.ReceivedObjects == p.TotalObjects &&
		p.IndexedObjects == p.TotalObjects && p.IndexedDeltas == p.TotalDeltas
}

// ProgressSink receives transfer progress. Returning an error cancels the
// transfer.
type ProgressSink interface {
	Progress(TransferProgress) error
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(TransferProgress) error

func (f ProgressFunc) Progress(p TransferProgress) error { return f(p) }

// Report passes p to sink, which may be nil. A sink error, or a cancelled
// ctx, comes back as CANCELLED.
func Report(ctx context.Context, sink ProgressSink, p TransferProgress) error {
	if err := errs.CheckContext(ctx, pkgName, "progress"); err != nil {
		return err
	}
	if sink == nil {
		return nil
	}
	if err := sink.Progress(p); err != nil {
		return errs.New(pkgName, errs.CodeCancelled, "progress", "progress sink aborted the transfer", err)
	}
	return nil
}
