package ui

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/utkarsh5026/gitcore/pkg/credentials"
)

// Progress draws a progress bar on w. A hidden Progress accepts every
// call and draws nothing, so commands never branch on --quiet.
type Progress struct {
	bar *progressbar.ProgressBar
	max int
}

// NewProgress starts a bar of max steps; max -1 draws a spinner for work
// of unknown size.
func NewProgress(w io.Writer, description string, max int, visible bool) *Progress {
	bar := progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(0),
	)
	return &Progress{bar: bar, max: max}
}

// Step moves the bar to done of total, adjusting the total when it changed.
func (p *Progress) Step(done, total int) {
	if total > 0 && total != p.max {
		p.bar.ChangeMax(total)
		p.max = total
	}
	_ = p.bar.Set(done)
}

// Describe replaces the text before the bar.
func (p *Progress) Describe(s string) { p.bar.Describe(s) }

// Finish completes and clears the bar.
func (p *Progress) Finish() { _ = p.bar.Finish() }

// Checkout adapts the bar to the working tree's per-path callback.
func (p *Progress) Checkout(path string, completed, total int) {
	p.Describe(fmt.Sprintf("checkout %s", Truncate(path, 40)))
	p.Step(completed, total)
}

// Counter returns a callback that advances a spinner by one per call.
func (p *Progress) Counter() func() {
	n := 0
	return func() {
		n++
		_ = p.bar.Set(n)
	}
}

var _ credentials.ProgressSink = (*Progress)(nil)

// Progress shows received objects of a transfer.
func (p *Progress) Progress(tp credentials.TransferProgress) error {
	p.Describe(fmt.Sprintf("receiving objects (%d bytes)", tp.ReceivedBytes))
	p.Step(int(tp.ReceivedObjects), int(tp.TotalObjects))
	if tp.Done() {
		p.Finish()
	}
	return nil
}
