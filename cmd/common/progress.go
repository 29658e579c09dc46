package common

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/warpdl/warpcookie/internal/cookies"
)

var isTerminal = func(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Bars draws one mpb bar per started task. Start may be called from several
// extraction goroutines at once.
type Bars struct {
	p *mpb.Progress
}

// NewBars renders bars to w.
func NewBars(w io.Writer) *Bars {
	return &Bars{
		p: mpb.New(mpb.WithOutput(w), mpb.WithWidth(40)),
	}
}

// Start adds a bar for label. A total of 0 means the count is not known in
// advance.
func (b *Bars) Start(label string, total int) cookies.Tracker {
	barStyle := mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟")
	bar := b.p.New(int64(total),
		barStyle,
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{W: len(label) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d/%d", decor.WC{W: 4}),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done"),
		),
	)
	return &barTracker{bar: bar}
}

// Wait blocks until every started bar is done.
func (b *Bars) Wait() {
	b.p.Wait()
}

type barTracker struct {
	bar *mpb.Bar
}

func (t *barTracker) Increment() {
	t.bar.Increment()
}

// Done completes the bar at its current count, which also settles bars
// whose total was unknown.
func (t *barTracker) Done() {
	t.bar.SetTotal(-1, true)
}

// NewProgress returns bars on stderr when enabled and stderr is a terminal,
// otherwise a reporter that discards updates. wait must be called once
// extraction is over.
func NewProgress(enabled bool) (progress cookies.Progress, wait func()) {
	if !enabled || !isTerminal(os.Stderr.Fd()) {
		return cookies.NopProgress{}, func() {}
	}
	bars := NewBars(os.Stderr)
	return bars, bars.Wait
}
