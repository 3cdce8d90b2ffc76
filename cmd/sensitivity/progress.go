package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// progressObserver forwards evaluation progress to a terminal progress bar.
// Concurrent workers may report out of order, so the bar only moves
// forward.
type progressObserver struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	last int
}

func newProgressObserver(total int, w io.Writer) *progressObserver {
	if w == nil {
		w = io.Discard
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Evaluating"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
	return &progressObserver{bar: bar}
}

// Progress implements sensitivity.ProgressObserver.
func (p *progressObserver) Progress(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if done <= p.last {
		return
	}
	p.last = done
	_ = p.bar.Set(done)
}

// Done reports how many evaluations the bar has seen.
func (p *progressObserver) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *progressObserver) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
