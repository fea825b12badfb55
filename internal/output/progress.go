package output

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Progress tracks and displays scan progress on stderr. It satisfies the
// scanner's progress interface; all methods are safe for concurrent use.
type Progress struct {
	total     atomic.Int64
	completed atomic.Int64
	start     time.Time
	done      chan struct{}
	stopOnce  sync.Once
	quiet     bool

	mu    sync.Mutex
	phase string
}

// NewProgress creates a progress tracker. Display starts at Begin.
func NewProgress(quiet bool) *Progress {
	return &Progress{
		done:  make(chan struct{}),
		quiet: quiet,
	}
}

// Begin records the total candidate count and starts periodic display
// updates.
func (p *Progress) Begin(total int) {
	p.total.Store(int64(total))
	p.start = time.Now()
	if p.quiet {
		return
	}
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.print()
			case <-p.done:
				p.print()
				fmt.Fprint(os.Stderr, "\n")
				return
			}
		}
	}()
}

// SetPhase names the dispatch phase shown alongside the counters.
func (p *Progress) SetPhase(phase string) {
	p.mu.Lock()
	p.phase = phase
	p.mu.Unlock()
}

// Tick records one completed probe.
func (p *Progress) Tick() {
	p.completed.Add(1)
}

// Completed returns the number of probes ticked so far.
func (p *Progress) Completed() int64 {
	return p.completed.Load()
}

// Finish stops the display. Safe to call more than once.
func (p *Progress) Finish() {
	p.stopOnce.Do(func() { close(p.done) })
}

func (p *Progress) print() {
	completed := p.completed.Load()
	total := p.total.Load()
	elapsed := time.Since(p.start).Seconds()
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(completed) / elapsed
	}

	pct := float64(0)
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
	}

	p.mu.Lock()
	phase := p.phase
	p.mu.Unlock()
	if phase != "" {
		phase = " | phase: " + phase
	}

	eta := ""
	if rate > 0 && completed < total {
		remaining := float64(total-completed) / rate
		eta = fmt.Sprintf(" | ETA: %s", time.Duration(remaining*float64(time.Second)).Round(time.Second))
	}

	fmt.Fprintf(os.Stderr, "\r\033[K[%3.0f%%] %d/%d | %.0f req/s%s%s",
		pct, completed, total, rate, phase, eta)
}
