package scanner

import (
	"sync"
	"time"
)

// Pauser is a cooperative pause/resume gate for probe dispatch. While
// paused, Wait() blocks; while running it costs a mutex lock and a bool
// check. Accumulated pause time is tracked so elapsed-time reporting can
// exclude it.
type Pauser struct {
	mu          sync.Mutex
	cond        *sync.Cond
	paused      bool
	pausedSince time.Time
	totalPaused time.Duration
}

// NewPauser creates a Pauser in the running state.
func NewPauser() *Pauser {
	p := &Pauser{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Wait blocks the caller while paused, returning immediately otherwise.
func (p *Pauser) Wait() {
	p.mu.Lock()
	for p.paused {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// Toggle flips between paused and running and returns the new state
// (true = now paused).
func (p *Pauser) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.totalPaused += time.Since(p.pausedSince)
		p.paused = false
		p.cond.Broadcast()
	} else {
		p.paused = true
		p.pausedSince = time.Now()
	}
	return p.paused
}

// IsPaused reports the current state.
func (p *Pauser) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// PausedDuration returns total accumulated pause time, including any
// ongoing pause.
func (p *Pauser) PausedDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.totalPaused
	if p.paused {
		d += time.Since(p.pausedSince)
	}
	return d
}

// CurrentPauseDuration returns how long the ongoing pause has lasted, or
// 0 when running.
func (p *Pauser) CurrentPauseDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return 0
	}
	return time.Since(p.pausedSince)
}
