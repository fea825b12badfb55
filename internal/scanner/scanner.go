// Package scanner orchestrates probing of generated candidate URLs. It
// dispatches in two phases per target (root-level candidates first, then
// nested backup directories), bounds each batch with a size-proportional
// timeout, and reorders candidates by observed pattern success rates.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/projectdiscovery/gologger"
	"golang.org/x/time/rate"

	"github.com/backscan/backscan/internal/patterns"
	"github.com/backscan/backscan/internal/probe"
)

const (
	// maxEffectiveThreads caps concurrent probes regardless of the
	// configured thread count; anything higher mostly trips rate limits.
	maxEffectiveThreads = 5

	// phaseCooldown separates the root-tier and directory-tier phases of
	// one target, letting the host recover between bursts.
	phaseCooldown = 500 * time.Millisecond

	// taskTimeout caps each probe task; the configured scan timeout
	// applies when smaller.
	taskTimeout = 10 * time.Second

	// batchPerURL and batchCeiling bound one phase: min(3s per URL, 2m).
	batchPerURL  = 3 * time.Second
	batchCeiling = 120 * time.Second
)

// Progress receives scan lifecycle notifications. Implementations must be
// safe for concurrent Tick calls.
type Progress interface {
	Begin(total int)
	SetPhase(phase string)
	Tick()
	Finish()
}

// Options configures a Scanner.
type Options struct {
	Threads int
	Timeout time.Duration
	Verify  bool

	// RateLimit caps probes per second across the whole scan; 0 disables.
	RateLimit float64

	// Throttle inserts the probe client's adaptive inter-request delay
	// before every dispatch.
	Throttle bool

	Pauser   *Pauser  // nil = no pause support
	Progress Progress // nil = silent

	// OnDiscovery is invoked from worker goroutines as discoveries land,
	// before Scan returns. Used for live console output and the
	// incremental results file.
	OnDiscovery func(d *probe.Discovery)
}

// Scanner runs candidate generation output against one probe client.
type Scanner struct {
	client  *probe.Client
	stats   *PatternStats
	limiter *rate.Limiter
	opts    Options
}

func New(client *probe.Client, opts Options) *Scanner {
	if opts.Threads <= 0 {
		opts.Threads = 1
	}
	s := &Scanner{
		client: client,
		stats:  NewPatternStats(),
		opts:   opts,
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return s
}

// Stats exposes the accumulated per-pattern success rates.
func (s *Scanner) Stats() *PatternStats {
	return s.stats
}

// Scan probes every candidate for every target and returns the collected
// discoveries. It returns early with ctx.Err() when the context expires;
// discoveries gathered up to that point are still returned.
func (s *Scanner) Scan(ctx context.Context, targets []string, gen *patterns.Generator) ([]probe.Discovery, error) {
	sets := make(map[string]*patterns.CandidateSet, len(targets))
	total := 0
	for _, target := range targets {
		set, err := gen.Generate(target)
		if err != nil {
			gologger.Warning().Msgf("skipping target %s: %v", target, err)
			continue
		}
		sets[target] = set
		total += set.Len()
	}

	if s.opts.Progress != nil {
		s.opts.Progress.Begin(total)
		defer s.opts.Progress.Finish()
	}

	var discoveries []probe.Discovery
	for _, target := range targets {
		set, ok := sets[target]
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			return discoveries, ctx.Err()
		}

		s.client.WarmUp(ctx, target)

		if s.opts.Progress != nil {
			s.opts.Progress.SetPhase("root")
		}
		discoveries = append(discoveries, s.runBatch(ctx, s.stats.Prioritize(set.Root))...)

		if ctx.Err() != nil {
			return discoveries, ctx.Err()
		}
		if len(set.Dir) == 0 {
			continue
		}

		select {
		case <-time.After(phaseCooldown):
		case <-ctx.Done():
			return discoveries, ctx.Err()
		}

		if s.opts.Progress != nil {
			s.opts.Progress.SetPhase("dirs")
		}
		discoveries = append(discoveries, s.runBatch(ctx, s.stats.Prioritize(set.Dir))...)
	}

	return discoveries, ctx.Err()
}

// runBatch probes one phase's URLs under the shared concurrency cap. The
// batch as a whole is bounded by min(3s per URL, 2m); on expiry the
// outstanding probes are abandoned, not cancelled, so the per-probe
// contexts derive from the scan context rather than the batch context.
func (s *Scanner) runBatch(ctx context.Context, urls []string) []probe.Discovery {
	if len(urls) == 0 {
		return nil
	}

	batchTimeout := batchPerURL * time.Duration(len(urls))
	if batchTimeout > batchCeiling {
		batchTimeout = batchCeiling
	}
	batchCtx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	threads := s.opts.Threads
	if threads > maxEffectiveThreads {
		threads = maxEffectiveThreads
	}
	sem := make(chan struct{}, threads)

	var (
		mu          sync.Mutex
		discoveries []probe.Discovery
		wg          sync.WaitGroup
	)

	dispatched := 0
dispatch:
	for _, u := range urls {
		if s.opts.Pauser != nil {
			s.opts.Pauser.Wait()
		}
		if s.opts.Throttle {
			if delay := s.client.ThrottleDelay(); delay > 0 {
				select {
				case <-time.After(delay):
				case <-batchCtx.Done():
					break dispatch
				}
			}
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(batchCtx); err != nil {
				break dispatch
			}
		}

		select {
		case sem <- struct{}{}:
		case <-batchCtx.Done():
			break dispatch
		}

		dispatched++
		wg.Add(1)
		go func(rawURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			timeout := s.opts.Timeout
			if timeout <= 0 || timeout > taskTimeout {
				timeout = taskTimeout
			}
			probeCtx, probeCancel := context.WithTimeout(ctx, timeout)
			defer probeCancel()

			d := s.client.Check(probeCtx, rawURL, s.opts.Verify)
			s.stats.Record(rawURL, d != nil)
			if s.opts.Progress != nil {
				s.opts.Progress.Tick()
			}
			if d == nil {
				return
			}
			if s.opts.OnDiscovery != nil {
				s.opts.OnDiscovery(d)
			}
			mu.Lock()
			discoveries = append(discoveries, *d)
			mu.Unlock()
		}(u)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-batchCtx.Done():
		gologger.Warning().Msgf("batch timed out after %s with %d/%d probes dispatched, keeping partial results",
			batchTimeout, dispatched, len(urls))
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]probe.Discovery, len(discoveries))
	copy(out, discoveries)
	return out
}
