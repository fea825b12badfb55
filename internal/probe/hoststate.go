package probe

import (
	"sync"
	"time"
)

const (
	// latencyWindow bounds the per-host rolling latency sample.
	latencyWindow = 10

	// rateLimitThreshold is the number of 429/503 hits on one host before
	// the throttle factor is raised.
	rateLimitThreshold = 3

	// throttleGrowth and throttleCeiling bound the throttle factor; it
	// only grows under sustained rate limiting.
	throttleGrowth  = 1.5
	throttleCeiling = 5.0

	// throttleDecay shrinks the factor toward 1.0 once no host has been
	// rate limited for quietPeriod.
	throttleDecay = 0.9
	quietPeriod   = 300 * time.Second

	// baseDelay scales with the throttle factor to form the derived
	// inter-request delay.
	baseDelay = 30 * time.Millisecond
)

type hostState struct {
	latencies []time.Duration
	hits      int
	lastHit   time.Time
	warmed    bool
}

// hostTable tracks per-host latency windows and rate-limit state plus the
// process-wide throttle factor. All methods hold the lock only for O(1)
// in-memory updates, never across a network call.
type hostTable struct {
	mu       sync.Mutex
	hosts    map[string]*hostState
	throttle float64
}

func newHostTable() *hostTable {
	return &hostTable{
		hosts:    make(map[string]*hostState),
		throttle: 1.0,
	}
}

func (t *hostTable) get(host string) *hostState {
	s, ok := t.hosts[host]
	if !ok {
		s = &hostState{}
		t.hosts[host] = s
	}
	return s
}

// recordLatency appends an observed latency, keeping the newest
// latencyWindow samples.
func (t *hostTable) recordLatency(host string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.get(host)
	s.latencies = append(s.latencies, d)
	if len(s.latencies) > latencyWindow {
		s.latencies = s.latencies[1:]
	}
}

// adaptiveTimeout derives a timeout from the host's average latency:
// clamp(avg*3 + 2s, 5s, max). Hosts without samples get max.
func (t *hostTable) adaptiveTimeout(host string, max time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.hosts[host]
	if !ok || len(s.latencies) == 0 {
		return max
	}

	var sum time.Duration
	for _, d := range s.latencies {
		sum += d
	}
	avg := sum / time.Duration(len(s.latencies))

	adaptive := avg*3 + 2*time.Second
	if adaptive < 5*time.Second {
		return 5 * time.Second
	}
	if adaptive > max {
		return max
	}
	return adaptive
}

// recordRateLimit counts a 429/503 response against host and raises the
// throttle factor once the host crosses the hit threshold. Returns true
// when the factor was raised.
func (t *hostTable) recordRateLimit(host string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.get(host)
	s.hits++
	s.lastHit = time.Now()

	if s.hits >= rateLimitThreshold {
		t.throttle = t.throttle * throttleGrowth
		if t.throttle > throttleCeiling {
			t.throttle = throttleCeiling
		}
		return true
	}
	return false
}

// maybeDecay shrinks the throttle factor toward 1.0 when no host has been
// rate limited within the trailing quiet period.
func (t *hostTable) maybeDecay() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for _, s := range t.hosts {
		if s.hits > 0 && now.Sub(s.lastHit) < quietPeriod {
			return
		}
	}

	if t.throttle > 1.0 {
		t.throttle = t.throttle * throttleDecay
		if t.throttle < 1.0 {
			t.throttle = 1.0
		}
	}
}

// throttleDelay returns the derived inter-request delay, baseDelay scaled
// by the current throttle factor.
func (t *hostTable) throttleDelay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(float64(baseDelay) * t.throttle)
}

func (t *hostTable) throttleFactor() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.throttle
}

// markWarming flags host as warmed and reports whether it still needed
// warming. The flag is set before the warm-up request so concurrent
// callers do not duplicate it.
func (t *hostTable) markWarming(host string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.get(host)
	if s.warmed {
		return false
	}
	s.warmed = true
	return true
}
