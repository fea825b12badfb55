package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveTimeout(t *testing.T) {
	tbl := newHostTable()
	max := 30 * time.Second

	// No samples yet: full configured timeout.
	assert.Equal(t, max, tbl.adaptiveTimeout("a.com", max))

	// Fast host clamps to the floor.
	for i := 0; i < 5; i++ {
		tbl.recordLatency("a.com", 100*time.Millisecond)
	}
	assert.Equal(t, 5*time.Second, tbl.adaptiveTimeout("a.com", max))

	// Slow host: avg*3 + 2s, below max.
	for i := 0; i < latencyWindow; i++ {
		tbl.recordLatency("b.com", 2*time.Second)
	}
	assert.Equal(t, 8*time.Second, tbl.adaptiveTimeout("b.com", max))

	// Very slow host clamps to max.
	for i := 0; i < latencyWindow; i++ {
		tbl.recordLatency("c.com", 20*time.Second)
	}
	assert.Equal(t, max, tbl.adaptiveTimeout("c.com", max))
}

func TestLatencyWindowBounded(t *testing.T) {
	tbl := newHostTable()
	for i := 0; i < 3*latencyWindow; i++ {
		tbl.recordLatency("a.com", time.Second)
	}
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	assert.Len(t, tbl.hosts["a.com"].latencies, latencyWindow)
}

func TestRecordRateLimitRaisesThrottle(t *testing.T) {
	tbl := newHostTable()

	assert.False(t, tbl.recordRateLimit("a.com"))
	assert.False(t, tbl.recordRateLimit("a.com"))
	assert.InDelta(t, 1.0, tbl.throttleFactor(), 1e-9)

	// Third hit crosses the threshold.
	assert.True(t, tbl.recordRateLimit("a.com"))
	assert.InDelta(t, 1.5, tbl.throttleFactor(), 1e-9)

	// Factor saturates at the ceiling.
	for i := 0; i < 10; i++ {
		tbl.recordRateLimit("a.com")
	}
	assert.InDelta(t, throttleCeiling, tbl.throttleFactor(), 1e-9)
}

func TestMaybeDecay(t *testing.T) {
	tbl := newHostTable()
	for i := 0; i < rateLimitThreshold; i++ {
		tbl.recordRateLimit("a.com")
	}
	assert.InDelta(t, 1.5, tbl.throttleFactor(), 1e-9)

	// Recent hit: no decay.
	tbl.maybeDecay()
	assert.InDelta(t, 1.5, tbl.throttleFactor(), 1e-9)

	// Age the hit beyond the quiet period.
	tbl.mu.Lock()
	tbl.hosts["a.com"].lastHit = time.Now().Add(-quietPeriod - time.Second)
	tbl.mu.Unlock()

	tbl.maybeDecay()
	assert.InDelta(t, 1.35, tbl.throttleFactor(), 1e-9)

	// Decay never undershoots 1.0.
	for i := 0; i < 100; i++ {
		tbl.maybeDecay()
	}
	assert.InDelta(t, 1.0, tbl.throttleFactor(), 1e-9)
}

func TestThrottleDelayScalesWithFactor(t *testing.T) {
	tbl := newHostTable()
	assert.Equal(t, baseDelay, tbl.throttleDelay())

	for i := 0; i < rateLimitThreshold; i++ {
		tbl.recordRateLimit("a.com")
	}
	assert.Equal(t, 45*time.Millisecond, tbl.throttleDelay())
}

func TestMarkWarmingOncePerHost(t *testing.T) {
	tbl := newHostTable()
	assert.True(t, tbl.markWarming("a.com"))
	assert.False(t, tbl.markWarming("a.com"))
	assert.True(t, tbl.markWarming("b.com"))
}
