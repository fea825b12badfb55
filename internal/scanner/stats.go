package scanner

import (
	"net/url"
	"sort"
	"strings"
	"sync"
)

// explorationScore is the score assigned to patterns that have never been
// attempted, so unknown patterns still get scheduled ahead of known-bad
// ones but behind anything with a confirmed hit.
const explorationScore = 0.1

// PatternStats tracks per-pattern success rates across a scan and orders
// candidate URLs so that historically productive patterns are probed
// first. Patterns are keyed by the trailing path segment of the URL, so
// "backup.zip" aggregates across every host and directory it was tried
// under.
type PatternStats struct {
	mu    sync.Mutex
	stats map[string]*patternRecord
}

type patternRecord struct {
	attempts  int
	successes int
}

func NewPatternStats() *PatternStats {
	return &PatternStats{stats: make(map[string]*patternRecord)}
}

// Key extracts the pattern key from a candidate URL: its trailing path
// segment. Unparseable URLs key on the raw string.
func Key(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	path := strings.TrimSuffix(u.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	if path == "" {
		return rawURL
	}
	return path
}

// Record notes one probe outcome for the URL's pattern.
func (p *PatternStats) Record(rawURL string, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := Key(rawURL)
	rec, ok := p.stats[key]
	if !ok {
		rec = &patternRecord{}
		p.stats[key] = rec
	}
	rec.attempts++
	if success {
		rec.successes++
	}
}

// Score returns the success rate for a pattern key, or explorationScore
// for never-attempted patterns.
func (p *PatternStats) Score(key string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scoreLocked(key)
}

func (p *PatternStats) scoreLocked(key string) float64 {
	rec, ok := p.stats[key]
	if !ok || rec.attempts == 0 {
		return explorationScore
	}
	return float64(rec.successes) / float64(rec.attempts)
}

// Prioritize returns the URLs reordered by descending pattern score. The
// sort is stable: equally scored URLs keep their generation order, so the
// curated pattern ordering still shows through on a fresh scan.
func (p *PatternStats) Prioritize(urls []string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(urls))
	copy(out, urls)
	sort.SliceStable(out, func(i, j int) bool {
		return p.scoreLocked(Key(out[i])) > p.scoreLocked(Key(out[j]))
	})
	return out
}
