package output

import (
	"sort"

	"github.com/backscan/backscan/internal/probe"
)

// SortedWriter buffers discoveries and replays them sorted by a field
// when WriteFooter is called. It wraps any other Writer.
type SortedWriter struct {
	inner   Writer
	sortBy  string
	results []*probe.Discovery
}

// NewSortedWriter wraps inner and buffers discoveries for sorted replay.
func NewSortedWriter(inner Writer, sortBy string) *SortedWriter {
	return &SortedWriter{inner: inner, sortBy: sortBy}
}

func (w *SortedWriter) WriteHeader() error {
	return w.inner.WriteHeader()
}

func (w *SortedWriter) WriteResult(d *probe.Discovery) error {
	cpy := *d
	w.results = append(w.results, &cpy)
	return nil
}

func (w *SortedWriter) WriteFooter(stats Stats) error {
	sort.SliceStable(w.results, func(i, j int) bool {
		switch w.sortBy {
		case "status":
			return w.results[i].StatusCode < w.results[j].StatusCode
		case "size":
			return w.results[i].Size() < w.results[j].Size()
		case "url":
			return w.results[i].URL < w.results[j].URL
		default:
			return false
		}
	})
	for _, d := range w.results {
		if err := w.inner.WriteResult(d); err != nil {
			return err
		}
	}
	return w.inner.WriteFooter(stats)
}

func (w *SortedWriter) Close() error {
	return w.inner.Close()
}
