package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/backscan/backscan/internal/probe"
)

type jsonReport struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Targets     int               `json:"targets"`
	Requests    int               `json:"requests"`
	Duration    string            `json:"duration"`
	Discoveries []probe.Discovery `json:"discoveries"`
}

// JSONWriter buffers discoveries and writes one report object at footer
// time.
type JSONWriter struct {
	w       io.Writer
	closer  io.Closer
	entries []probe.Discovery
}

// NewJSONWriter creates a JSON report writer. Empty outputFile means
// stdout.
func NewJSONWriter(outputFile string) (*JSONWriter, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w = f
		closer = f
	}
	return &JSONWriter{w: w, closer: closer}, nil
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteResult(d *probe.Discovery) error {
	j.entries = append(j.entries, *d)
	return nil
}

func (j *JSONWriter) WriteFooter(stats Stats) error {
	report := jsonReport{
		RunID:       stats.RunID.String(),
		GeneratedAt: time.Now().UTC(),
		Targets:     stats.Targets,
		Requests:    stats.TotalRequests,
		Duration:    stats.Duration.Round(time.Millisecond).String(),
		Discoveries: j.entries,
	}
	if report.Discoveries == nil {
		report.Discoveries = []probe.Discovery{}
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
