// Package output renders scan results: live console lines during the
// scan, an incremental results file that survives interruption, and a
// final report in one of several formats.
package output

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/backscan/backscan/internal/probe"
)

// Stats holds aggregate scan statistics for report footers.
type Stats struct {
	RunID          uuid.UUID
	Targets        int
	TotalRequests  int
	DiscoveryCount int
	Duration       time.Duration
	RequestsPerSec float64
}

// Writer is implemented by each report format.
type Writer interface {
	WriteHeader() error
	WriteResult(d *probe.Discovery) error
	WriteFooter(stats Stats) error
	Close() error
}

// NewWriter builds the Writer for a format name: text (default), json,
// csv, or markdown.
func NewWriter(format, outputFile string, noColor, quiet bool) (Writer, error) {
	switch format {
	case "", "text":
		return NewTextWriter(outputFile, noColor, quiet)
	case "json":
		return NewJSONWriter(outputFile)
	case "csv":
		return NewCSVWriter(outputFile)
	case "markdown", "md":
		return NewMarkdownWriter(outputFile)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
