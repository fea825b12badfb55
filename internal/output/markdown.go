package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/backscan/backscan/internal/probe"
)

// MarkdownWriter renders discoveries as a Markdown report suitable for
// pasting into a finding writeup.
type MarkdownWriter struct {
	w      io.Writer
	closer io.Closer
}

// NewMarkdownWriter creates a Markdown report writer. Empty outputFile
// means stdout.
func NewMarkdownWriter(outputFile string) (*MarkdownWriter, error) {
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
	return &MarkdownWriter{w: w, closer: closer}, nil
}

func (m *MarkdownWriter) WriteHeader() error {
	_, err := fmt.Fprintf(m.w, "# Backup File Scan Report\n\n| URL | Status | Content-Type | Size | Verified |\n| --- | --- | --- | --- | --- |\n")
	return err
}

func (m *MarkdownWriter) WriteResult(d *probe.Discovery) error {
	size := "-"
	if d.ContentLength != nil {
		size = fmt.Sprintf("%d", *d.ContentLength)
	}
	ct := d.ContentType
	if ct == "" {
		ct = "-"
	}
	_, err := fmt.Fprintf(m.w, "| %s | %d | %s | %s | %t |\n",
		d.URL, d.StatusCode, ct, size, d.Verified)
	return err
}

func (m *MarkdownWriter) WriteFooter(stats Stats) error {
	_, err := fmt.Fprintf(m.w,
		"\nRun `%s`: %d discoveries across %d targets, %d requests in %s.\n",
		stats.RunID, stats.DiscoveryCount, stats.Targets,
		stats.TotalRequests, stats.Duration.Round(time.Millisecond))
	return err
}

func (m *MarkdownWriter) Close() error {
	if m.closer != nil {
		return m.closer.Close()
	}
	return nil
}
