package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/backscan/backscan/internal/probe"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// TextWriter writes colored text output to a writer.
type TextWriter struct {
	w       io.Writer
	noColor bool
	quiet   bool
}

// NewTextWriter creates a text report writer. If outputFile is empty,
// stdout is used. noColor disables ANSI escape codes.
func NewTextWriter(outputFile string, noColor, quiet bool) (*TextWriter, error) {
	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w = f
	}
	return &TextWriter{w: w, noColor: noColor, quiet: quiet}, nil
}

func (t *TextWriter) WriteHeader() error {
	if t.quiet {
		return nil
	}
	dim := "\033[2m"
	reset := colorReset
	if t.noColor {
		dim = ""
		reset = ""
	}
	_, err := fmt.Fprintf(t.w, "%sCode      Size  URL%s\n", dim, reset)
	return err
}

func (t *TextWriter) WriteResult(d *probe.Discovery) error {
	color := t.colorForStatus(d.StatusCode)
	reset := colorReset
	if t.noColor {
		color = ""
		reset = ""
	}

	marker := ""
	if d.Verified {
		marker = " [verified]"
	}

	_, err := fmt.Fprintf(t.w, "%s%3d%s  %8d  %s%s\n",
		color, d.StatusCode, reset,
		d.Size(),
		d.URL,
		marker,
	)
	return err
}

func (t *TextWriter) WriteFooter(stats Stats) error {
	if t.quiet {
		return nil
	}
	_, err := fmt.Fprintf(os.Stderr,
		"\nCompleted: %d requests | Discoveries: %d | Targets: %d | Duration: %s | %.1f req/s\n",
		stats.TotalRequests,
		stats.DiscoveryCount,
		stats.Targets,
		stats.Duration.Round(time.Millisecond),
		stats.RequestsPerSec,
	)
	return err
}

func (t *TextWriter) Close() error {
	if closer, ok := t.w.(io.Closer); ok && t.w != os.Stdout {
		return closer.Close()
	}
	return nil
}

func (t *TextWriter) colorForStatus(code int) string {
	if t.noColor {
		return ""
	}
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	case code >= 500:
		return colorRed
	default:
		return ""
	}
}

// PrintDiscovery writes one live console line as a discovery lands,
// independent of the final report format.
func PrintDiscovery(d *probe.Discovery, noColor bool) {
	color := colorGreen
	reset := colorReset
	if d.StatusCode == 403 {
		color = colorYellow
	}
	if noColor {
		color = ""
		reset = ""
	}
	size := ""
	if d.ContentLength != nil {
		size = fmt.Sprintf(" (%d bytes)", *d.ContentLength)
	}
	fmt.Fprintf(os.Stderr, "\r\033[K%s[+] %d %s%s%s\n", color, d.StatusCode, d.URL, size, reset)
}
