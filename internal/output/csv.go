package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/backscan/backscan/internal/probe"
)

// CSVWriter writes discoveries in CSV format.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a CSV report writer. Empty outputFile means
// stdout.
func NewCSVWriter(outputFile string) (*CSVWriter, error) {
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
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"url", "status", "content_type", "size", "verified"})
}

func (c *CSVWriter) WriteResult(d *probe.Discovery) error {
	size := ""
	if d.ContentLength != nil {
		size = fmt.Sprintf("%d", *d.ContentLength)
	}
	return c.w.Write([]string{
		d.URL,
		fmt.Sprintf("%d", d.StatusCode),
		d.ContentType,
		size,
		fmt.Sprintf("%t", d.Verified),
	})
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
