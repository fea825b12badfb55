package output

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/backscan/backscan/internal/probe"
)

// Sidecar persists discoveries incrementally next to the report file so
// an interrupted scan still leaves its findings on disk. Every Append
// rewrites the whole sidecar; discovery volumes are small enough that
// rewriting beats a recovery-time repair of a truncated append log.
type Sidecar struct {
	mu          sync.Mutex
	path        string
	discoveries []probe.Discovery
}

// NewSidecar creates a sidecar at outputPath + ".part". An empty
// outputPath disables persistence; Append still accumulates in memory.
func NewSidecar(outputPath string) *Sidecar {
	s := &Sidecar{}
	if outputPath != "" {
		s.path = outputPath + ".part"
	}
	return s
}

// Append records one discovery and flushes the sidecar file. Flush
// failures are returned but safe to ignore; the in-memory copy is kept
// regardless.
func (s *Sidecar) Append(d *probe.Discovery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discoveries = append(s.discoveries, *d)
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.discoveries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Discoveries returns a snapshot of everything appended so far.
func (s *Sidecar) Discoveries() []probe.Discovery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]probe.Discovery, len(s.discoveries))
	copy(out, s.discoveries)
	return out
}

// Remove deletes the sidecar file after the final report has been
// written.
func (s *Sidecar) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
