// Package hook executes a user-supplied shell command for each discovery.
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/backscan/backscan/internal/probe"
)

// Runner executes a shell command for each discovery.
type Runner struct {
	cmd   string
	quiet bool
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd string, quiet bool) *Runner {
	return &Runner{cmd: cmd, quiet: quiet}
}

// Run executes the hook command with the discovery as JSON on stdin.
// {url}, {status}, {size}, and {verified} placeholders are expanded in
// the command string. The command runs with a 30-second timeout; errors
// are logged but never halt the scan.
func (r *Runner) Run(d *probe.Discovery) {
	data, err := json.Marshal(d)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[hook] marshal error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expanded := r.cmd
	expanded = strings.ReplaceAll(expanded, "{url}", d.URL)
	expanded = strings.ReplaceAll(expanded, "{status}", fmt.Sprintf("%d", d.StatusCode))
	expanded = strings.ReplaceAll(expanded, "{size}", fmt.Sprintf("%d", d.Size()))
	expanded = strings.ReplaceAll(expanded, "{verified}", fmt.Sprintf("%t", d.Verified))

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, expanded)...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	if err != nil {
		if !r.quiet {
			fmt.Fprintf(os.Stderr, "[hook] error: %v\n", err)
		}
		return
	}

	if len(output) > 0 && !r.quiet {
		fmt.Fprintf(os.Stderr, "[hook] %s", output)
	}
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
