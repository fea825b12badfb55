// Package runner wires targets, patterns, the probe client, the scanner,
// and output into the full scan pipeline.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/projectdiscovery/gologger"

	"github.com/backscan/backscan/internal/config"
	"github.com/backscan/backscan/internal/hook"
	"github.com/backscan/backscan/internal/output"
	"github.com/backscan/backscan/internal/patterns"
	"github.com/backscan/backscan/internal/probe"
	"github.com/backscan/backscan/internal/scanner"
	"github.com/backscan/backscan/internal/target"
	"github.com/backscan/backscan/pkg/version"
)

// minGlobalTimeout floors the whole-scan deadline so short per-request
// timeouts never starve a multi-target run.
const minGlobalTimeout = 60 * time.Second

// Run executes the full scan pipeline.
func Run(ctx context.Context, opts *config.Options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Whole-scan deadline: max(5x per-request timeout, 60s).
	global := 5 * opts.Timeout
	if global < minGlobalTimeout {
		global = minGlobalTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, global)
	defer cancel()

	targets, err := resolveTargets(ctx, opts)
	if err != nil {
		return err
	}

	gen, err := buildGenerator(opts)
	if err != nil {
		return err
	}

	client, err := probe.New(probe.Config{
		Timeout:       opts.Timeout,
		UserAgent:     opts.UserAgent,
		RandomHeaders: opts.RandomHeaders,
		RandomIP:      opts.RandomIP,
		Proxy:         opts.Proxy,
	})
	if err != nil {
		return fmt.Errorf("creating probe client: %w", err)
	}

	out, err := createWriter(opts)
	if err != nil {
		return fmt.Errorf("creating output writer: %w", err)
	}
	defer out.Close()

	if !opts.Quiet {
		printBanner(opts, len(targets))
	}

	var hookRunner *hook.Runner
	if opts.HookCmd != "" {
		hookRunner = hook.NewRunner(opts.HookCmd, opts.Quiet)
	}

	sidecar := output.NewSidecar(opts.OutputFile)
	progress := output.NewProgress(opts.Quiet)

	pauser, cleanup := startStdinToggle(opts.Quiet)
	defer cleanup()

	sc := scanner.New(client, scanner.Options{
		Threads:   opts.Threads,
		Timeout:   opts.Timeout,
		Verify:    opts.Verify,
		RateLimit: opts.RateLimit,
		Throttle:  opts.Throttle,
		Pauser:    pauser,
		Progress:  progress,
		OnDiscovery: func(d *probe.Discovery) {
			if err := sidecar.Append(d); err != nil {
				gologger.Warning().Msgf("writing incremental results: %v", err)
			}
			if !opts.Quiet {
				output.PrintDiscovery(d, opts.NoColor)
			}
			if hookRunner != nil {
				hookRunner.Run(d)
			}
		},
	})

	start := time.Now()
	discoveries, scanErr := sc.Scan(ctx, targets, gen)
	progress.Finish()

	// Expiry of the whole-scan deadline truncates the result set; it is
	// not a failure.
	if errors.Is(scanErr, context.DeadlineExceeded) {
		gologger.Warning().Msgf("scan deadline reached, truncating to %d results", len(discoveries))
		scanErr = nil
	}

	if scanErr != nil && len(discoveries) > 0 {
		gologger.Warning().Msgf("scan ended early (%v), writing %d partial results", scanErr, len(discoveries))
	}

	if err := out.WriteHeader(); err != nil {
		return err
	}
	for i := range discoveries {
		if err := out.WriteResult(&discoveries[i]); err != nil {
			return err
		}
	}

	stats := output.Stats{
		RunID:          uuid.New(),
		Targets:        len(targets),
		TotalRequests:  int(progress.Completed()),
		DiscoveryCount: len(discoveries),
		Duration:       time.Since(start),
	}
	if pauser != nil {
		stats.Duration -= pauser.PausedDuration()
	}
	if stats.Duration.Seconds() > 0 {
		stats.RequestsPerSec = float64(stats.TotalRequests) / stats.Duration.Seconds()
	}
	if err := out.WriteFooter(stats); err != nil {
		return err
	}

	if opts.Summary && !opts.Quiet {
		output.PrintHostSummary(os.Stderr, discoveries)
	}

	if scanErr == nil {
		// The final report is complete; the incremental file is now
		// redundant.
		if err := sidecar.Remove(); err != nil {
			gologger.Warning().Msgf("removing incremental results: %v", err)
		}
	} else if opts.OutputFile != "" {
		fmt.Fprintf(os.Stderr, "[*] Partial results kept in %s.part\n", opts.OutputFile)
	}

	return scanErr
}

// resolveTargets builds the normalized target list from positional
// arguments, the target list file, and the CIDR flag. Scheme-less
// entries from either source get HTTPS-first scheme detection.
func resolveTargets(ctx context.Context, opts *config.Options) ([]string, error) {
	targets, err := target.Load(ctx, opts.TargetFile, opts.Targets, true)
	if err != nil {
		return nil, err
	}

	if opts.CIDR != "" {
		cidrTargets, err := target.ExpandCIDR(opts.CIDR, opts.Ports, "http")
		if err != nil {
			return nil, fmt.Errorf("expanding CIDR: %w", err)
		}
		targets = append(targets, cidrTargets...)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets specified (arguments, -l, or --cidr)")
	}
	return targets, nil
}

func buildGenerator(opts *config.Options) (*patterns.Generator, error) {
	lines, err := patterns.Load(opts.PatternFile)
	if err != nil {
		return nil, fmt.Errorf("loading patterns: %w", err)
	}

	gen := patterns.NewGenerator()
	gen.AddPatterns(lines)
	gen.AddPatterns(opts.ExtraPatterns)

	if opts.PlaceholderFile != "" {
		placeholders, err := patterns.LoadPlaceholders(opts.PlaceholderFile)
		if err != nil {
			return nil, fmt.Errorf("loading placeholders: %w", err)
		}
		gen.AddPlaceholders(placeholders)
	}
	return gen, nil
}

func createWriter(opts *config.Options) (output.Writer, error) {
	w, err := output.NewWriter(opts.OutputFormat, opts.OutputFile, opts.NoColor, opts.Quiet)
	if err != nil {
		return nil, err
	}
	if opts.SortBy != "" {
		w = output.NewSortedWriter(w, opts.SortBy)
	}
	return w, nil
}

func printBanner(opts *config.Options, targetCount int) {
	const (
		cyan  = "\033[36m"
		white = "\033[97m"
		dim   = "\033[2m"
		reset = "\033[0m"
	)

	c, w, d, rs := cyan, white, dim, reset
	if opts.NoColor {
		c, w, d, rs = "", "", "", ""
	}

	fmt.Fprintf(os.Stderr, `
%s    __              __                       %s
%s   / /  ___ _____  / /__ ___ _______ ____    %s
%s  / _ \/ _ '/ __/ /  '_/(_-</ __/ _ '/ _ \   %s
%s /_.__/\_,_/\__/ /_/\_\/___/\__/\_,_/_//_/   %s %sv%s%s
%s                                             %s
%s    Backup & Config Artifact Scanner         %s
`,
		c, rs,
		c, rs,
		c, rs,
		c, rs, d, version.Version, rs,
		c, rs,
		w, rs,
	)

	verifyLabel := "OFF"
	if opts.Verify {
		verifyLabel = "ON"
	}

	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n", d, rs)
	fmt.Fprintf(os.Stderr, "  %sTargets:%s   %s%d%s\n", d, rs, w, targetCount, rs)
	fmt.Fprintf(os.Stderr, "  %sThreads:%s   %s%d%s\n", d, rs, w, opts.Threads, rs)
	fmt.Fprintf(os.Stderr, "  %sTimeout:%s   %s%s%s\n", d, rs, w, opts.Timeout, rs)
	fmt.Fprintf(os.Stderr, "  %sVerify:%s    %s%s%s\n", d, rs, w, verifyLabel, rs)
	if opts.OutputFile != "" {
		fmt.Fprintf(os.Stderr, "  %sOutput:%s    %s%s (%s)%s\n", d, rs, w, opts.OutputFile, opts.OutputFormat, rs)
	}
	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n\n", d, rs)
}
