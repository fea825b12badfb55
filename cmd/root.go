package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/backscan/backscan/internal/config"
	"github.com/backscan/backscan/internal/runner"
	"github.com/backscan/backscan/internal/updater"
	"github.com/backscan/backscan/pkg/version"
)

var (
	opts       config.Options
	configFile string
	updateFlag bool
)

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"list", "cidr", "ports"}},
	{"PATTERNS", []string{"patterns", "placeholders", "pattern"}},
	{"PERFORMANCE", []string{"threads", "timeout", "rate-limit", "throttle"}},
	{"PROBING", []string{"verify"}},
	{"HTTP", []string{"user-agent", "random-headers", "random-ip", "proxy"}},
	{"OUTPUT", []string{"output", "format", "sort", "summary", "quiet", "no-color", "debug", "on-result"}},
	{"CONFIGURATION", []string{"config"}},
	{"UPDATE", []string{"update"}},
}

var rootCmd = &cobra.Command{
	Use:     "backscan <target>... [flags]",
	Short:   "Scanner for exposed backup archives and config artifacts",
	Version: version.Version,
	Long: `backscan probes web servers for forgotten backup archives, database
dumps, and configuration artifacts (backup.zip, site.tar.gz, .env,
wp-config.php.bak, ...). Candidates are generated from the target's own
domain name plus a curated pattern set, and probed with cheap HEAD
requests that adapt to each host's latency and rate limits.`,
	Example: `  backscan https://example.com
  backscan example.com --verify
  backscan -l targets.txt -o report.json --format json
  backscan --cidr 192.168.1.0/24 --ports 80,8080
  backscan https://example.com -w patterns.txt --pattern staging
  backscan https://example.com --sort size --summary
  backscan https://example.com --on-result "notify-send {url}"`,
	Args: cobra.ArbitraryArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Self-update mode: skip all validation.
		if updateFlag {
			return nil
		}

		opts.Targets = args

		if configFile != "" {
			if err := opts.ApplyFile(configFile, cmd.Flags().Changed); err != nil {
				return err
			}
		}

		if opts.Debug {
			gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
		} else if opts.Quiet {
			gologger.DefaultLogger.SetMaxLevel(levels.LevelError)
		}

		if len(opts.Targets) == 0 && opts.TargetFile == "" && opts.CIDR == "" {
			_ = cmd.Help()
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("target required: positional arguments, -l, or --cidr")
		}
		switch opts.SortBy {
		case "", "status", "size", "url":
		default:
			return fmt.Errorf("--sort must be one of: status, size, url")
		}
		switch opts.OutputFormat {
		case "", "text", "json", "csv", "markdown", "md":
		default:
			return fmt.Errorf("--format must be one of: text, json, csv, markdown")
		}
		if opts.Timeout <= 0 {
			return fmt.Errorf("--timeout must be positive")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateFlag {
			return updater.Update()
		}
		return runner.Run(context.Background(), &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()

	// Target
	f.StringVarP(&opts.TargetFile, "list", "l", "", "File with one target per line")
	f.StringVar(&opts.CIDR, "cidr", "", "CIDR range to scan (e.g. 192.168.1.0/24)")
	f.StringVar(&opts.Ports, "ports", "", "Ports for CIDR targets (comma-separated, e.g. 80,443,8080)")

	// Patterns
	f.StringVarP(&opts.PatternFile, "patterns", "w", "", "Custom pattern file (default: built-in)")
	f.StringVar(&opts.PlaceholderFile, "placeholders", "", "Custom domain placeholder templates")
	f.StringSliceVar(&opts.ExtraPatterns, "pattern", nil, "Additional patterns (repeatable)")

	// Performance
	f.IntVarP(&opts.Threads, "threads", "t", 5, "Concurrent probes (effective cap: 5)")
	f.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	f.Float64Var(&opts.RateLimit, "rate-limit", 0, "Max probes per second (0 = unlimited)")
	f.BoolVar(&opts.Throttle, "throttle", false, "Adaptive inter-request delay on rate-limited hosts")

	// Probing
	f.BoolVar(&opts.Verify, "verify", false, "Mark confirmed 200 hits as verified in the report")

	// HTTP
	f.StringVar(&opts.UserAgent, "user-agent", "", "Fixed User-Agent (default: random per request)")
	f.BoolVar(&opts.RandomHeaders, "random-headers", false, "Randomize browser headers per request")
	f.BoolVar(&opts.RandomIP, "random-ip", false, "Spoof X-Forwarded-For with a random IP")
	f.StringVar(&opts.Proxy, "proxy", "", "HTTP/SOCKS proxy URL")

	// Output
	f.StringVarP(&opts.OutputFile, "output", "o", "", "Report file path (also enables incremental .part file)")
	f.StringVar(&opts.OutputFormat, "format", "text", "Report format: text, json, csv, markdown")
	f.StringVar(&opts.SortBy, "sort", "", "Sort report: status, size, url")
	f.BoolVar(&opts.Summary, "summary", false, "Print per-host summary tree after the report")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Minimal output")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.BoolVar(&opts.Debug, "debug", false, "Verbose probe logging")

	// Hooks
	f.StringVar(&opts.HookCmd, "on-result", "", "Shell command to run for each discovery (receives JSON on stdin)")

	// Configuration
	f.StringVar(&configFile, "config", "", "YAML config file (flags take precedence)")

	// Update
	f.BoolVar(&updateFlag, "update", false, "Update backscan to the latest version")

	// Custom help: categorized flags like httpx.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})
}

// Execute runs the root command.
func Execute() {
	// Rewrite -up to --update before cobra parses args,
	// since pflag would interpret -up as a shorthand cluster.
	for i, arg := range os.Args {
		if arg == "-up" {
			os.Args[i] = "--update"
		}
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	// Show default for non-zero values.
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
    __              __
   / /  ___ _____  / /__ ___ _______ ____
  / _ \/ _ '/ __/ /  '_/(_-</ __/ _ '/ _ \
 /_.__/\_,_/\__/ /_/\_\/___/\__/\_,_/_//_/   %s

`, ver)
}
