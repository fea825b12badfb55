// Package config holds scan options and the optional YAML config file
// overlay.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Options holds all configuration for a scan.
type Options struct {
	// Targets
	Targets    []string
	TargetFile string
	CIDR       string
	Ports      string // comma-separated, used with CIDR

	// Patterns
	PatternFile     string // empty = built-in patterns
	PlaceholderFile string // empty = built-in domain templates
	ExtraPatterns   []string

	// Performance
	Threads   int
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
	Throttle  bool    // adaptive inter-request delay

	// Probing
	Verify bool // mark 200 hits as verified

	// HTTP
	UserAgent     string
	RandomHeaders bool
	RandomIP      bool
	Proxy         string

	// Output
	OutputFile   string
	OutputFormat string // "text", "json", "csv", "markdown"
	SortBy       string // "", "status", "size", "url"
	Summary      bool   // per-host summary tree after the report
	Quiet        bool
	NoColor      bool
	Debug        bool

	// Hook
	HookCmd string
}

// fileOptions mirrors Options with pointer fields so the YAML overlay can
// distinguish "absent" from zero values. Flags always win over the file.
type fileOptions struct {
	Targets         []string `yaml:"targets"`
	TargetFile      *string  `yaml:"target-file"`
	CIDR            *string  `yaml:"cidr"`
	Ports           *string  `yaml:"ports"`
	PatternFile     *string  `yaml:"pattern-file"`
	PlaceholderFile *string  `yaml:"placeholder-file"`
	ExtraPatterns   []string `yaml:"patterns"`
	Threads         *int     `yaml:"threads"`
	Timeout         *string  `yaml:"timeout"`
	RateLimit       *float64 `yaml:"rate-limit"`
	Throttle        *bool    `yaml:"throttle"`
	Verify          *bool    `yaml:"verify"`
	UserAgent       *string  `yaml:"user-agent"`
	RandomHeaders   *bool    `yaml:"random-headers"`
	RandomIP        *bool    `yaml:"random-ip"`
	Proxy           *string  `yaml:"proxy"`
	OutputFile      *string  `yaml:"output"`
	OutputFormat    *string  `yaml:"format"`
	SortBy          *string  `yaml:"sort-by"`
	Summary         *bool    `yaml:"summary"`
	Quiet           *bool    `yaml:"quiet"`
	NoColor         *bool    `yaml:"no-color"`
	HookCmd         *string  `yaml:"hook"`
}

// ApplyFile overlays values from a YAML config file onto opts. Only
// fields present in the file are touched, and only when the flag value
// still holds its default, so explicit flags keep precedence. changed
// maps flag names to whether the user set them.
func (o *Options) ApplyFile(path string, changed func(name string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	var f fileOptions
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	if len(f.Targets) > 0 {
		o.Targets = append(o.Targets, f.Targets...)
	}
	if len(f.ExtraPatterns) > 0 {
		o.ExtraPatterns = append(o.ExtraPatterns, f.ExtraPatterns...)
	}

	setString := func(flag string, dst *string, src *string) {
		if src != nil && !changed(flag) {
			*dst = *src
		}
	}
	setBool := func(flag string, dst *bool, src *bool) {
		if src != nil && !changed(flag) {
			*dst = *src
		}
	}

	setString("target-file", &o.TargetFile, f.TargetFile)
	setString("cidr", &o.CIDR, f.CIDR)
	setString("ports", &o.Ports, f.Ports)
	setString("patterns", &o.PatternFile, f.PatternFile)
	setString("placeholders", &o.PlaceholderFile, f.PlaceholderFile)
	setString("user-agent", &o.UserAgent, f.UserAgent)
	setString("proxy", &o.Proxy, f.Proxy)
	setString("output", &o.OutputFile, f.OutputFile)
	setString("format", &o.OutputFormat, f.OutputFormat)
	setString("sort-by", &o.SortBy, f.SortBy)
	setString("hook", &o.HookCmd, f.HookCmd)

	setBool("throttle", &o.Throttle, f.Throttle)
	setBool("verify", &o.Verify, f.Verify)
	setBool("random-headers", &o.RandomHeaders, f.RandomHeaders)
	setBool("random-ip", &o.RandomIP, f.RandomIP)
	setBool("summary", &o.Summary, f.Summary)
	setBool("quiet", &o.Quiet, f.Quiet)
	setBool("no-color", &o.NoColor, f.NoColor)

	if f.Threads != nil && !changed("threads") {
		o.Threads = *f.Threads
	}
	if f.RateLimit != nil && !changed("rate-limit") {
		o.RateLimit = *f.RateLimit
	}
	if f.Timeout != nil && !changed("timeout") {
		d, err := time.ParseDuration(*f.Timeout)
		if err != nil {
			return fmt.Errorf("parsing config %s: timeout: %w", path, err)
		}
		o.Timeout = d
	}

	return nil
}
