// Package target loads and normalizes scan targets from CLI arguments,
// target list files, and CIDR ranges.
package target

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"
)

// detectTimeout bounds each scheme-detection attempt.
const detectTimeout = 3 * time.Second

// Load combines inline targets with the optional target list file,
// normalizes each entry, and de-duplicates while preserving order. With
// detect set, scheme-less entries are probed HTTPS-first before
// normalization; without it they default to http.
func Load(ctx context.Context, path string, inline []string, detect bool) ([]string, error) {
	raw := make([]string, 0, len(inline))
	raw = append(raw, inline...)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading target list %s: %w", path, err)
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			raw = append(raw, line)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading target list %s: %w", path, err)
		}
	}

	seen := make(map[string]struct{}, len(raw))
	var targets []string
	for _, entry := range raw {
		if detect && !strings.Contains(entry, "://") {
			entry = DetectScheme(ctx, entry) + "://" + entry
		}
		normalized, err := Normalize(entry)
		if err != nil {
			gologger.Warning().Msgf("skipping target %q: %v", entry, err)
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		targets = append(targets, normalized)
	}
	return targets, nil
}

// Normalize canonicalizes one target: adds an http scheme when missing,
// lowercases the host, strips default ports and any path, query, or
// trailing slash. Two spellings of the same origin normalize identically.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty target")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("missing host")
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = host + ":" + port
	}
	return u.Scheme + "://" + host, nil
}

// DetectScheme probes a bare host for a working scheme: HTTPS first, then
// HTTP, defaulting to http when neither answers. Each attempt is bounded
// by detectTimeout.
func DetectScheme(ctx context.Context, host string) string {
	client := &http.Client{
		Timeout: detectTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	for _, scheme := range []string{"https", "http"} {
		reqCtx, cancel := context.WithTimeout(ctx, detectTimeout)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, scheme+"://"+host, nil)
		if err != nil {
			cancel()
			continue
		}
		resp, err := client.Do(req)
		cancel()
		if err != nil {
			continue
		}
		resp.Body.Close()
		return scheme
	}
	return "http"
}
