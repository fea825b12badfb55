// Package probe performs low-cost existence checks against candidate URLs
// and classifies responses into discoveries. Transport failures never
// surface to callers: a scan issues thousands of speculative requests and
// a high background error rate is expected.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/projectdiscovery/gologger"
)

const (
	// probeTimeout bounds the single HEAD request of an existence check,
	// independent of the configured scan timeout.
	probeTimeout = 3 * time.Second

	// checkTimeout caps the outer bound of Check.
	checkTimeout = 5 * time.Second

	// warmupTimeout bounds the best-effort connection warm-up.
	warmupTimeout = 3 * time.Second

	// minDiscoverySize rejects 200 responses smaller than this; tiny
	// bodies are almost always disguised error pages.
	minDiscoverySize = 100
)

// Discovery is the record emitted when a probe confirms a likely backup
// artifact. ContentType and ContentLength are absent when the server did
// not send them.
type Discovery struct {
	URL           string `json:"url"`
	StatusCode    int    `json:"status_code"`
	ContentType   string `json:"content_type,omitempty"`
	ContentLength *int64 `json:"content_length,omitempty"`
	Verified      bool   `json:"verified"`
}

// Size returns the content length, or -1 when absent.
func (d *Discovery) Size() int64 {
	if d.ContentLength == nil {
		return -1
	}
	return *d.ContentLength
}

// Config holds probe client settings.
type Config struct {
	Timeout       time.Duration // configured scan timeout, upper bound for adaptive timeouts
	UserAgent     string        // fixed UA when RandomHeaders is off
	UserAgents    []string      // pool drawn from when RandomHeaders is on
	RandomHeaders bool
	RandomIP      bool
	Proxy         string
}

// Client issues existence probes over one shared HTTP transport. It is
// safe for concurrent use; per-host state lives in an internal table
// guarded by a mutex.
type Client struct {
	http          *http.Client
	timeout       time.Duration
	userAgent     string
	userAgents    []string
	randomHeaders bool
	randomIP      bool
	hosts         *hostTable
}

// New constructs a probe client. Construction failures (bad proxy URL)
// are the only fatal errors this package produces.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
			MinVersion:         tls.VersionTLS10,
		},
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: transport,
		// Redirects are classified, not followed; the single-hop follow
		// for 3xx discoveries is done explicitly.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Client{
		http:          client,
		timeout:       cfg.Timeout,
		userAgent:     cfg.UserAgent,
		userAgents:    cfg.UserAgents,
		randomHeaders: cfg.RandomHeaders,
		randomIP:      cfg.RandomIP,
		hosts:         newHostTable(),
	}, nil
}

// Check probes one candidate URL and classifies the response. It returns
// nil for anything that is not a discovery, including every transport
// error and timeout. The whole check is bounded by min(timeout, 5s).
func (c *Client) Check(ctx context.Context, rawURL string, verify bool) *Discovery {
	outer := c.timeout
	if outer > checkTimeout {
		outer = checkTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, outer)
	defer cancel()

	headers := c.synthesizeHeaders()

	start := time.Now()
	resp, err := c.roundTrip(ctx, http.MethodHead, rawURL, headers, probeTimeout)
	if err != nil {
		gologger.Debug().Msgf("probe failed: %s: %v", rawURL, err)
		return nil
	}
	resp.Body.Close()

	host := hostOf(rawURL)
	if host != "" {
		c.hosts.recordLatency(host, time.Since(start))
	}

	return c.classify(ctx, rawURL, resp, headers, verify)
}

// classify maps one response onto the discovery taxonomy. It is an
// exhaustive match over the status code; anything not listed is a
// non-discovery.
func (c *Client) classify(ctx context.Context, rawURL string, resp *http.Response, headers http.Header, verify bool) *Discovery {
	status := resp.StatusCode
	host := hostOf(rawURL)

	switch {
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		if host != "" && c.hosts.recordRateLimit(host) {
			gologger.Debug().Msgf("host %s rate limited, throttle factor now %.2f", host, c.hosts.throttleFactor())
		}
		return nil

	case status == http.StatusOK:
		c.hosts.maybeDecay()
		if !IsBackupPath(rawURL) {
			return nil
		}
		ct := resp.Header.Get("Content-Type")
		if ct != "" && !expectedContentType(rawURL, ct) {
			// Advisory only; servers routinely mislabel archives.
			gologger.Debug().Msgf("content type %q unexpected for %s", ct, rawURL)
		}
		if resp.ContentLength >= 0 && resp.ContentLength < minDiscoverySize {
			gologger.Debug().Msgf("response too small for %s (%d bytes)", rawURL, resp.ContentLength)
			return nil
		}
		return newDiscovery(rawURL, status, ct, resp.ContentLength, verify)

	case status == http.StatusForbidden:
		c.hosts.maybeDecay()
		if !IsBackupPath(rawURL) {
			return nil
		}
		// Access denied on a backup-looking path is itself a finding,
		// but content can never be verified.
		return newDiscovery(rawURL, status, resp.Header.Get("Content-Type"), resp.ContentLength, false)

	case status >= 300 && status < 400:
		c.hosts.maybeDecay()
		if !IsBackupPath(rawURL) {
			return nil
		}
		location := resolveLocation(rawURL, resp.Header.Get("Location"))
		if location == "" {
			return nil
		}
		return c.followOnce(ctx, rawURL, location, headers)

	default:
		c.hosts.maybeDecay()
		return nil
	}
}

// followOnce follows exactly one redirect hop via GET with the same
// headers. A success status at the target yields a discovery keyed by the
// original URL; anything else is a non-discovery.
func (c *Client) followOnce(ctx context.Context, originalURL, location string, headers http.Header) *Discovery {
	resp, err := c.roundTrip(ctx, http.MethodGet, location, headers, probeTimeout)
	if err != nil {
		gologger.Debug().Msgf("redirect follow failed: %s -> %s: %v", originalURL, location, err)
		return nil
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}

	gologger.Debug().Msgf("discovered via redirect: %s -> %s", originalURL, location)
	return newDiscovery(originalURL, resp.StatusCode, resp.Header.Get("Content-Type"), resp.ContentLength, false)
}

// CheckDirectory fetches a URL and reports just its status code, using the
// host's adaptive timeout. ok is false when the request failed entirely.
func (c *Client) CheckDirectory(ctx context.Context, rawURL string) (status int, ok bool) {
	timeout := c.timeout
	if host := hostOf(rawURL); host != "" {
		timeout = c.hosts.adaptiveTimeout(host, c.timeout)
	}

	resp, err := c.roundTrip(ctx, http.MethodGet, rawURL, c.synthesizeHeaders(), timeout)
	if err != nil {
		gologger.Debug().Msgf("directory check failed: %s: %v", rawURL, err)
		return 0, false
	}
	resp.Body.Close()
	return resp.StatusCode, true
}

// WarmUp pre-establishes a connection to the target's host, once per
// host. Failures are ignored; warm-up is purely an optimization to
// amortize TCP/TLS handshakes across the following probes.
func (c *Client) WarmUp(ctx context.Context, baseURL string) {
	host := hostOf(baseURL)
	if host == "" || !c.hosts.markWarming(host) {
		return
	}

	resp, err := c.roundTrip(ctx, http.MethodHead, baseURL, c.synthesizeHeaders(), warmupTimeout)
	if err != nil {
		gologger.Debug().Msgf("warm-up failed for %s: %v", host, err)
		return
	}
	resp.Body.Close()
}

// ThrottleDelay exposes the derived inter-request delay (30ms scaled by
// the current throttle factor) for schedulers that opt into pacing.
func (c *Client) ThrottleDelay() time.Duration {
	return c.hosts.throttleDelay()
}

// ThrottleFactor returns the current process-wide throttle factor.
func (c *Client) ThrottleFactor() float64 {
	return c.hosts.throttleFactor()
}

// roundTrip executes one request bounded by timeout (composed with any
// deadline already on ctx; the tighter bound governs).
func (c *Client) roundTrip(ctx context.Context, method, rawURL string, headers http.Header, timeout time.Duration) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for key, vals := range headers {
		for _, v := range vals {
			req.Header.Set(key, v)
		}
	}

	return c.http.Do(req)
}

func newDiscovery(rawURL string, status int, contentType string, contentLength int64, verified bool) *Discovery {
	d := &Discovery{
		URL:         rawURL,
		StatusCode:  status,
		ContentType: contentType,
		Verified:    verified,
	}
	if contentLength >= 0 {
		cl := contentLength
		d.ContentLength = &cl
	}
	return d
}

// resolveLocation resolves a possibly relative Location header against the
// probed URL. Returns "" when either side fails to parse or the header was
// empty.
func resolveLocation(base, location string) string {
	if location == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	loc, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(loc).String()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
