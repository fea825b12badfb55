package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backscan/backscan/internal/config"
	"github.com/backscan/backscan/internal/output"
)

func testOpts(t *testing.T, serverURL string) *config.Options {
	t.Helper()
	return &config.Options{
		Targets:      []string{serverURL},
		Threads:      3,
		Timeout:      5 * time.Second,
		Quiet:        true,
		NoColor:      true,
		OutputFile:   filepath.Join(t.TempDir(), "report.json"),
		OutputFormat: "json",
	}
}

func backupHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/backup.zip":
			w.Header().Set("Content-Type", "application/zip")
			w.Header().Set("Content-Length", "8192")
			w.WriteHeader(http.StatusOK)
		case "/database.sql":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func readReport(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	return report
}

func TestRunFindsBackups(t *testing.T) {
	srv := httptest.NewServer(backupHandler())
	defer srv.Close()

	opts := testOpts(t, srv.URL)
	require.NoError(t, Run(context.Background(), opts))

	report := readReport(t, opts.OutputFile)
	discoveries, ok := report["discoveries"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, discoveries)

	var urls []string
	for _, d := range discoveries {
		urls = append(urls, d.(map[string]any)["url"].(string))
	}
	assert.Contains(t, urls, srv.URL+"/backup.zip")
	assert.Contains(t, urls, srv.URL+"/database.sql")

	// Clean completion removes the incremental file.
	_, err := os.Stat(opts.OutputFile + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestRunHookFiresPerDiscovery(t *testing.T) {
	srv := httptest.NewServer(backupHandler())
	defer srv.Close()

	hookLog := filepath.Join(t.TempDir(), "hook.log")
	opts := testOpts(t, srv.URL)
	opts.HookCmd = "echo {status} {url} >> " + hookLog

	require.NoError(t, Run(context.Background(), opts))

	data, err := os.ReadFile(hookLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "200 "+srv.URL+"/backup.zip")
	assert.Contains(t, string(data), "403 "+srv.URL+"/database.sql")
}

func TestRunDeadlineTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	opts := testOpts(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	// The scan deadline truncates the result set; the run still succeeds
	// and writes the report.
	require.NoError(t, Run(ctx, opts))

	report := readReport(t, opts.OutputFile)
	assert.Contains(t, report, "run_id")
}

func TestRunNoTargets(t *testing.T) {
	opts := testOpts(t, "")
	opts.Targets = nil
	assert.Error(t, Run(context.Background(), opts))
}

func TestResolveTargetsCombinesSources(t *testing.T) {
	listPath := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(listPath, []byte("http://listed.example.com\n"), 0644))

	opts := &config.Options{
		Targets:    []string{"http://inline.example.com"},
		TargetFile: listPath,
		CIDR:       "10.0.0.5/32",
	}
	targets, err := resolveTargets(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"http://inline.example.com",
		"http://listed.example.com",
		"http://10.0.0.5",
	}, targets)
}

func TestResolveTargetsDetectsScheme(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "https://")

	// Inline arguments and target-list file lines both get HTTPS-first
	// detection for scheme-less entries.
	opts := &config.Options{Targets: []string{host}}
	targets, err := resolveTargets(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://" + host}, targets)

	listPath := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(listPath, []byte(host+"\n"), 0644))

	opts = &config.Options{TargetFile: listPath}
	targets, err = resolveTargets(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://" + host}, targets)
}

func TestBuildGeneratorWithExtraPatterns(t *testing.T) {
	opts := &config.Options{ExtraPatterns: []string{"staging", ".htpasswd"}}
	gen, err := buildGenerator(opts)
	require.NoError(t, err)

	assert.Contains(t, gen.Prefixes, "staging")
	assert.Contains(t, gen.FullPaths, ".htpasswd")
	// Built-in patterns are still present alongside the extras.
	assert.NotEmpty(t, gen.Placeholders)
}

func TestCreateWriterSorted(t *testing.T) {
	opts := &config.Options{OutputFormat: "csv", SortBy: "status", Quiet: true}
	w, err := createWriter(opts)
	require.NoError(t, err)
	assert.IsType(t, &output.SortedWriter{}, w)

	opts.SortBy = ""
	w, err = createWriter(opts)
	require.NoError(t, err)
	assert.IsType(t, &output.CSVWriter{}, w)

	opts.OutputFormat = "bogus"
	_, err = createWriter(opts)
	assert.Error(t, err)
}
