package target

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com", "http://example.com", false},
		{"http://example.com/", "http://example.com", false},
		{"http://Example.COM/path?q=1", "http://example.com", false},
		{"http://example.com:80", "http://example.com", false},
		{"https://example.com:443", "https://example.com", false},
		{"http://example.com:8080", "http://example.com:8080", false},
		{"https://example.com", "https://example.com", false},
		{"", "", true},
		{"ftp://example.com", "", true},
		{"http://", "", true},
	}

	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestLoadCombinesAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.txt")
	content := "# staging hosts\nexample.com\nhttp://example.com/\n\nother.example.org:8080\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	targets, err := Load(context.Background(), path, []string{"https://first.example.net", "example.com"}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://first.example.net",
		"http://example.com",
		"http://other.example.org:8080",
	}, targets)
}

func TestLoadSkipsInvalidEntries(t *testing.T) {
	targets, err := Load(context.Background(), "", []string{"example.com", "ftp://nope", ""}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com"}, targets)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/targets.txt", nil, false)
	assert.Error(t, err)
}

func TestLoadDetectsSchemeForFileEntries(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "https://")

	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte(host+"\n"), 0644))

	// File entries get the same HTTPS-first detection as inline ones;
	// entries that already carry a scheme are left alone.
	targets, err := Load(context.Background(), path, []string{"http://" + host}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://" + host, "https://" + host}, targets)
}

func TestDetectScheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	assert.Equal(t, "http", DetectScheme(context.Background(), host))

	tlsSrv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer tlsSrv.Close()

	tlsHost := strings.TrimPrefix(tlsSrv.URL, "https://")
	assert.Equal(t, "https", DetectScheme(context.Background(), tlsHost))

	// Nothing listening: fall back to http.
	assert.Equal(t, "http", DetectScheme(context.Background(), "127.0.0.1:1"))
}

func TestExpandCIDR(t *testing.T) {
	urls, err := ExpandCIDR("192.168.1.0/30", "", "http")
	require.NoError(t, err)
	// /30 keeps network and broadcast skipping off (bits-ones <= 1 is
	// false here, so .0 and .3 are skipped).
	assert.Equal(t, []string{"http://192.168.1.1", "http://192.168.1.2"}, urls)
}

func TestExpandCIDRSingleIP(t *testing.T) {
	urls, err := ExpandCIDR("10.0.0.5", "8080,8443", "http")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://10.0.0.5:8080", "http://10.0.0.5:8443"}, urls)
}

func TestExpandCIDRDefaultPortOmitted(t *testing.T) {
	urls, err := ExpandCIDR("10.0.0.5/32", "", "https")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://10.0.0.5"}, urls)
}

func TestExpandCIDRInvalid(t *testing.T) {
	_, err := ExpandCIDR("not-a-cidr", "", "http")
	assert.Error(t, err)
}
