package patterns

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"www.example.com", "example"},
		{"example.com", "example"},
		{"www.example.co.uk", "example"},
		{"sub.site.example.com.au", "example"},
		{"192.168.1.1", "192.168.1.1"},
		{"localhost", "localhost"},
		{"example.co.uk", "example.co.uk"}, // 3 labels, heuristic needs 4
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractDomain(tt.host), "host %q", tt.host)
	}
}

func TestGenerateNoDuplicates(t *testing.T) {
	g := NewGenerator()
	g.AddPatterns([]string{"backup", "bak", ".env", "wp-config.php.bak"})

	set, err := g.Generate("http://example.com")
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, u := range set.All() {
		_, dup := seen[u]
		assert.False(t, dup, "duplicate candidate %q", u)
		seen[u] = struct{}{}
	}
}

func TestGenerateTiersDisjoint(t *testing.T) {
	g := NewGenerator()
	g.AddPatterns([]string{"backup", "bak"})

	set, err := g.Generate("http://example.com")
	require.NoError(t, err)
	require.NotEmpty(t, set.Root)
	require.NotEmpty(t, set.Dir)

	root := make(map[string]struct{}, len(set.Root))
	for _, u := range set.Root {
		root[u] = struct{}{}
	}
	for _, u := range set.Dir {
		_, overlap := root[u]
		assert.False(t, overlap, "candidate %q present in both tiers", u)
	}
}

func TestGenerateDirTierNestsOneSegmentDeeper(t *testing.T) {
	g := NewGenerator()
	g.AddPatterns([]string{"backup"})

	set, err := g.Generate("http://example.com")
	require.NoError(t, err)

	base := "http://example.com/"
	for _, u := range set.Root {
		rel := strings.TrimPrefix(u, base)
		assert.Equal(t, 1, strings.Count(rel, "/")+1, "root candidate %q should have one segment", u)
	}
	for _, u := range set.Dir {
		rel := strings.TrimPrefix(u, base)
		assert.Equal(t, 2, strings.Count(rel, "/")+1, "dir candidate %q should have two segments", u)
	}
}

func TestGenerateDefaultsIncludeKnownCandidates(t *testing.T) {
	g := NewGenerator()
	g.AddPatterns([]string{"backup"})

	set, err := g.Generate("http://example.com")
	require.NoError(t, err)

	all := set.All()
	assert.Contains(t, all, "http://example.com/backup.zip")
	assert.Contains(t, all, "http://example.com/backup/backup.zip")
	assert.Contains(t, all, "http://example.com/example.zip")
	assert.Contains(t, all, "http://example.com/backups/www.tar.gz")
	assert.Contains(t, set.Root, "http://example.com/backup.zip")
	assert.Contains(t, set.Dir, "http://example.com/backup/backup.zip")
}

func TestGenerateDottedPrefixUncombined(t *testing.T) {
	g := NewGenerator()
	g.AddPatterns([]string{"backup.zip"})

	set, err := g.Generate("http://example.com")
	require.NoError(t, err)

	assert.Contains(t, set.Root, "http://example.com/backup.zip")
	// A dotted prefix must never be re-combined with the suffix catalog.
	assert.NotContains(t, set.Root, "http://example.com/backup.zip.rar")
	assert.NotContains(t, set.Root, "http://example.com/backup.zip.zip")
}

func TestGenerateFullPathDotlessVariantInDirs(t *testing.T) {
	g := NewGenerator()
	g.AddPatterns([]string{".env"})

	set, err := g.Generate("http://example.com")
	require.NoError(t, err)

	assert.Contains(t, set.Root, "http://example.com/.env")
	assert.Contains(t, set.Dir, "http://example.com/backup/.env")
	assert.Contains(t, set.Dir, "http://example.com/backup/env")
}

func TestGenerateDomainVariants(t *testing.T) {
	g := NewGenerator()

	set, err := g.Generate("https://www.my-site.com")
	require.NoError(t, err)

	all := set.All()
	assert.Contains(t, all, "https://www.my-site.com/my-site.zip")
	assert.Contains(t, all, "https://www.my-site.com/backup-my-site.zip")
	assert.Contains(t, all, "https://www.my-site.com/my-site_old.tar.gz")
	// Alphanumeric-stripped variant.
	assert.Contains(t, all, "https://www.my-site.com/mysite.zip")
}

func TestGenerateInvalidTarget(t *testing.T) {
	g := NewGenerator()
	_, err := g.Generate("://not-a-url")
	assert.Error(t, err)

	_, err = g.Generate("http://")
	assert.Error(t, err)
}

func TestGenerateSimpleFallback(t *testing.T) {
	urls := GenerateSimple("http://example.com", []string{"backup.zip", "db.sql"})

	assert.Contains(t, urls, "http://example.com/backup.zip")
	assert.Contains(t, urls, "http://example.com/backup/db.sql")
	assert.Contains(t, urls, "http://example.com/old/backup.zip")

	assert.Empty(t, GenerateSimple("://bad", []string{"x"}))
}

func TestLoadClassification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.txt")
	content := "# comment\nbackup\n\n.env\nadmin/dump.sql\nbak\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lines, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"backup", ".env", "admin/dump.sql", "bak"}, lines)

	g := NewGenerator()
	g.AddPatterns(lines)
	assert.Equal(t, []string{"backup", "bak"}, g.Prefixes)
	assert.Equal(t, []string{".env", "admin/dump.sql"}, g.FullPaths)
}

func TestLoadEmptyFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.txt")
	require.NoError(t, os.WriteFile(path, []byte("# only comments\n\n"), 0644))

	lines, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPatterns(), lines)

	lines, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPatterns(), lines)
}
