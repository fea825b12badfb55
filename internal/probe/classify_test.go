package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBackupPath(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.com/backup.zip", true},
		{"http://example.com/site.tar.gz", true},
		{"http://example.com/dump.sql", true},
		{"http://example.com/db.sqlite3", true},
		{"http://example.com/index.php.bak", true},
		{"http://example.com/wp-config.php.bak", true},
		{"http://example.com/.env", true},
		{"http://example.com/.git/config", true},
		{"http://example.com/.git/objects/ab", true},
		{"http://example.com/app.config.old", true},
		{"http://example.com/BACKUP.ZIP", true},
		{"http://example.com/index.html", false},
		{"http://example.com/", false},
		{"http://example.com/api/users", false},
		{"http://example.com/style.css", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsBackupPath(tt.url), "url %q", tt.url)
	}
}

func TestExpectedContentType(t *testing.T) {
	assert.True(t, expectedContentType("http://x/b.zip", "application/zip"))
	assert.True(t, expectedContentType("http://x/b.zip", "application/octet-stream"))
	assert.False(t, expectedContentType("http://x/b.zip", "text/html"))

	assert.True(t, expectedContentType("http://x/d.sql", "text/plain"))
	assert.True(t, expectedContentType("http://x/d.sql", "application/octet-stream"))
	assert.False(t, expectedContentType("http://x/d.sql", "image/png"))

	// Generic suffixes accept anything.
	assert.True(t, expectedContentType("http://x/index.php.bak", "text/html"))
	assert.True(t, expectedContentType("http://x/site.old", "application/foo"))
}
