package probe

import "strings"

// Suffix and substring catalogs for recognizing backup-artifact URLs.
// Matching is case-insensitive; a probe response is only ever promoted to
// a discovery when its URL matches this catalog.
var (
	backupSuffixes = []string{
		// Archives.
		".zip", ".rar", ".tar", ".tar.gz", ".7z",
		// Database dumps.
		".sql", ".sql.gz", ".sql.bz2", ".sqlite", ".sqlite3", ".db", ".mdb", ".dump",
		// Generic backup suffixes.
		".bak", ".old", ".backup", ".back", "_backup", "-backup",
		".copy", ".orig", ".original", ".txt",
		// Sensitive files.
		"/.git/config", "/.git/HEAD", "/.svn/entries", "/.env", "/.htpasswd",
		"/wp-config.php.bak", "/config.php.bak",
		// Temp files.
		".tmp", ".temp", ".swp", ".save", ".old.php",
	}

	backupSubstrings = []string{".config.", "/.git/", "/.svn/"}
)

// IsBackupPath reports whether a URL looks like a backup artifact per the
// suffix/substring catalog.
func IsBackupPath(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, s := range backupSuffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	for _, s := range backupSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// expectedContentType reports whether a Content-Type plausibly matches the
// URL's extension. A mismatch is advisory only: some servers mislabel
// archives, so the caller logs it and keeps the discovery.
func expectedContentType(rawURL, contentType string) bool {
	ct := strings.ToLower(contentType)
	u := strings.ToLower(rawURL)

	switch {
	case hasAnySuffix(u, ".zip", ".rar", ".7z"):
		return strings.Contains(ct, "application/")
	case hasAnySuffix(u, ".gz", ".tar", ".tar.gz", ".tgz"):
		return strings.Contains(ct, "application/")
	case hasAnySuffix(u, ".sql", ".sql.gz"):
		return strings.Contains(ct, "text/") ||
			strings.Contains(ct, "application/sql") ||
			strings.Contains(ct, "application/octet-stream")
	case hasAnySuffix(u, ".db", ".sqlite", ".mdb"):
		return strings.Contains(ct, "application/")
	case hasAnySuffix(u, ".bak", ".old") || strings.Contains(u, ".backup"):
		// Generic suffixes can be served as anything.
		return true
	}
	return hasAnySuffix(u, ".tmp", ".temp", ".swp", ".save", ".old.php")
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
