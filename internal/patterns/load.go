package patterns

import (
	"fmt"
	"os"
	"strings"

	"github.com/projectdiscovery/gologger"
)

// DefaultPatterns returns the built-in pattern list used when no pattern
// file is supplied or the supplied file contains no usable lines.
func DefaultPatterns() []string {
	return []string{
		"backup.zip",
		"backup.tar.gz",
		"backup.sql",
		"backup.bak",
		"www.zip",
		"www.tar.gz",
		"site.zip",
		"site.tar.gz",
		"website.zip",
		"db.sql",
		"database.sql",
		"data.sql",
		"dump.sql",
		"backup.old",
		"backup.rar",
		"db.zip",
		"db.tar.gz",
	}
}

// Load reads a newline-delimited pattern file. Blank lines and lines
// starting with "#" are skipped and entries are deduplicated in order.
// An empty path or an empty file yields the default pattern list.
func Load(path string) ([]string, error) {
	if path == "" {
		return DefaultPatterns(), nil
	}

	lines, err := readLines(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file %s: %w", path, err)
	}
	if len(lines) == 0 {
		gologger.Debug().Msgf("pattern file %s had no usable lines, using defaults", path)
		return DefaultPatterns(), nil
	}
	gologger.Debug().Msgf("loaded %d patterns from %s", len(lines), path)
	return lines, nil
}

// LoadPlaceholders reads custom {domain} templates from a file, one per
// line, with the same comment and blank-line handling as Load.
func LoadPlaceholders(path string) ([]string, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, fmt.Errorf("reading placeholder file %s: %w", path, err)
	}
	return lines, nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw := strings.Split(string(data), "\n")
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out, nil
}
