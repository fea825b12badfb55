// Package patterns generates candidate backup-artifact URLs for a target.
//
// Candidates are produced in two tiers: root-tier URLs directly under the
// site root, and directory-tier URLs nested one segment deeper under the
// configured backup directories. Root-tier candidates are always emitted
// before directory-tier ones; the scanner relies on that partition for
// phased dispatch.
package patterns

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Suffixes is the fixed catalog of archive suffixes combined with
// prefixes, the domain token, and domain variants.
var Suffixes = []string{".rar", ".zip", ".tar.gz", ".tar", ".7z", ".bak"}

// genericNames are common basenames probed inside backup directories.
var genericNames = []string{"backup", "site", "www", "web", "database", "db"}

var defaultBackupDirs = []string{"backup", "backups"}

var defaultPlaceholders = []string{
	"{domain}",
	"backup-{domain}",
	"{domain}-backup",
	"bak-{domain}",
	"{domain}-bak",
	"www-{domain}",
	"{domain}-old",
	"old-{domain}",
	"{domain}-archive",
	"archive-{domain}",
	"{domain}_backup",
	"backup_{domain}",
	"{domain}_bak",
	"bak_{domain}",
	"{domain}_old",
	"old_{domain}",
	"{domain}_archive",
	"archive_{domain}",
}

// Generator builds candidate URL sets from configured patterns.
type Generator struct {
	Prefixes     []string // combined with Suffixes unless they contain a dot
	FullPaths    []string // appended verbatim, never combined
	Placeholders []string // templates with a {domain} token
	BackupDirs   []string // directory names for the directory tier
}

// NewGenerator returns a Generator with the default placeholder templates
// and backup directory names, and no patterns loaded.
func NewGenerator() *Generator {
	return &Generator{
		Placeholders: append([]string(nil), defaultPlaceholders...),
		BackupDirs:   append([]string(nil), defaultBackupDirs...),
	}
}

// AddPatterns classifies raw pattern lines into prefixes and full paths.
// A line starting with "." or containing "/" is a full path; anything else
// is a combinable prefix.
func (g *Generator) AddPatterns(lines []string) {
	for _, line := range lines {
		if strings.HasPrefix(line, ".") || strings.Contains(line, "/") {
			g.FullPaths = append(g.FullPaths, line)
		} else {
			g.Prefixes = append(g.Prefixes, line)
		}
	}
}

// AddPlaceholders appends custom {domain} templates.
func (g *Generator) AddPlaceholders(templates []string) {
	g.Placeholders = append(g.Placeholders, templates...)
}

// CandidateSet is a deduplicated, tier-partitioned set of candidate URLs.
// Root and Dir are disjoint; Root is always dispatched first.
type CandidateSet struct {
	Root []string
	Dir  []string
}

// All returns root-tier candidates followed by directory-tier candidates.
func (s *CandidateSet) All() []string {
	out := make([]string, 0, len(s.Root)+len(s.Dir))
	out = append(out, s.Root...)
	out = append(out, s.Dir...)
	return out
}

// Len returns the total number of candidates across both tiers.
func (s *CandidateSet) Len() int {
	return len(s.Root) + len(s.Dir)
}

// Generate produces the candidate set for a target base URL. It fails with
// a configuration error when the target does not parse; callers may fall
// back to GenerateSimple instead of aborting the scan.
func (g *Generator) Generate(target string) (*CandidateSet, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q: missing host", target)
	}

	domain := ExtractDomain(u.Hostname())
	base := u.Scheme + "://" + u.Host

	set := &CandidateSet{}
	seen := make(map[string]struct{})
	add := func(tier *[]string, candidate string) {
		if _, ok := seen[candidate]; ok {
			return
		}
		seen[candidate] = struct{}{}
		*tier = append(*tier, candidate)
	}

	g.generateRoot(base, domain, func(c string) { add(&set.Root, c) })
	g.generateDirs(base, domain, func(c string) { add(&set.Dir, c) })

	return set, nil
}

func (g *Generator) generateRoot(base, domain string, add func(string)) {
	// Full paths go in verbatim.
	for _, p := range g.FullPaths {
		add(base + "/" + p)
	}

	// Prefixes combine with every suffix; a prefix that already carries a
	// dot (e.g. "backup.zip") is used as-is.
	for _, prefix := range g.Prefixes {
		if strings.Contains(prefix, ".") {
			add(base + "/" + prefix)
			continue
		}
		for _, suffix := range Suffixes {
			add(base + "/" + prefix + suffix)
		}
	}

	// The domain token itself, then its variants.
	for _, suffix := range Suffixes {
		add(base + "/" + domain + suffix)
	}
	for _, variant := range g.domainVariants(domain) {
		for _, suffix := range Suffixes {
			add(base + "/" + variant + suffix)
		}
	}
}

func (g *Generator) generateDirs(base, domain string, add func(string)) {
	for _, dir := range g.BackupDirs {
		prefix := base + "/" + dir + "/"

		for _, suffix := range Suffixes {
			add(prefix + domain + suffix)
		}

		for _, name := range genericNames {
			for _, suffix := range Suffixes {
				add(prefix + name + suffix)
			}
		}

		for _, p := range g.Prefixes {
			if strings.Contains(p, ".") {
				add(prefix + p)
				continue
			}
			for _, suffix := range Suffixes {
				add(prefix + p + suffix)
			}
		}

		for _, p := range g.FullPaths {
			// Dotfiles also get a dotless variant under backup dirs.
			if strings.HasPrefix(p, ".") {
				if bare := strings.TrimLeft(p, "."); bare != "" {
					add(prefix + bare)
				}
			}
			add(prefix + p)
		}

		for _, variant := range g.domainVariants(domain) {
			for _, suffix := range Suffixes {
				add(prefix + variant + suffix)
			}
		}
	}
}

// domainVariants expands the domain token through the placeholder templates
// and appends a stripped alphanumeric-only variant when it differs.
func (g *Generator) domainVariants(domain string) []string {
	variants := make([]string, 0, len(g.Placeholders)+2)
	variants = append(variants, domain)
	for _, tmpl := range g.Placeholders {
		variants = append(variants, strings.ReplaceAll(tmpl, "{domain}", domain))
	}

	var clean strings.Builder
	for _, r := range domain {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			clean.WriteRune(r)
		}
	}
	if c := clean.String(); c != domain {
		variants = append(variants, c)
	}

	return variants
}

// GenerateSimple is the fallback generator used when the full generator
// cannot parse a target: plain pattern x backup-directory combination
// without domain-variant expansion.
func GenerateSimple(target string, rawPatterns []string) []string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil
	}
	base := u.Scheme + "://" + u.Host

	dirs := []string{"backup", "bak", "old", "archive", "db", "data"}
	urls := make([]string, 0, len(rawPatterns)*(len(dirs)+1))
	for _, p := range rawPatterns {
		urls = append(urls, base+"/"+p)
	}
	for _, dir := range dirs {
		for _, p := range rawPatterns {
			urls = append(urls, base+"/"+dir+"/"+p)
		}
	}
	return urls
}

// ExtractDomain pulls the registrable label out of a hostname for use as
// the domain token. IP addresses are returned verbatim. For hostnames the
// second-to-last label is used, except when it looks like a compound TLD
// (label of <=3 chars with at least 4 labels total, e.g. www.example.co.uk),
// in which case the third-from-last label is taken.
func ExtractDomain(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		if len(parts) > 2 && len(parts[len(parts)-2]) <= 3 {
			if len(parts) > 3 {
				return parts[len(parts)-3]
			}
		} else {
			return parts[len(parts)-2]
		}
	}
	return host
}
