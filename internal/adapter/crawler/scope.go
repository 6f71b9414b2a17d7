package crawler

import (
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ScopeRule decides whether a URL may be crawled: it must start with the
// domain prefix, carry the locale segment ("/en/" anywhere or a trailing
// "/en"), and its path must not match any exclude glob.
//
// The prefix must end on a URL boundary: "https://example.test" matches
// "https://example.test/en" but not "https://example.test.evil.com/en".
type ScopeRule struct {
	prefix   string
	locale   string
	excludes []string
}

// NewScopeRule creates a rule. An empty locale disables the locale check.
func NewScopeRule(prefix, locale string, excludes []string) *ScopeRule {
	return &ScopeRule{
		prefix:   prefix,
		locale:   strings.Trim(locale, "/"),
		excludes: excludes,
	}
}

// Allows reports whether rawURL is in scope.
func (r *ScopeRule) Allows(rawURL string) bool {
	if !hasBoundedPrefix(rawURL, r.prefix) {
		return false
	}
	if r.locale != "" {
		segment := "/" + r.locale
		if !strings.Contains(rawURL, segment+"/") && !strings.HasSuffix(rawURL, segment) {
			return false
		}
	}
	if len(r.excludes) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return false
		}
		path := strings.TrimPrefix(u.Path, "/")
		for _, pattern := range r.excludes {
			if matched, err := doublestar.Match(pattern, path); err == nil && matched {
				return false
			}
		}
	}
	return true
}

// hasBoundedPrefix reports whether s starts with prefix and the prefix is
// followed by a path, query or fragment delimiter (or nothing).
func hasBoundedPrefix(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	if len(s) == len(prefix) || prefix == "" || strings.HasSuffix(prefix, "/") {
		return true
	}
	switch s[len(prefix)] {
	case '/', '?', '#':
		return true
	}
	return false
}
