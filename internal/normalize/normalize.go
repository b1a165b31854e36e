// Package normalize canonicalizes raw domain strings into the hostnames
// used as deduplication keys for a scan run.
package normalize

import (
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidDomain = errors.New("invalid domain")

// Hostname reduces a raw entry (bare domain, www-prefixed domain or full
// URL) to a canonical hostname: no scheme, no path, no leading "www."
// label, lower-cased. Exactly one www label is stripped; other subdomains
// are kept, so "api.example.gov" stays distinct from "example.gov".
func Hostname(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidDomain
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return "", ErrInvalidDomain
		}
		s = u.Host
	} else {
		// Bare entries may still carry a path or query tail.
		if i := strings.IndexAny(s, "/?#"); i >= 0 {
			s = s[:i]
		}
	}
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}

	s = strings.ToLower(strings.TrimSuffix(s, "."))
	s = strings.TrimPrefix(s, "www.")
	if s == "" || strings.ContainsAny(s, " \t") {
		return "", ErrInvalidDomain
	}

	return s, nil
}

// secondLevelLabels are common registry second-level labels; a host like
// foo.example.co.uk keys to example.co.uk rather than co.uk.
var secondLevelLabels = map[string]struct{}{
	"co": {}, "com": {}, "org": {}, "net": {}, "gov": {}, "ac": {}, "edu": {},
}

// BaseDomain extracts the registrable-ish base domain from a full URL.
// It is the scan key for skipping hostnames that redirect to an already
// scanned site. Returns "" when the URL has no usable host.
func BaseDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}

	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		if _, ok := secondLevelLabels[parts[len(parts)-2]]; ok {
			return strings.Join(parts[len(parts)-3:], ".")
		}
	}
	if len(parts) > 1 {
		return strings.Join(parts[len(parts)-2:], ".")
	}

	return host
}
