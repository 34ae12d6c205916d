package collab

import (
	"net"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// DomainFilter restricts the hosts a fetcher may contact. Entries are exact
// hostnames or glob patterns such as "*.example.com". An empty filter allows
// every host.
type DomainFilter struct {
	exact    map[string]bool
	patterns []glob.Glob
}

// NewDomainFilter compiles the allowed domains. Entries may be written as
// bare hosts or as URLs; only the hostname is kept.
func NewDomainFilter(domains []string) (*DomainFilter, error) {
	df := &DomainFilter{exact: make(map[string]bool)}
	for _, entry := range domains {
		host := normalizeHost(entry)
		if host == "" {
			continue
		}
		if !strings.ContainsAny(host, "*?[{") {
			df.exact[host] = true
			continue
		}
		g, err := glob.Compile(host, '.')
		if err != nil {
			return nil, errors.Wrapf(err, "invalid domain pattern %q", entry)
		}
		df.patterns = append(df.patterns, g)
	}
	return df, nil
}

// Empty reports whether no domain restriction is configured.
func (df *DomainFilter) Empty() bool {
	return df == nil || (len(df.exact) == 0 && len(df.patterns) == 0)
}

// IsAllowed reports whether the host of rawURL may be fetched. Loopback
// addresses are always allowed.
func (df *DomainFilter) IsAllowed(rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, err
	}
	host := strings.ToLower(parsed.Hostname())

	if df.Empty() || isLoopback(host) {
		return true, nil
	}
	if df.exact[host] {
		return true, nil
	}
	for _, p := range df.patterns {
		if p.Match(host) {
			return true, nil
		}
	}
	return false, nil
}

func normalizeHost(entry string) string {
	entry = strings.ToLower(strings.TrimSpace(entry))
	if entry == "" || strings.HasPrefix(entry, "#") {
		return ""
	}
	if !strings.Contains(entry, "://") {
		entry = "https://" + entry
	}
	// url.Parse rejects hosts containing glob characters, so strip by hand.
	entry = entry[strings.Index(entry, "://")+3:]
	if i := strings.IndexAny(entry, "/?#"); i >= 0 {
		entry = entry[:i]
	}
	if h, _, err := net.SplitHostPort(entry); err == nil {
		entry = h
	}
	return entry
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
