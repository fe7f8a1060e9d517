// Package urlguard classifies job posting URLs as fetchable or rejected.
// Validation is pure string and address analysis: no DNS lookup, no dial.
// The fetcher repeats the address check at dial time against resolved IPs.
package urlguard

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// MaxURLLength caps accepted URLs (browser limit).
const MaxURLLength = 2048

// Reason identifies why a URL was rejected.
type Reason string

// Rejection reasons, in the order rules are evaluated.
const (
	ReasonMalformed      Reason = "malformed"
	ReasonScheme         Reason = "scheme"
	ReasonMissingHost    Reason = "missing_host"
	ReasonLocalHost      Reason = "local_host"
	ReasonPrivateAddress Reason = "private_address"
	ReasonTooLong        Reason = "too_long"
)

// Rejection is returned by Validate for any URL that must not be fetched.
type Rejection struct {
	Reason Reason
	URL    string
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("url rejected (%s)", r.Reason)
	}
	return fmt.Sprintf("url rejected (%s): %s", r.Reason, r.Detail)
}

// Reserved ranges the stdlib helpers do not cover.
var (
	cgnat    = netip.MustParsePrefix("100.64.0.0/10")
	v6unique = netip.MustParsePrefix("fc00::/7")
)

// Validate returns nil when rawURL may be fetched, or a *Rejection.
// Malformed input is a rejection, never a panic.
func Validate(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return reject(ReasonMalformed, rawURL, "empty URL")
	}
	if strings.ContainsAny(trimmed, "\x00\r\n\t") {
		return reject(ReasonMalformed, rawURL, "control characters in URL")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return reject(ReasonMalformed, rawURL, err.Error())
	}

	// Rule 1: scheme. url.Parse lowercases the scheme.
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		scheme := parsed.Scheme
		if scheme == "" {
			scheme = "none"
		}
		return reject(ReasonScheme, rawURL, fmt.Sprintf("scheme %q not allowed", scheme))
	}

	// Rule 2: host.
	if err := checkHost(parsed); err != nil {
		err.URL = truncate(rawURL)
		return err
	}

	// Rule 3: length.
	if len(rawURL) > MaxURLLength {
		return reject(ReasonTooLong, truncate(rawURL), fmt.Sprintf("%d characters (max %d)", len(rawURL), MaxURLLength))
	}

	return nil
}

func checkHost(parsed *url.URL) *Rejection {
	if parsed.Opaque != "" || parsed.Host == "" {
		return &Rejection{Reason: ReasonMissingHost, Detail: "URL has no host"}
	}
	if parsed.User != nil {
		return &Rejection{Reason: ReasonMalformed, Detail: "credentials in URL are not allowed"}
	}

	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	if host == "" {
		return &Rejection{Reason: ReasonMissingHost, Detail: "URL has no host"}
	}

	if host == "localhost" || strings.HasSuffix(host, ".localhost") ||
		strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return &Rejection{Reason: ReasonLocalHost, Detail: fmt.Sprintf("host %q is local", host)}
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if IsPrivateAddr(addr) {
			return &Rejection{Reason: ReasonPrivateAddress, Detail: fmt.Sprintf("address %s is not public", addr)}
		}
		return nil
	}

	// Hosts like 2130706433 or 0x7f.1 are not valid literals for netip but
	// some resolvers still map them to loopback.
	if isNumericHost(host) {
		return &Rejection{Reason: ReasonPrivateAddress, Detail: fmt.Sprintf("ambiguous numeric host %q", host)}
	}

	return nil
}

// IsPrivateAddr reports whether addr is loopback, private, link-local,
// unspecified, CGNAT or IPv6 unique-local. IPv4-mapped IPv6 addresses are
// unmapped first.
func IsPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap().WithZone("")
	switch {
	case addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsUnspecified():
		return true
	}
	return cgnat.Contains(addr) || v6unique.Contains(addr)
}

// isNumericHost matches dotted or undotted decimal, octal or hex host forms.
func isNumericHost(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			continue
		}
		digits := label
		if strings.HasPrefix(digits, "0x") {
			digits = digits[2:]
			if digits == "" {
				return false
			}
			for _, r := range digits {
				if !strings.ContainsRune("0123456789abcdef", r) {
					return false
				}
			}
			continue
		}
		for _, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func reject(reason Reason, rawURL, detail string) *Rejection {
	return &Rejection{Reason: reason, URL: truncate(rawURL), Detail: detail}
}

// truncate keeps rejections of pathological inputs small enough to log.
func truncate(s string) string {
	const keep = 120
	if len(s) <= keep {
		return s
	}
	return s[:keep] + "..."
}
