package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// ErrInvalidURL is returned (wrapped) for input that cannot be scanned.
var ErrInvalidURL = errors.New("invalid url")

// schemePrefix matches an explicit scheme at the start of the input only, so
// a "://" inside a query parameter does not count.
var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// NormalizeOptions controls URL normalization.
type NormalizeOptions struct {
	// DefaultScheme is prepended to scheme-less input. Empty means "http".
	DefaultScheme string
}

// NormalizeURL prepares user input for scanning: it trims whitespace, infers a
// scheme, lowercases scheme and host, converts IDN hosts to punycode, drops
// default ports and the fragment. Path, query and userinfo are preserved
// because their raw shape is what the pattern heuristics look at.
//
// Examples:
//
//	"  Example.COM/login "        -> "http://example.com/login"
//	"https://例え.テスト/a"         -> "https://xn--r8jz45g.xn--zckzah/a"
//	"https://example.com:443/#x"  -> "https://example.com/"
func NormalizeURL(raw string, opts NormalizeOptions) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", fmt.Errorf("%w: %q contains whitespace", ErrInvalidURL, raw)
	}

	scheme := opts.DefaultScheme
	if scheme == "" {
		scheme = "http"
	}
	if !schemePrefix.MatchString(raw) {
		raw = scheme + "://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}
	if net.ParseIP(host) == nil {
		puny, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: host %q: %v", ErrInvalidURL, host, err)
		}
		host = puny
	}

	port := u.Port()
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return "", fmt.Errorf("%w: bad port %q", ErrInvalidURL, port)
		}
	}
	switch {
	case port == "",
		u.Scheme == "http" && port == "80",
		u.Scheme == "https" && port == "443":
		if strings.Contains(host, ":") {
			u.Host = "[" + host + "]"
		} else {
			u.Host = host
		}
	default:
		u.Host = net.JoinHostPort(host, port)
	}

	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

// Hostname returns the lowercased host of rawURL without port, or "" if it
// cannot be parsed.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IsIPHost reports whether host is an IP literal, including the dotless
// decimal and hex forms ("3232235777", "0xc0a80101") browsers still accept.
func IsIPHost(host string) bool {
	host = strings.Trim(host, "[]")
	if net.ParseIP(host) != nil {
		return true
	}
	if host == "" {
		return false
	}
	if strings.HasPrefix(host, "0x") {
		_, err := strconv.ParseUint(host[2:], 16, 32)
		return err == nil
	}
	for _, r := range host {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, err := strconv.ParseUint(host, 10, 32)
	return err == nil
}

// RegistrableDomain returns the eTLD+1 for host ("login.paypal.co.uk" ->
// "paypal.co.uk"). IP literals and single-label hosts are returned as is.
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" || IsIPHost(host) {
		return host
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		parts := strings.Split(host, ".")
		if len(parts) < 2 {
			return host
		}
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return d
}

// PublicSuffix returns the effective TLD of host ("co.uk", "com", "tk").
func PublicSuffix(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" || IsIPHost(host) {
		return ""
	}
	suffix, _ := publicsuffix.PublicSuffix(host)
	return suffix
}

// SubdomainCount returns the number of labels in front of the registrable
// domain: "a.b.example.com" -> 2, "example.com" -> 0, IP literals -> 0.
func SubdomainCount(host string) int {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" || IsIPHost(host) {
		return 0
	}
	reg := RegistrableDomain(host)
	if reg == host {
		return 0
	}
	prefix := strings.TrimSuffix(host, "."+reg)
	if prefix == host {
		return 0
	}
	return strings.Count(prefix, ".") + 1
}

// SameSite reports whether two hosts share a registrable domain.
func SameSite(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return RegistrableDomain(a) == RegistrableDomain(b)
}
