package utils_test

import (
	"errors"
	"testing"

	"github.com/phishsentry/phishsentry/internal/utils"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		opts utils.NormalizeOptions
		want string
	}{
		{in: "  Example.COM/login ", want: "http://example.com/login"},
		{in: "example.com", opts: utils.NormalizeOptions{DefaultScheme: "https"}, want: "https://example.com/"},
		{in: "HTTPS://Example.com:443/a?b=2&a=1#frag", want: "https://example.com/a?b=2&a=1"},
		{in: "http://example.com:80", want: "http://example.com/"},
		{in: "http://example.com:8080/x", want: "http://example.com:8080/x"},
		{in: "https://例え.テスト/a", want: "https://xn--r8jz45g.xn--zckzah/a"},
		{in: "http://192.168.0.1/paypal", want: "http://192.168.0.1/paypal"},
		{in: "http://user@evil.example/", want: "http://user@evil.example/"},
		{in: "http://example.com//redirect", want: "http://example.com//redirect"},
		{in: "evil.com/login?next=https://paypal.com", want: "http://evil.com/login?next=https://paypal.com"},
		{in: "example.com/r?u=http://x", want: "http://example.com/r?u=http://x"},
		{in: "//cdn.example.com/a", want: "http://cdn.example.com/a"},
	}

	for _, tt := range tests {
		got, err := utils.NormalizeURL(tt.in, tt.opts)
		if err != nil {
			t.Fatalf("NormalizeURL(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeURL_RejectsMalformed(t *testing.T) {
	t.Parallel()
	bad := []string{
		"",
		"   ",
		"ftp://example.com/file",
		"javascript:alert(1)",
		"http://",
		"http://exa mple.com",
		"http://example.com:99999/",
		"http://%zz/",
	}
	for _, in := range bad {
		_, err := utils.NormalizeURL(in, utils.NormalizeOptions{})
		if err == nil {
			t.Errorf("NormalizeURL(%q) succeeded, want error", in)
			continue
		}
		if !errors.Is(err, utils.ErrInvalidURL) {
			t.Errorf("NormalizeURL(%q) error %v does not wrap ErrInvalidURL", in, err)
		}
	}
}

func TestIsIPHost(t *testing.T) {
	t.Parallel()
	cases := map[string]bool{
		"192.168.0.1":  true,
		"::1":          true,
		"[2001:db8::1]": true,
		"3232235777":   true,
		"0xc0a80101":   true,
		"example.com":  false,
		"1example.com": false,
		"":             false,
	}
	for host, want := range cases {
		if got := utils.IsIPHost(host); got != want {
			t.Errorf("IsIPHost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestRegistrableDomainAndSubdomains(t *testing.T) {
	t.Parallel()
	cases := []struct {
		host       string
		registered string
		subdomains int
		suffix     string
	}{
		{"example.com", "example.com", 0, "com"},
		{"www.example.com", "example.com", 1, "com"},
		{"a.b.c.example.co.uk", "example.co.uk", 3, "co.uk"},
		{"paypal.com.secure-login.tk", "secure-login.tk", 2, "tk"},
		{"10.0.0.1", "10.0.0.1", 0, ""},
	}
	for _, tc := range cases {
		if got := utils.RegistrableDomain(tc.host); got != tc.registered {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", tc.host, got, tc.registered)
		}
		if got := utils.SubdomainCount(tc.host); got != tc.subdomains {
			t.Errorf("SubdomainCount(%q) = %d, want %d", tc.host, got, tc.subdomains)
		}
		if got := utils.PublicSuffix(tc.host); got != tc.suffix {
			t.Errorf("PublicSuffix(%q) = %q, want %q", tc.host, got, tc.suffix)
		}
	}
}

func TestSameSite(t *testing.T) {
	t.Parallel()
	if !utils.SameSite("cdn.example.com", "www.example.com") {
		t.Error("expected subdomains of example.com to be same-site")
	}
	if utils.SameSite("example.com", "example.org") {
		t.Error("expected different registrable domains to differ")
	}
	if utils.SameSite("", "example.com") {
		t.Error("empty host must never be same-site")
	}
}

func TestHostname(t *testing.T) {
	t.Parallel()
	if got := utils.Hostname("https://Login.Example.com:8443/x"); got != "login.example.com" {
		t.Errorf("Hostname = %q", got)
	}
}
