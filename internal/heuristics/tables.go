package heuristics

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tables is the static data the pattern heuristics consult. Every list is
// plain configuration so new entries do not need code changes.
type Tables struct {
	// SuspiciousTLDs are public suffixes frequently abused for phishing (no dot).
	SuspiciousTLDs []string `yaml:"suspicious_tlds"`

	// SecurityHeaders are lower-cased hardening headers; one is enough.
	SecurityHeaders []string `yaml:"security_headers"`

	// Brands maps a brand keyword to the registrable domains it owns.
	Brands map[string][]string `yaml:"brands"`

	Shorteners         []string `yaml:"shorteners"`
	SuspiciousKeywords []string `yaml:"suspicious_keywords"`
	CredentialKeywords []string `yaml:"credential_keywords"`
	UrgencyKeywords    []string `yaml:"urgency_keywords"`

	// ObfuscationSignatures are regular expressions matched against script
	// text and src attributes.
	ObfuscationSignatures []string `yaml:"obfuscation_signatures"`

	obfuscation []*regexp.Regexp
	tlds        map[string]struct{}
	shorteners  map[string]struct{}
}

// Default returns the built-in tables.
func Default() *Tables {
	t := &Tables{
		SuspiciousTLDs: []string{
			"tk", "ml", "ga", "cf", "gq", "xyz", "top", "zip", "mov", "country",
			"kim", "work", "click", "link", "loan", "men", "review", "rest",
			"cam", "buzz", "icu", "monster", "support", "fit", "su",
		},
		SecurityHeaders: []string{
			"content-security-policy",
			"strict-transport-security",
			"x-frame-options",
			"x-content-type-options",
			"referrer-policy",
			"permissions-policy",
		},
		Brands: map[string][]string{
			"paypal":        {"paypal.com", "paypal.me"},
			"apple":         {"apple.com", "icloud.com"},
			"microsoft":     {"microsoft.com", "live.com", "office.com", "microsoftonline.com", "outlook.com"},
			"office365":     {"office.com", "microsoft.com"},
			"google":        {"google.com", "gmail.com", "youtube.com"},
			"amazon":        {"amazon.com", "amazon.co.uk", "amazon.de"},
			"facebook":      {"facebook.com", "fb.com", "meta.com"},
			"instagram":     {"instagram.com"},
			"netflix":       {"netflix.com"},
			"chase":         {"chase.com"},
			"wellsfargo":    {"wellsfargo.com"},
			"bankofamerica": {"bankofamerica.com"},
			"dropbox":       {"dropbox.com"},
			"docusign":      {"docusign.com", "docusign.net"},
			"linkedin":      {"linkedin.com"},
			"coinbase":      {"coinbase.com"},
			"binance":       {"binance.com"},
			"dhl":           {"dhl.com", "dhl.de"},
			"github":        {"github.com"},
		},
		Shorteners: []string{
			"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly", "is.gd", "buff.ly",
			"rebrand.ly", "cutt.ly", "shorturl.at", "rb.gy", "t.ly", "tiny.cc",
		},
		SuspiciousKeywords: []string{
			"login", "signin", "sign-in", "verify", "verification", "account",
			"update", "secure", "banking", "confirm", "webscr", "password",
			"unlock", "wallet", "billing", "suspend",
		},
		CredentialKeywords: []string{
			"password", "passcode", "verify your account", "confirm your identity",
			"social security", "credit card", "card number", "cvv",
			"sign in", "log in", "login", "username", "one-time code",
		},
		UrgencyKeywords: []string{
			"urgent", "immediately", "suspended", "locked", "within 24 hours",
			"unusual activity", "unauthorized", "action required", "final notice",
			"verify now", "account will be closed",
		},
		ObfuscationSignatures: []string{
			`(?i)eval\s*\(`,
			`(?i)unescape\s*\(`,
			`(?i)atob\s*\(`,
			`(?i)string\.fromcharcode\s*\(`,
			`(?i)document\.write\s*\(\s*unescape`,
			`(\\x[0-9a-fA-F]{2}){8,}`,
			`(\\u[0-9a-fA-F]{4}){6,}`,
			`(%[0-9a-fA-F]{2}){10,}`,
			`(?i)\bp,a,c,k,e,[rd]\b`,
		},
	}
	if err := t.compile(); err != nil {
		panic(fmt.Sprintf("heuristics: default tables do not compile: %v", err))
	}
	return t
}

// LoadFile overlays the YAML file at path on top of Default(). Lists present
// in the file replace the default list; brand entries are merged by name.
func LoadFile(path string) (*Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read heuristics file: %w", err)
	}
	return Parse(raw)
}

// Parse is LoadFile for in-memory YAML.
func Parse(raw []byte) (*Tables, error) {
	var overlay Tables
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse heuristics yaml: %w", err)
	}

	t := Default()
	if overlay.SuspiciousTLDs != nil {
		t.SuspiciousTLDs = overlay.SuspiciousTLDs
	}
	if overlay.SecurityHeaders != nil {
		t.SecurityHeaders = overlay.SecurityHeaders
	}
	for brand, domains := range overlay.Brands {
		t.Brands[strings.ToLower(brand)] = domains
	}
	if overlay.Shorteners != nil {
		t.Shorteners = overlay.Shorteners
	}
	if overlay.SuspiciousKeywords != nil {
		t.SuspiciousKeywords = overlay.SuspiciousKeywords
	}
	if overlay.CredentialKeywords != nil {
		t.CredentialKeywords = overlay.CredentialKeywords
	}
	if overlay.UrgencyKeywords != nil {
		t.UrgencyKeywords = overlay.UrgencyKeywords
	}
	if overlay.ObfuscationSignatures != nil {
		t.ObfuscationSignatures = overlay.ObfuscationSignatures
	}

	if err := t.compile(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tables) compile() error {
	t.obfuscation = t.obfuscation[:0]
	for _, expr := range t.ObfuscationSignatures {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("obfuscation signature %q: %w", expr, err)
		}
		t.obfuscation = append(t.obfuscation, re)
	}

	t.tlds = make(map[string]struct{}, len(t.SuspiciousTLDs))
	for _, tld := range t.SuspiciousTLDs {
		t.tlds[strings.TrimPrefix(strings.ToLower(tld), ".")] = struct{}{}
	}
	t.shorteners = make(map[string]struct{}, len(t.Shorteners))
	for _, s := range t.Shorteners {
		t.shorteners[strings.ToLower(s)] = struct{}{}
	}
	for i, h := range t.SecurityHeaders {
		t.SecurityHeaders[i] = strings.ToLower(h)
	}
	return nil
}

// IsSuspiciousTLD reports whether the public suffix (or its last label) is
// in the abused-TLD set.
func (t *Tables) IsSuspiciousTLD(suffix string) bool {
	suffix = strings.ToLower(suffix)
	if _, ok := t.tlds[suffix]; ok {
		return true
	}
	if i := strings.LastIndexByte(suffix, '.'); i >= 0 {
		_, ok := t.tlds[suffix[i+1:]]
		return ok
	}
	return false
}

// IsShortener reports whether host is a known link-shortening service.
func (t *Tables) IsShortener(host string) bool {
	_, ok := t.shorteners[strings.TrimPrefix(strings.ToLower(host), "www.")]
	return ok
}

// IsObfuscated reports whether script text matches any obfuscation signature.
func (t *Tables) IsObfuscated(script string) bool {
	return t.CountObfuscation(script) > 0
}

// CountObfuscation returns how many distinct signatures match script.
func (t *Tables) CountObfuscation(script string) int {
	n := 0
	for _, re := range t.obfuscation {
		if re.MatchString(script) {
			n++
		}
	}
	return n
}

// BrandOwns reports whether registrable domain belongs to brand.
func (t *Tables) BrandOwns(brand, registrable string) bool {
	for _, d := range t.Brands[brand] {
		if d == registrable {
			return true
		}
	}
	return false
}

// OwnedByAnyBrand reports whether registrable is an official domain of any brand.
func (t *Tables) OwnedByAnyBrand(registrable string) bool {
	for brand := range t.Brands {
		if t.BrandOwns(brand, registrable) {
			return true
		}
	}
	return false
}
