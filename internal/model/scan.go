package model

import "time"

// ScanResult is the outcome of scanning a single URL. One is created per scan
// attempt and never mutated after the scanner returns it.
type ScanResult struct {
	// URL is the final (post-redirect) URL.
	URL string `json:"url"`

	// RequestedURL is the normalized URL the scan started from.
	RequestedURL string `json:"requested_url"`

	// Accessible reports whether a response was obtained within the timeout.
	Accessible bool `json:"accessible"`

	// StatusCode is the terminal HTTP status; nil when unreachable.
	StatusCode *int `json:"status_code,omitempty"`

	// ResponseTime is the wall-clock latency in seconds across all hops.
	ResponseTime float64 `json:"response_time"`

	// Redirects holds one entry per redirect hop in traversal order.
	Redirects []Redirect `json:"redirects"`

	// ContentAnalysis is present only when an HTML body was retrieved and parsed.
	ContentAnalysis *ContentAnalysis `json:"content_analysis,omitempty"`

	// SecurityIndicators is always present once a request was attempted.
	SecurityIndicators *SecurityIndicators `json:"security_indicators,omitempty"`

	PatternAnalysis PatternAnalysis `json:"pattern_analysis"`

	// Error is a short reason when the URL was unreachable.
	Error string `json:"error,omitempty"`

	ScannedAt time.Time `json:"scanned_at"`
}

// Redirect is one 3xx hop.
type Redirect struct {
	Status int    `json:"status"`
	To     string `json:"to"`
}

// ContentAnalysis summarizes the structure of the terminal HTML page.
type ContentAnalysis struct {
	Title             string `json:"title"`
	HasForms          bool   `json:"has_forms"`
	LoginForms        int    `json:"login_forms"`
	ExternalLinks     int    `json:"external_links"`
	SuspiciousScripts int    `json:"suspicious_scripts"`
	IframeCount       int    `json:"iframe_count"`
}

type SecurityIndicators struct {
	HTTPS              bool `json:"https"`
	HasSecurityHeaders bool `json:"has_security_headers"`
	URLLength          int  `json:"url_length"`
	SubdomainCount     int  `json:"subdomain_count"`
	SuspiciousTLD      bool `json:"suspicious_tld"`
}

// PatternAnalysis holds named indicators. Boolean indicators are stored as
// 0 or 1; counting indicators hold the count.
type PatternAnalysis struct {
	URLPatterns     map[string]int `json:"url_patterns"`
	ContentPatterns map[string]int `json:"content_patterns"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
