package assessor

import "github.com/phishsentry/phishsentry/internal/heuristics"

// Weights are the per-signal contributions of each sub-score. Defaults are
// dyadic fractions so sums are exact in float64.
type Weights struct {
	// base
	Unreachable         float64 `yaml:"unreachable" json:"unreachable"`
	FastResponse        float64 `yaml:"fast_response" json:"fast_response"`
	FastResponseSeconds float64 `yaml:"fast_response_seconds" json:"fast_response_seconds"`
	ClientError         float64 `yaml:"client_error" json:"client_error"`
	ServerError         float64 `yaml:"server_error" json:"server_error"`
	ManyRedirects       float64 `yaml:"many_redirects" json:"many_redirects"`
	ManyRedirectsMin    int     `yaml:"many_redirects_min" json:"many_redirects_min"`
	CrossDomainRedirect float64 `yaml:"cross_domain_redirect" json:"cross_domain_redirect"`

	// content
	LoginForm            float64 `yaml:"login_form" json:"login_form"`
	ExternalLinks        float64 `yaml:"external_links" json:"external_links"`
	ExternalLinksMin     int     `yaml:"external_links_min" json:"external_links_min"`
	ExternalLinksMany    float64 `yaml:"external_links_many" json:"external_links_many"`
	ExternalLinksManyMin int     `yaml:"external_links_many_min" json:"external_links_many_min"`
	SuspiciousScript     float64 `yaml:"suspicious_script" json:"suspicious_script"`
	Iframes              float64 `yaml:"iframes" json:"iframes"`
	IframesMany          float64 `yaml:"iframes_many" json:"iframes_many"`
	IframesManyMin       int     `yaml:"iframes_many_min" json:"iframes_many_min"`
	FormsWithoutLogin    float64 `yaml:"forms_without_login" json:"forms_without_login"`

	// security
	NoHTTPS           float64 `yaml:"no_https" json:"no_https"`
	NoSecurityHeaders float64 `yaml:"no_security_headers" json:"no_security_headers"`
	LongURL           float64 `yaml:"long_url" json:"long_url"`
	LongURLMin        int     `yaml:"long_url_min" json:"long_url_min"`
	VeryLongURL       float64 `yaml:"very_long_url" json:"very_long_url"`
	VeryLongURLMin    int     `yaml:"very_long_url_min" json:"very_long_url_min"`
	ManySubdomains    float64 `yaml:"many_subdomains" json:"many_subdomains"`
	ManySubdomainsMin int     `yaml:"many_subdomains_min" json:"many_subdomains_min"`
	SuspiciousTLD     float64 `yaml:"suspicious_tld" json:"suspicious_tld"`

	// pattern, per fired indicator
	PatternHigh   float64 `yaml:"pattern_high" json:"pattern_high"`
	PatternMedium float64 `yaml:"pattern_medium" json:"pattern_medium"`
	PatternLow    float64 `yaml:"pattern_low" json:"pattern_low"`
}

func DefaultWeights() Weights {
	return Weights{
		Unreachable:         2.0,
		FastResponse:        0.5,
		FastResponseSeconds: 0.05,
		ClientError:         1.0,
		ServerError:         1.0,
		ManyRedirects:       1.0,
		ManyRedirectsMin:    3,
		CrossDomainRedirect: 0.5,

		LoginForm:            1.5,
		ExternalLinks:        0.5,
		ExternalLinksMin:     5,
		ExternalLinksMany:    1.0,
		ExternalLinksManyMin: 20,
		SuspiciousScript:     0.75,
		Iframes:              0.5,
		IframesMany:          1.0,
		IframesManyMin:       3,
		FormsWithoutLogin:    0.25,

		NoHTTPS:           1.0,
		NoSecurityHeaders: 0.5,
		LongURL:           0.25,
		LongURLMin:        76,
		VeryLongURL:       0.5,
		VeryLongURLMin:    101,
		ManySubdomains:    0.5,
		ManySubdomainsMin: 3,
		SuspiciousTLD:     1.0,

		PatternHigh:   1.5,
		PatternMedium: 0.75,
		PatternLow:    0.25,
	}
}

// ForSeverity maps an indicator severity to its pattern weight.
func (w Weights) ForSeverity(s heuristics.Severity) float64 {
	switch s {
	case heuristics.SeverityHigh:
		return w.PatternHigh
	case heuristics.SeverityMedium:
		return w.PatternMedium
	case heuristics.SeverityLow:
		return w.PatternLow
	}
	return 0
}
