package heuristics

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/phishsentry/phishsentry/internal/utils"
)

// Severity is the weight class of an indicator. The reputation engine maps
// each class onto a numeric increment.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Kind tells presentation code whether the value is a flag (0/1) or a count.
type Kind int

const (
	KindBool Kind = iota
	KindCount
)

// URLTarget is a parsed view of a URL handed to URL indicators.
type URLTarget struct {
	Raw         string
	URL         *url.URL
	Host        string
	Registrable string
	// Labels are the host labels in front of the public suffix.
	Labels []string
}

// Indicator is one named pattern heuristic.
type Indicator struct {
	Key      string
	Label    string
	Severity Severity
	Kind     Kind
}

type urlRule struct {
	Indicator
	detect func(u *URLTarget, t *Tables) int
}

type contentRule struct {
	Indicator
	detect func(p *Page, t *Tables) int
}

var percentEscapeRe = regexp.MustCompile(`%[0-9a-fA-F]{2}`)

// Thresholds for the counting URL indicators.
const (
	longURLLength          = 75
	excessiveHyphens       = 3
	excessiveSubdomains    = 3
	heavyEncodingThreshold = 3
	maxLookalikeDistance   = 2
	minLookalikeBrandLen   = 5
)

var urlRules = []urlRule{
	{Indicator{"ip_address_host", "IP address used as host", SeverityHigh, KindBool}, detectIPHost},
	{Indicator{"brand_impersonation", "Brand name on unrelated domain", SeverityHigh, KindBool}, detectBrandImpersonation},
	{Indicator{"brand_lookalike", "Lookalike of a known brand domain", SeverityHigh, KindBool}, detectBrandLookalike},
	{Indicator{"punycode_host", "Punycode (IDN homograph) host", SeverityHigh, KindBool}, detectPunycode},
	{Indicator{"url_shortener", "URL shortening service", SeverityMedium, KindBool}, detectShortener},
	{Indicator{"at_symbol", "@ symbol in URL", SeverityMedium, KindBool}, detectAtSymbol},
	{Indicator{"excessive_subdomains", "Excessive subdomains", SeverityMedium, KindBool}, detectExcessiveSubdomains},
	{Indicator{"suspicious_keywords", "Suspicious keywords in URL", SeverityMedium, KindCount}, detectSuspiciousKeywords},
	{Indicator{"excessive_hyphens", "Excessive hyphens in domain", SeverityLow, KindCount}, detectExcessiveHyphens},
	{Indicator{"long_url", "Unusually long URL", SeverityLow, KindBool}, detectLongURL},
	{Indicator{"non_standard_port", "Non-standard port", SeverityLow, KindBool}, detectNonStandardPort},
	{Indicator{"double_slash_path", "Double slash in path", SeverityLow, KindBool}, detectDoubleSlash},
	{Indicator{"encoded_characters", "Heavy percent-encoding", SeverityLow, KindCount}, detectEncoding},
}

var contentRules = []contentRule{
	{Indicator{"credential_keywords", "Credential harvesting language", SeverityMedium, KindCount}, detectCredentialKeywords},
	{Indicator{"urgency_keywords", "Urgency or threat language", SeverityMedium, KindCount}, detectUrgencyKeywords},
	{Indicator{"brand_mentions", "Impersonated brand on page", SeverityHigh, KindCount}, detectBrandMentions},
	{Indicator{"obfuscated_scripts", "Obfuscated JavaScript", SeverityHigh, KindCount}, detectObfuscatedScripts},
	{Indicator{"external_form_actions", "Form submits to another domain", SeverityHigh, KindCount}, detectExternalFormActions},
	{Indicator{"hidden_iframes", "Hidden iframe", SeverityMedium, KindCount}, detectHiddenIframes},
	{Indicator{"meta_refresh", "Meta refresh redirect", SeverityLow, KindCount}, detectMetaRefresh},
}

// URLIndicators lists the URL heuristics in evaluation order.
func URLIndicators() []Indicator {
	out := make([]Indicator, len(urlRules))
	for i, r := range urlRules {
		out[i] = r.Indicator
	}
	return out
}

// ContentIndicators lists the content heuristics in evaluation order.
func ContentIndicators() []Indicator {
	out := make([]Indicator, len(contentRules))
	for i, r := range contentRules {
		out[i] = r.Indicator
	}
	return out
}

// Lookup finds an indicator by key across both tables.
func Lookup(key string) (Indicator, bool) {
	for _, r := range urlRules {
		if r.Key == key {
			return r.Indicator, true
		}
	}
	for _, r := range contentRules {
		if r.Key == key {
			return r.Indicator, true
		}
	}
	return Indicator{}, false
}

// NewURLTarget parses an already-normalized URL.
func NewURLTarget(raw string) (*URLTarget, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	host := strings.ToLower(u.Hostname())
	target := &URLTarget{
		Raw:         raw,
		URL:         u,
		Host:        host,
		Registrable: utils.RegistrableDomain(host),
	}
	if !utils.IsIPHost(host) {
		suffix := utils.PublicSuffix(host)
		prefix := strings.TrimSuffix(host, "."+suffix)
		if prefix != "" && prefix != host {
			target.Labels = strings.Split(prefix, ".")
		}
	}
	return target, nil
}

// AnalyzeURL evaluates every URL indicator. The result always contains every
// key, with 0 for indicators that did not fire. An unparsable URL yields an
// all-zero map.
func AnalyzeURL(raw string, t *Tables) map[string]int {
	out := make(map[string]int, len(urlRules))
	for _, r := range urlRules {
		out[r.Key] = 0
	}
	target, err := NewURLTarget(raw)
	if err != nil {
		return out
	}
	for _, r := range urlRules {
		out[r.Key] = r.detect(target, t)
	}
	return out
}

// AnalyzeContent evaluates every content indicator against a parsed page.
// A nil page yields EmptyContentPatterns().
func AnalyzeContent(p *Page, t *Tables) map[string]int {
	out := EmptyContentPatterns()
	if p == nil || p.Doc == nil {
		return out
	}
	for _, r := range contentRules {
		out[r.Key] = r.detect(p, t)
	}
	return out
}

// EmptyContentPatterns returns the content indicator map with every count 0.
func EmptyContentPatterns() map[string]int {
	out := make(map[string]int, len(contentRules))
	for _, r := range contentRules {
		out[r.Key] = 0
	}
	return out
}

// MergeMax combines two indicator maps keeping the larger value per key.
func MergeMax(a, b map[string]int) map[string]int {
	out := make(map[string]int, len(a))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if v > out[k] {
			out[k] = v
		}
	}
	return out
}

// FiredKeys returns the keys with a positive value, sorted.
func FiredKeys(m map[string]int) []string {
	var keys []string
	for k, v := range m {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ─── URL detectors ─────────────────────────────────────────────────────

func detectIPHost(u *URLTarget, _ *Tables) int {
	return boolInt(utils.IsIPHost(u.Host))
}

// detectBrandImpersonation fires when a brand name is a whole token of the
// host (labels in front of the public suffix, split on "." and "-") or of
// the path, and the registrable domain is not the brand's.
func detectBrandImpersonation(u *URLTarget, t *Tables) int {
	tokens := urlTokens(u)
	for brand := range t.Brands {
		if _, ok := tokens[brand]; ok && !t.BrandOwns(brand, u.Registrable) {
			return 1
		}
	}
	return 0
}

func urlTokens(u *URLTarget) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, label := range u.Labels {
		for _, part := range strings.Split(label, "-") {
			if part != "" {
				tokens[part] = struct{}{}
			}
		}
	}
	notAlnum := func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}
	for _, part := range strings.FieldsFunc(strings.ToLower(u.URL.Path), notAlnum) {
		tokens[part] = struct{}{}
	}
	return tokens
}

var leetReplacer = strings.NewReplacer("0", "o", "1", "l", "3", "e", "4", "a", "5", "s", "7", "t", "vv", "w", "rn", "m")

func detectBrandLookalike(u *URLTarget, t *Tables) int {
	if t.OwnedByAnyBrand(u.Registrable) {
		return 0
	}
	dmp := diffmatchpatch.New()
	for _, label := range u.Labels {
		for _, candidate := range []string{label, strings.ReplaceAll(label, "-", ""), leetReplacer.Replace(label)} {
			for brand := range t.Brands {
				if candidate == brand {
					if candidate != label {
						return 1
					}
					continue
				}
				if len(brand) < minLookalikeBrandLen {
					continue
				}
				d := dmp.DiffLevenshtein(dmp.DiffMain(candidate, brand, false))
				if d > 0 && d <= maxLookalikeDistance {
					return 1
				}
			}
		}
	}
	return 0
}

func detectPunycode(u *URLTarget, _ *Tables) int {
	for _, label := range strings.Split(u.Host, ".") {
		if strings.HasPrefix(label, "xn--") {
			return 1
		}
	}
	return 0
}

func detectShortener(u *URLTarget, t *Tables) int {
	return boolInt(t.IsShortener(u.Host))
}

func detectAtSymbol(u *URLTarget, _ *Tables) int {
	_, rest, found := strings.Cut(u.Raw, "://")
	if !found {
		rest = u.Raw
	}
	return boolInt(strings.Contains(rest, "@"))
}

func detectExcessiveSubdomains(u *URLTarget, _ *Tables) int {
	return boolInt(utils.SubdomainCount(u.Host) >= excessiveSubdomains)
}

func detectSuspiciousKeywords(u *URLTarget, t *Tables) int {
	haystack := strings.ToLower(u.Host + u.URL.EscapedPath() + "?" + u.URL.RawQuery)
	n := 0
	for _, kw := range t.SuspiciousKeywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

func detectExcessiveHyphens(u *URLTarget, _ *Tables) int {
	n := strings.Count(u.Host, "-")
	if n >= excessiveHyphens {
		return n
	}
	return 0
}

func detectLongURL(u *URLTarget, _ *Tables) int {
	return boolInt(len(u.Raw) > longURLLength)
}

func detectNonStandardPort(u *URLTarget, _ *Tables) int {
	port := u.URL.Port()
	if port == "" {
		return 0
	}
	return boolInt(!(u.URL.Scheme == "http" && port == "80") && !(u.URL.Scheme == "https" && port == "443"))
}

func detectDoubleSlash(u *URLTarget, _ *Tables) int {
	return boolInt(strings.Contains(u.URL.EscapedPath(), "//"))
}

func detectEncoding(u *URLTarget, _ *Tables) int {
	n := len(percentEscapeRe.FindAllStringIndex(u.Raw, -1))
	if n > heavyEncodingThreshold {
		return n
	}
	return 0
}
