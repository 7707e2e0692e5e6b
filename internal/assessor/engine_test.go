package assessor_test

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/phishsentry/phishsentry/internal/assessor"
	"github.com/phishsentry/phishsentry/internal/heuristics"
	"github.com/phishsentry/phishsentry/internal/model"
	"github.com/phishsentry/phishsentry/internal/reputation"
	"github.com/phishsentry/phishsentry/internal/testutil"
)

func newEngine(t *testing.T, provider reputation.Provider) *assessor.ReputationEngine {
	t.Helper()
	e, err := assessor.NewReputationEngine(assessor.DefaultConfig(), provider, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewReputationEngine: %v", err)
	}
	return e
}

func patternsFor(rawURL string) model.PatternAnalysis {
	return model.PatternAnalysis{
		URLPatterns:     heuristics.AnalyzeURL(rawURL, heuristics.Default()),
		ContentPatterns: heuristics.EmptyContentPatterns(),
	}
}

// cleanScan is a reachable HTTPS page with security headers and nothing suspicious.
func cleanScan() *model.ScanResult {
	u := "https://example.com/"
	return &model.ScanResult{
		URL:             u,
		RequestedURL:    u,
		Accessible:      true,
		StatusCode:      model.IntPtr(200),
		ResponseTime:    0.25,
		Redirects:       []model.Redirect{},
		ContentAnalysis: &model.ContentAnalysis{Title: "Example"},
		SecurityIndicators: &model.SecurityIndicators{
			HTTPS: true, HasSecurityHeaders: true, URLLength: len(u),
		},
		PatternAnalysis: patternsFor(u),
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestScore_CleanPageIsLow(t *testing.T) {
	t.Parallel()
	got := newEngine(t, nil).Score(context.Background(), cleanScan())
	if got.TotalScore != 0 {
		t.Errorf("TotalScore = %v, want 0 (threats %v, patterns %v)", got.TotalScore, got.Threats, got.PatternThreats)
	}
	if got.RiskLevel != model.RiskLow {
		t.Errorf("RiskLevel = %s", got.RiskLevel)
	}
}

func TestScore_UnreachableHasNoContentScore(t *testing.T) {
	t.Parallel()
	u := "http://192.168.0.1/paypal/login"
	sr := &model.ScanResult{
		URL:                u,
		RequestedURL:       u,
		Accessible:         false,
		Redirects:          []model.Redirect{},
		SecurityIndicators: &model.SecurityIndicators{URLLength: len(u)},
		PatternAnalysis:    patternsFor(u),
		Error:              "connection refused",
	}
	got := newEngine(t, nil).Score(context.Background(), sr)

	if got.ContentScore != 0 {
		t.Errorf("ContentScore = %v, want 0", got.ContentScore)
	}
	if got.BaseScore != 2.0 {
		t.Errorf("BaseScore = %v, want 2.0", got.BaseScore)
	}
	// no HTTPS only; headers are not judged without a response
	if got.SecurityScore != 1.0 {
		t.Errorf("SecurityScore = %v, want 1.0", got.SecurityScore)
	}
	if !contains(got.Threats, assessor.LabelUnreachable) || !contains(got.Threats, assessor.LabelNoHTTPS) {
		t.Errorf("Threats = %v", got.Threats)
	}
	if contains(got.Threats, assessor.LabelNoSecurityHeaders) {
		t.Errorf("unreachable URL flagged for missing headers: %v", got.Threats)
	}
	// ip host (high) + brand (high) + one keyword (medium) = 3.75
	if got.PatternScore != 3.75 {
		t.Errorf("PatternScore = %v, want 3.75 (%v)", got.PatternScore, got.PatternThreats)
	}
	if got.RiskLevel.Severity() < model.RiskHigh.Severity() {
		t.Errorf("RiskLevel = %s, want at least high", got.RiskLevel)
	}
}

func TestScore_ClampsPathologicalInput(t *testing.T) {
	t.Parallel()
	u := "http://a.b.c.d.e.paypal-secure-login-verify.tk:8080//x/%41%42%43%44%45?login=1&verify=1@x"
	urlPatterns := map[string]int{}
	for _, ind := range heuristics.URLIndicators() {
		urlPatterns[ind.Key] = math.MaxInt32
	}
	contentPatterns := map[string]int{}
	for _, ind := range heuristics.ContentIndicators() {
		contentPatterns[ind.Key] = math.MaxInt32
	}
	sr := &model.ScanResult{
		URL:          u,
		RequestedURL: u,
		Accessible:   true,
		StatusCode:   model.IntPtr(503),
		ResponseTime: 0.001,
		Redirects: []model.Redirect{
			{Status: 302, To: "http://one.example/"}, {Status: 302, To: "http://two.example/"},
			{Status: 302, To: "http://three.example/"}, {Status: 302, To: "http://four.example/"},
		},
		ContentAnalysis: &model.ContentAnalysis{
			HasForms: true, LoginForms: 1000, ExternalLinks: 1 << 20,
			SuspiciousScripts: 1 << 20, IframeCount: 1 << 20,
		},
		SecurityIndicators: &model.SecurityIndicators{
			URLLength: 1 << 20, SubdomainCount: 99, SuspiciousTLD: true,
		},
		PatternAnalysis: model.PatternAnalysis{URLPatterns: urlPatterns, ContentPatterns: contentPatterns},
	}
	provider := &testutil.DummyProvider{Verdict: &reputation.Verdict{Score: 1e9, Threats: []string{"Malware"}}}

	got := newEngine(t, provider).Score(context.Background(), sr)

	// A reachable page cannot collect the unreachable weight, so base tops out
	// at 3.0; every other sub-score saturates.
	subScores := []struct {
		name  string
		value float64
		max   float64
		want  float64
	}{
		{"base", got.BaseScore, model.MaxBaseScore, 3.0},
		{"content", got.ContentScore, model.MaxContentScore, model.MaxContentScore},
		{"security", got.SecurityScore, model.MaxSecurityScore, model.MaxSecurityScore},
		{"pattern", got.PatternScore, model.MaxPatternScore, model.MaxPatternScore},
		{"virustotal", got.VirusTotalScore, model.MaxVirusTotalScore, model.MaxVirusTotalScore},
	}
	for _, c := range subScores {
		if c.value < 0 || c.value > c.max {
			t.Errorf("%s = %v, outside [0, %v]", c.name, c.value, c.max)
		}
		if c.value != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.value, c.want)
		}
	}
	if got.TotalScore != model.MaxTotalScore {
		t.Errorf("TotalScore = %v, want %v", got.TotalScore, model.MaxTotalScore)
	}
	if got.RiskLevel != model.RiskCritical {
		t.Errorf("RiskLevel = %s", got.RiskLevel)
	}
	if !contains(got.Threats, "Malware") {
		t.Errorf("provider threat missing: %v", got.Threats)
	}
}

func TestScore_TotalIsClampedSum(t *testing.T) {
	t.Parallel()
	sr := cleanScan()
	sr.SecurityIndicators.HTTPS = false
	sr.ContentAnalysis.LoginForms = 1
	sr.ContentAnalysis.HasForms = true
	sr.ContentAnalysis.IframeCount = 1

	got := newEngine(t, nil).Score(context.Background(), sr)
	sum := got.BaseScore + got.ContentScore + got.SecurityScore + got.PatternScore + got.VirusTotalScore
	if got.TotalScore != model.Clamp(sum, 0, model.MaxTotalScore) {
		t.Errorf("TotalScore = %v, sum = %v", got.TotalScore, sum)
	}
	if got.ContentScore != 2.0 {
		t.Errorf("ContentScore = %v, want 2.0", got.ContentScore)
	}
	if got.TotalScore != 3.0 {
		t.Errorf("TotalScore = %v, want 3.0", got.TotalScore)
	}
	if got.RiskLevel != model.RiskMedium {
		t.Errorf("RiskLevel = %s", got.RiskLevel)
	}
}

// Raising one input by a known weight raises the total by exactly that weight.
func TestScore_DeltaRegression(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, nil)
	w := assessor.DefaultWeights()

	before := engine.Score(context.Background(), cleanScan())

	cases := []struct {
		name   string
		mutate func(*model.ScanResult)
		delta  float64
	}{
		{"login form", func(sr *model.ScanResult) { sr.ContentAnalysis.HasForms = true; sr.ContentAnalysis.LoginForms = 1 }, w.LoginForm},
		{"plain form", func(sr *model.ScanResult) { sr.ContentAnalysis.HasForms = true }, w.FormsWithoutLogin},
		{"two scripts", func(sr *model.ScanResult) { sr.ContentAnalysis.SuspiciousScripts = 2 }, 2 * w.SuspiciousScript},
		{"20 links", func(sr *model.ScanResult) { sr.ContentAnalysis.ExternalLinks = 20 }, w.ExternalLinksMany},
		{"no https", func(sr *model.ScanResult) { sr.SecurityIndicators.HTTPS = false }, w.NoHTTPS},
		{"no headers", func(sr *model.ScanResult) { sr.SecurityIndicators.HasSecurityHeaders = false }, w.NoSecurityHeaders},
		{"4xx", func(sr *model.ScanResult) { sr.StatusCode = model.IntPtr(404) }, w.ClientError},
		{"fast", func(sr *model.ScanResult) { sr.ResponseTime = 0.01 }, w.FastResponse},
		{"high pattern", func(sr *model.ScanResult) { sr.PatternAnalysis.URLPatterns["ip_address_host"] = 1 }, w.PatternHigh},
		{"low pattern", func(sr *model.ScanResult) { sr.PatternAnalysis.ContentPatterns["meta_refresh"] = 3 }, w.PatternLow},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sr := cleanScan()
			tc.mutate(sr)
			after := engine.Score(context.Background(), sr)
			if got := after.TotalScore - before.TotalScore; got != tc.delta {
				t.Errorf("delta = %v, want %v", got, tc.delta)
			}
		})
	}
}

func TestScore_Idempotent(t *testing.T) {
	t.Parallel()
	provider := reputation.Static{"example.com": {Score: 1.5, Threats: []string{"Reported"}}}
	engine := newEngine(t, provider)
	sr := cleanScan()
	sr.ContentAnalysis.LoginForms = 1
	sr.PatternAnalysis.URLPatterns["suspicious_keywords"] = 2

	first := engine.Score(context.Background(), sr)
	second := engine.Score(context.Background(), sr)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("scores differ:\n%+v\n%+v", first, second)
	}
	if math.Float64bits(first.TotalScore) != math.Float64bits(second.TotalScore) {
		t.Fatal("total not bit-identical")
	}
	if first == second {
		t.Fatal("engine returned a shared score instance")
	}
}

func TestScore_ProviderFailureContributesZero(t *testing.T) {
	t.Parallel()
	for _, p := range []reputation.Provider{
		reputation.Noop{},
		&testutil.DummyProvider{Err: errors.New("quota exceeded")},
		&testutil.DummyProvider{Err: context.DeadlineExceeded},
	} {
		got := newEngine(t, p).Score(context.Background(), cleanScan())
		if got.VirusTotalScore != 0 {
			t.Errorf("%T: VirusTotalScore = %v", p, got.VirusTotalScore)
		}
	}
}

func TestScore_ProviderUsesWorseOfRequestedAndFinal(t *testing.T) {
	t.Parallel()
	provider := reputation.Static{
		"lure.example": {Score: 3, Threats: []string{"Known phishing domain"}},
	}
	sr := cleanScan()
	sr.RequestedURL = "https://lure.example/"
	sr.Redirects = []model.Redirect{{Status: 302, To: "https://example.com/"}}

	got := newEngine(t, provider).Score(context.Background(), sr)
	if got.VirusTotalScore != 3 {
		t.Errorf("VirusTotalScore = %v, want 3", got.VirusTotalScore)
	}
	if !contains(got.Threats, "Known phishing domain") || !contains(got.Threats, assessor.LabelCrossDomainRedirect) {
		t.Errorf("Threats = %v", got.Threats)
	}
}

func TestScore_ThreatsAreDeduplicatedAndOrdered(t *testing.T) {
	t.Parallel()
	provider := &testutil.DummyProvider{Verdict: &reputation.Verdict{
		Score:   1,
		Threats: []string{assessor.LabelNoHTTPS, "Phishing", "Phishing"},
	}}
	sr := cleanScan()
	sr.SecurityIndicators.HTTPS = false
	sr.ContentAnalysis.HasForms = true
	sr.ContentAnalysis.LoginForms = 1

	got := newEngine(t, provider).Score(context.Background(), sr)
	want := []string{assessor.LabelLoginForm, assessor.LabelNoHTTPS, "Phishing"}
	if !reflect.DeepEqual(got.Threats, want) {
		t.Errorf("Threats = %v, want %v", got.Threats, want)
	}
}

func TestScore_NilScan(t *testing.T) {
	t.Parallel()
	got := newEngine(t, nil).Score(context.Background(), nil)
	if got.TotalScore != 0 || got.RiskLevel != model.RiskLow {
		t.Errorf("nil scan = %+v", got)
	}
	if got.Threats == nil || got.PatternThreats == nil {
		t.Error("threat lists should be empty, not nil")
	}
}

func TestScore_WeightsOverride(t *testing.T) {
	t.Parallel()
	cfg := assessor.DefaultConfig()
	cfg.Weights.NoHTTPS = 0
	engine, err := assessor.NewReputationEngine(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewReputationEngine: %v", err)
	}
	sr := cleanScan()
	sr.SecurityIndicators.HTTPS = false
	got := engine.Score(context.Background(), sr)
	if got.SecurityScore != 0 || contains(got.Threats, assessor.LabelNoHTTPS) {
		t.Errorf("zero weight still contributed: %+v", got)
	}
}
