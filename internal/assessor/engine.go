package assessor

import (
	"context"
	"errors"
	"time"

	"github.com/phishsentry/phishsentry/internal/heuristics"
	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/model"
	"github.com/phishsentry/phishsentry/internal/reputation"
	"github.com/phishsentry/phishsentry/internal/utils"
)

// ReputationEngine scores ScanResults. Apart from the provider lookup it is
// a pure function of its input, so it is safe for concurrent use.
type ReputationEngine struct {
	cfg      *Config
	provider reputation.Provider
	logger   logging.Logger
}

func NewReputationEngine(cfg *Config, provider reputation.Provider, logger logging.Logger) (*ReputationEngine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ProviderTimeout < 0 {
		return nil, errors.New("assessor: negative provider timeout")
	}
	if provider == nil {
		provider = reputation.Noop{}
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &ReputationEngine{
		cfg:      cfg,
		provider: provider,
		logger:   logger.With(logging.Field{Key: "component", Value: "reputation_engine"}),
	}, nil
}

// accumulator adds contributions to one sub-score and records their labels.
type accumulator struct {
	value  float64
	labels []string
}

func (a *accumulator) add(w float64, label string) {
	if w == 0 {
		return
	}
	a.value += w
	if label != "" {
		a.labels = append(a.labels, label)
	}
}

func (a *accumulator) clamped(ceiling float64) float64 {
	return model.Clamp(a.value, 0, ceiling)
}

// Score computes the reputation of sr. A nil ScanResult scores zero.
func (e *ReputationEngine) Score(ctx context.Context, sr *model.ScanResult) *model.ReputationScore {
	out := &model.ReputationScore{Threats: []string{}, PatternThreats: []string{}}
	if sr == nil {
		out.Recalculate()
		return out
	}

	base := e.baseScore(sr)
	content := e.contentScore(sr)
	security := e.securityScore(sr)
	pattern := e.patternScore(sr)
	vt := e.providerScore(ctx, sr)

	out.BaseScore = base.clamped(model.MaxBaseScore)
	out.ContentScore = content.clamped(model.MaxContentScore)
	out.SecurityScore = security.clamped(model.MaxSecurityScore)
	out.PatternScore = pattern.clamped(model.MaxPatternScore)
	out.VirusTotalScore = vt.clamped(model.MaxVirusTotalScore)
	out.Recalculate()

	out.Threats = dedupe(base.labels, content.labels, security.labels, vt.labels)
	out.PatternThreats = dedupe(pattern.labels)

	e.logger.Debug("scored url",
		logging.Field{Key: "url", Value: sr.URL},
		logging.Field{Key: "total", Value: out.TotalScore},
		logging.Field{Key: "risk_level", Value: string(out.RiskLevel)})
	return out
}

func (e *ReputationEngine) baseScore(sr *model.ScanResult) *accumulator {
	w := e.cfg.Weights
	a := &accumulator{}

	if !sr.Accessible {
		a.add(w.Unreachable, LabelUnreachable)
	} else {
		if sr.ResponseTime >= 0 && sr.ResponseTime < w.FastResponseSeconds {
			a.add(w.FastResponse, LabelFastResponse)
		}
		if sr.StatusCode != nil {
			switch code := *sr.StatusCode; {
			case code >= 400 && code < 500:
				a.add(w.ClientError, LabelClientError)
			case code >= 500 && code < 600:
				a.add(w.ServerError, LabelServerError)
			}
		}
	}

	if w.ManyRedirectsMin > 0 && len(sr.Redirects) >= w.ManyRedirectsMin {
		a.add(w.ManyRedirects, LabelManyRedirects)
	}
	origin := utils.RegistrableDomain(utils.Hostname(sr.RequestedURL))
	for _, r := range sr.Redirects {
		if dest := utils.RegistrableDomain(utils.Hostname(r.To)); dest != "" && dest != origin {
			a.add(w.CrossDomainRedirect, LabelCrossDomainRedirect)
			break
		}
	}
	return a
}

func (e *ReputationEngine) contentScore(sr *model.ScanResult) *accumulator {
	w := e.cfg.Weights
	a := &accumulator{}
	ca := sr.ContentAnalysis
	if ca == nil {
		return a
	}

	if ca.LoginForms > 0 {
		a.add(w.LoginForm, LabelLoginForm)
	} else if ca.HasForms {
		a.add(w.FormsWithoutLogin, LabelForms)
	}

	switch {
	case w.ExternalLinksManyMin > 0 && ca.ExternalLinks >= w.ExternalLinksManyMin:
		a.add(w.ExternalLinksMany, LabelExternalLinks)
	case w.ExternalLinksMin > 0 && ca.ExternalLinks >= w.ExternalLinksMin:
		a.add(w.ExternalLinks, LabelExternalLinks)
	}

	if ca.SuspiciousScripts > 0 {
		a.add(w.SuspiciousScript*float64(ca.SuspiciousScripts), LabelSuspiciousScripts)
	}

	switch {
	case w.IframesManyMin > 0 && ca.IframeCount >= w.IframesManyMin:
		a.add(w.IframesMany, LabelIframes)
	case ca.IframeCount >= 1:
		a.add(w.Iframes, LabelIframes)
	}
	return a
}

func (e *ReputationEngine) securityScore(sr *model.ScanResult) *accumulator {
	w := e.cfg.Weights
	a := &accumulator{}
	si := sr.SecurityIndicators
	if si == nil {
		return a
	}

	if !si.HTTPS {
		a.add(w.NoHTTPS, LabelNoHTTPS)
	}
	if sr.Accessible && !si.HasSecurityHeaders {
		a.add(w.NoSecurityHeaders, LabelNoSecurityHeaders)
	}
	switch {
	case w.VeryLongURLMin > 0 && si.URLLength >= w.VeryLongURLMin:
		a.add(w.VeryLongURL, LabelLongURL)
	case w.LongURLMin > 0 && si.URLLength >= w.LongURLMin:
		a.add(w.LongURL, LabelLongURL)
	}
	if w.ManySubdomainsMin > 0 && si.SubdomainCount >= w.ManySubdomainsMin {
		a.add(w.ManySubdomains, LabelManySubdomains)
	}
	if si.SuspiciousTLD {
		a.add(w.SuspiciousTLD, LabelSuspiciousTLD)
	}
	return a
}

// patternScore walks the indicator tables in order so labels are stable.
// Keys that are not known indicators are ignored.
func (e *ReputationEngine) patternScore(sr *model.ScanResult) *accumulator {
	a := &accumulator{}
	fire := func(indicators []heuristics.Indicator, values map[string]int) {
		for _, ind := range indicators {
			if values[ind.Key] > 0 {
				a.add(e.cfg.Weights.ForSeverity(ind.Severity), ind.Label)
			}
		}
	}
	fire(heuristics.URLIndicators(), sr.PatternAnalysis.URLPatterns)
	fire(heuristics.ContentIndicators(), sr.PatternAnalysis.ContentPatterns)
	return a
}

// providerScore consults the reputation provider for the requested and final
// URLs and keeps the worse verdict. Any failure contributes nothing.
func (e *ReputationEngine) providerScore(ctx context.Context, sr *model.ScanResult) *accumulator {
	a := &accumulator{}
	targets := []string{sr.RequestedURL}
	if sr.URL != "" && sr.URL != sr.RequestedURL {
		targets = append(targets, sr.URL)
	}

	var best *reputation.Verdict
	for _, target := range targets {
		if target == "" {
			continue
		}
		v, err := e.lookup(ctx, target)
		if err != nil {
			if !errors.Is(err, reputation.ErrUnavailable) {
				e.logger.Warn("reputation lookup failed",
					logging.Field{Key: "url", Value: target},
					logging.Field{Key: "error", Value: err})
			}
			continue
		}
		if best == nil || v.Score > best.Score {
			best = v
		}
	}
	if best == nil {
		return a
	}
	a.value = best.Score
	a.labels = append(a.labels, best.Threats...)
	return a
}

func (e *ReputationEngine) lookup(ctx context.Context, target string) (*reputation.Verdict, error) {
	if e.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ProviderTimeout)
		defer cancel()
	}
	start := time.Now()
	v, err := e.provider.Lookup(ctx, target)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, reputation.ErrUnavailable
	}
	e.logger.Debug("reputation lookup",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "score", Value: v.Score},
		logging.Field{Key: "elapsed", Value: time.Since(start).String()})
	return v, nil
}

// dedupe concatenates label lists keeping the first occurrence of each.
func dedupe(lists ...[]string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, l := range lists {
		for _, s := range l {
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
