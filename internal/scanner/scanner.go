// Package scanner retrieves a single URL, walks its redirect chain by hand and
// turns the terminal response into a model.ScanResult.
package scanner

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/phishsentry/phishsentry/internal/heuristics"
	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/model"
	"github.com/phishsentry/phishsentry/internal/utils"
	"github.com/phishsentry/phishsentry/internal/webclient"
)

// Scanner holds no per-scan state; one instance serves concurrent scans.
type Scanner struct {
	cfg      Config
	wc       webclient.WebClient
	renderer webclient.WebClient
	tables   *heuristics.Tables
	logger   logging.Logger
}

type Option func(*Scanner)

// WithRenderer attaches a rendering backend used when Config.Render is set.
func WithRenderer(r webclient.WebClient) Option {
	return func(s *Scanner) { s.renderer = r }
}

// New builds a Scanner. wc must not follow redirects on its own.
func New(cfg Config, wc webclient.WebClient, tables *heuristics.Tables, logger logging.Logger, opts ...Option) (*Scanner, error) {
	if wc == nil {
		return nil, errors.New("scanner: nil webclient")
	}
	if tables == nil {
		tables = heuristics.Default()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	s := &Scanner{
		cfg:    cfg.withDefaults(),
		wc:     wc,
		tables: tables,
		logger: logger.With(logging.Field{Key: "component", Value: "scanner"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Scanner) Config() Config { return s.cfg }

// hop is the terminal step of a traversal.
type hop struct {
	url  string
	resp *webclient.Response
	err  error
}

// Scan scans rawURL. The only error returned is a wrapped utils.ErrInvalidURL;
// network failures are reported through ScanResult.Accessible and Error.
func (s *Scanner) Scan(ctx context.Context, rawURL string) (*model.ScanResult, error) {
	normalized, err := utils.NormalizeURL(rawURL, utils.NormalizeOptions{DefaultScheme: s.cfg.DefaultScheme})
	if err != nil {
		return nil, err
	}

	res := &model.ScanResult{
		URL:          normalized,
		RequestedURL: normalized,
		Redirects:    []model.Redirect{},
		ScannedAt:    time.Now().UTC(),
	}

	scanCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	last := s.traverse(scanCtx, normalized, res)
	res.ResponseTime = time.Since(start).Seconds()
	res.URL = last.url

	var headers http.Header
	var page *heuristics.Page
	if last.err != nil {
		res.Accessible = false
		res.Error = describeError(scanCtx, last.err)
	} else {
		res.Accessible = true
		res.StatusCode = model.IntPtr(last.resp.StatusCode)
		headers = last.resp.Headers
		if !last.resp.IsRedirect() {
			page = s.parsePage(scanCtx, last)
		}
	}

	res.SecurityIndicators = s.securityIndicators(res.URL, headers)
	if page != nil {
		res.ContentAnalysis = s.contentAnalysis(page)
	}
	res.PatternAnalysis = s.patternAnalysis(res.RequestedURL, res.URL, page)

	s.logger.Info("scan complete",
		logging.Field{Key: "url", Value: res.RequestedURL},
		logging.Field{Key: "final_url", Value: res.URL},
		logging.Field{Key: "accessible", Value: res.Accessible},
		logging.Field{Key: "redirects", Value: len(res.Redirects)},
		logging.Field{Key: "response_time", Value: res.ResponseTime})
	return res, nil
}

// traverse follows the redirect chain from start, appending one entry to
// res.Redirects per hop. It stops at a non-redirect response, a redirect it
// cannot resolve, or once MaxRedirects hops are recorded; in the last case
// the recorded target is never requested.
func (s *Scanner) traverse(ctx context.Context, start string, res *model.ScanResult) hop {
	current := start
	for {
		req := &webclient.Request{Method: http.MethodGet, URL: current, Headers: http.Header{}}
		req.Headers.Set("User-Agent", s.cfg.UserAgent)

		resp, err := s.wc.Do(ctx, req)
		if err != nil {
			s.logger.Debug("hop failed",
				logging.Field{Key: "url", Value: current},
				logging.Field{Key: "error", Value: err})
			return hop{url: current, err: err}
		}
		if !resp.IsRedirect() {
			return hop{url: current, resp: resp}
		}

		next, ok := resolveLocation(current, resp.Headers.Get("Location"))
		if !ok {
			return hop{url: current, resp: resp}
		}
		res.Redirects = append(res.Redirects, model.Redirect{Status: resp.StatusCode, To: next})
		if len(res.Redirects) >= s.cfg.MaxRedirects {
			s.logger.Debug("redirect cap reached",
				logging.Field{Key: "url", Value: start},
				logging.Field{Key: "max_redirects", Value: s.cfg.MaxRedirects})
			return hop{url: current, resp: resp}
		}
		current = next
	}
}

// resolveLocation resolves a Location header against the URL that sent it.
func resolveLocation(base, location string) (string, bool) {
	if location == "" {
		return "", false
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", false
	}
	next := b.ResolveReference(ref)
	if next.Scheme != "http" && next.Scheme != "https" {
		return "", false
	}
	next.Fragment = ""
	return next.String(), true
}

func (s *Scanner) patternAnalysis(requested, final string, page *heuristics.Page) model.PatternAnalysis {
	urlPatterns := heuristics.AnalyzeURL(requested, s.tables)
	if final != requested {
		urlPatterns = heuristics.MergeMax(urlPatterns, heuristics.AnalyzeURL(final, s.tables))
	}
	return model.PatternAnalysis{
		URLPatterns:     urlPatterns,
		ContentPatterns: heuristics.AnalyzeContent(page, s.tables),
	}
}
