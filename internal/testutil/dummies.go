// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/reputation"
	"github.com/phishsentry/phishsentry/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns the number of recorded warnings.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// Responses[url] is returned when present; otherwise the body is "ok:<url>"
// with status 200. Set FailURLs[url] = true to force an error for a URL.
type DummyWebClient struct {
	ResponseDelay time.Duration
	Responses     map[string]*webclient.Response
	FailURLs      map[string]bool
	mu            sync.Mutex
	Requests      []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, errors.New("dummy fetch fail for " + req.URL)
	}
	if r, ok := d.Responses[req.URL]; ok {
		cp := *r
		cp.Request = req
		cp.FetchedAt = time.Now()
		if cp.Headers == nil {
			cp.Headers = http.Header{}
		}
		return &cp, nil
	}

	return &webclient.Response{
		Request:    req,
		Headers:    http.Header{},
		Body:       []byte("ok:" + req.URL),
		StatusCode: 200,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: "GET", URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestCount returns how many requests were served.
func (d *DummyWebClient) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// ─── Reputation ────────────────────────────────────────────────────────

// DummyProvider implements reputation.Provider with a fixed verdict or error.
type DummyProvider struct {
	Verdict *reputation.Verdict
	Err     error

	mu    sync.Mutex
	Calls []string
}

func (p *DummyProvider) Lookup(_ context.Context, rawURL string) (*reputation.Verdict, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, rawURL)
	p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Verdict == nil {
		return nil, reputation.ErrUnavailable
	}
	v := *p.Verdict
	v.Threats = append([]string(nil), p.Verdict.Threats...)
	return &v, nil
}

// ─── Network ───────────────────────────────────────────────────────────

// PinnedClient returns an *http.Client that trusts ts's certificate and dials
// ts for every host, so tests can request URLs such as https://example.com/
// without touching DNS. The httptest certificate is valid for example.com.
func PinnedClient(ts *httptest.Server) *http.Client {
	base := ts.Client()
	transport := base.Transport.(*http.Transport).Clone()
	addr := ts.Listener.Addr().String()
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport.DialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
		return dialer.DialContext(ctx, network, addr)
	}
	return &http.Client{Transport: transport}
}
