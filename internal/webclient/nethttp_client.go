package webclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phishsentry/phishsentry/internal/logging"
)

// NetHTTPClient is the net/http backend. It is safe for concurrent use and is
// meant to be shared by every scan so connections are pooled.
type NetHTTPClient struct {
	client *http.Client
	cfg    Config
	logger logging.Logger
}

// NewNetHTTPClient wraps httpClient, or builds a pooled client when it is nil.
// Redirect following is always disabled, including on a caller-supplied client.
func NewNetHTTPClient(cfg Config, logger logging.Logger, httpClient *http.Client) (*NetHTTPClient, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.Nop{}
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: "nethttp"})

	var c http.Client
	if httpClient != nil {
		c = *httpClient
	} else {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConnsPerHost = 16
		transport.ResponseHeaderTimeout = cfg.Timeout
		c.Transport = transport
		c.Timeout = cfg.Timeout
	}
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	componentLogger.Debug("created nethttp webclient",
		logging.Field{Key: "timeout", Value: c.Timeout.String()},
		logging.Field{Key: "max_body_bytes", Value: cfg.MaxBodyBytes})

	return &NetHTTPClient{client: &c, cfg: cfg, logger: componentLogger}, nil
}

// Do executes req without following redirects.
func (nhc *NetHTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	nhc.logger.Debug("sending http request",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: req.URL})

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", nhc.cfg.UserAgent)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	}

	resp, err := nhc.client.Do(httpReq)
	if err != nil {
		nhc.logger.Debug("http request failed",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: err})
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	out := &Response{
		Request:    req,
		Headers:    resp.Header,
		StatusCode: resp.StatusCode,
	}

	// The server answered, so a failed body read is a property of the
	// response, not a transport error.
	body, err := io.ReadAll(io.LimitReader(resp.Body, nhc.cfg.MaxBodyBytes+1))
	if err != nil {
		nhc.logger.Warn("failed to read response body",
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: err})
		out.BodyErr = fmt.Errorf("read body: %w", err)
		out.FetchedAt = time.Now()
		return out, nil
	}
	if int64(len(body)) > nhc.cfg.MaxBodyBytes {
		body = body[:nhc.cfg.MaxBodyBytes]
		out.Truncated = true
	}
	out.Body = body
	out.FetchedAt = time.Now()
	return out, nil
}

// Get is a convenience method for simple GET requests
func (nhc *NetHTTPClient) Get(ctx context.Context, url string) (*Response, error) {
	return nhc.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (nhc *NetHTTPClient) Close() error {
	nhc.client.CloseIdleConnections()
	return nil
}
