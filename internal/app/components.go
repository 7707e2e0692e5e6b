package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/phishsentry/phishsentry/internal/assessor"
	"github.com/phishsentry/phishsentry/internal/heuristics"
	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/reputation"
	"github.com/phishsentry/phishsentry/internal/scanner"
	"github.com/phishsentry/phishsentry/internal/webclient"
)

// Components are the long-lived collaborators of a scan. They are built once
// per process and shared by every scan and job.
type Components struct {
	WebClient webclient.WebClient
	Renderer  webclient.WebClient
	Tables    *heuristics.Tables
	Provider  reputation.Provider
	Blocklist *reputation.SQLiteBlocklist
	Scanner   *scanner.Scanner
	Engine    *assessor.ReputationEngine

	closers []io.Closer
}

// ComponentOption customizes NewComponents.
type ComponentOption func(*componentOptions)

type componentOptions struct {
	httpClient *http.Client
	webClient  webclient.WebClient
	provider   reputation.Provider
}

// WithHTTPClient routes the net/http backend through hc.
func WithHTTPClient(hc *http.Client) ComponentOption {
	return func(o *componentOptions) { o.httpClient = hc }
}

// WithWebClient replaces the fetch backend entirely.
func WithWebClient(wc webclient.WebClient) ComponentOption {
	return func(o *componentOptions) { o.webClient = wc }
}

// WithProvider overrides the reputation provider chosen from config.
func WithProvider(p reputation.Provider) ComponentOption {
	return func(o *componentOptions) { o.provider = p }
}

// NewComponents wires fetch backend, heuristic tables, reputation provider,
// scanner and reputation engine from cfg.
func NewComponents(cfg *Config, logger logging.Logger, opts ...ComponentOption) (*Components, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	var o componentOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Components{}
	fail := func(err error) (*Components, error) {
		_ = c.Close()
		return nil, err
	}

	wcCfg := cfg.WebClient
	wcCfg.Timeout = cfg.Scanner.Timeout
	if cfg.Scanner.UserAgent != "" {
		wcCfg.UserAgent = cfg.Scanner.UserAgent
	}

	switch {
	case o.webClient != nil:
		c.WebClient = o.webClient
	case o.httpClient != nil:
		wc, err := webclient.NewNetHTTPClient(wcCfg, logger, o.httpClient)
		if err != nil {
			return fail(fmt.Errorf("creating web client: %w", err))
		}
		c.WebClient = wc
		c.closers = append(c.closers, wc)
	default:
		wc, err := webclient.NewWebClient(wcCfg, logger)
		if err != nil {
			return fail(fmt.Errorf("creating web client: %w", err))
		}
		c.WebClient = wc
		c.closers = append(c.closers, wc)
	}

	if cfg.Scanner.Render {
		rCfg := wcCfg
		rCfg.Client = webclient.ClientChromedp
		r, err := webclient.NewWebClient(rCfg, logger)
		if err != nil {
			logger.Warn("headless renderer unavailable, scanning raw HTML",
				logging.Field{Key: "error", Value: err.Error()})
		} else {
			c.Renderer = r
			c.closers = append(c.closers, r)
		}
	}

	c.Tables = heuristics.Default()
	if cfg.HeuristicsPath != "" {
		t, err := heuristics.LoadFile(cfg.HeuristicsPath)
		if err != nil {
			return fail(err)
		}
		c.Tables = t
	}

	switch {
	case o.provider != nil:
		c.Provider = o.provider
	case cfg.BlocklistPath != "":
		bl, err := reputation.OpenBlocklist(cfg.BlocklistPath, logger)
		if err != nil {
			return fail(fmt.Errorf("opening blocklist: %w", err))
		}
		c.Blocklist = bl
		c.Provider = bl
		c.closers = append(c.closers, bl)
	default:
		c.Provider = reputation.Noop{}
	}

	var scanOpts []scanner.Option
	if c.Renderer != nil {
		scanOpts = append(scanOpts, scanner.WithRenderer(c.Renderer))
	}
	sc, err := scanner.New(cfg.Scanner, c.WebClient, c.Tables, logger, scanOpts...)
	if err != nil {
		return fail(err)
	}
	c.Scanner = sc

	eng, err := assessor.NewReputationEngine(&cfg.Assessor, c.Provider, logger)
	if err != nil {
		return fail(err)
	}
	c.Engine = eng

	return c, nil
}

// Close releases every resource NewComponents opened.
func (c *Components) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
