// Package batch runs many independent scans with bounded concurrency.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/model"
)

// ScanFunc scans and scores a single URL.
type ScanFunc func(ctx context.Context, rawURL string) (*model.Report, error)

// Item is the outcome for one input URL. Exactly one of Report and Err is set.
type Item struct {
	Index  int           `json:"index"`
	URL    string        `json:"url"`
	Report *model.Report `json:"report,omitempty"`
	Err    error         `json:"-"`
	Error  string        `json:"error,omitempty"`
}

// ProgressFunc is called once per finished item with the running count.
// Calls are serialized.
type ProgressFunc func(item Item, completed, total int)

type Runner struct {
	cfg     Config
	scan    ScanFunc
	limiter *rate.Limiter
	logger  logging.Logger
}

func New(cfg Config, scan ScanFunc, logger logging.Logger) (*Runner, error) {
	if scan == nil {
		return nil, errors.New("batch: nil scan func")
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	r := &Runner{
		cfg:    cfg,
		scan:   scan,
		logger: logger.With(logging.Field{Key: "component", Value: "batch"}),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return r, nil
}

// Run scans urls and returns one Item per input, in input order. A failing
// URL never aborts the batch. When ctx is canceled, items that have not
// started carry ctx.Err().
func (r *Runner) Run(ctx context.Context, urls []string, onItem ProgressFunc) []Item {
	items := make([]Item, len(urls))
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	sem := make(chan struct{}, r.cfg.MaxConcurrency)

	finish := func(it Item) {
		if it.Err != nil {
			it.Error = it.Err.Error()
		}
		mu.Lock()
		defer mu.Unlock()
		items[it.Index] = it
		completed++
		if onItem != nil {
			onItem(it, completed, len(urls))
		}
	}

	for i, u := range urls {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			finish(Item{Index: i, URL: u, Err: ctx.Err()})
			continue
		}

		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-sem }()

			if r.limiter != nil {
				if err := r.limiter.Wait(ctx); err != nil {
					finish(Item{Index: i, URL: u, Err: err})
					return
				}
			}
			if err := ctx.Err(); err != nil {
				finish(Item{Index: i, URL: u, Err: err})
				return
			}

			report, err := r.scan(ctx, u)
			if err != nil {
				r.logger.Warn("error while scanning url",
					logging.Field{Key: "url", Value: u},
					logging.Field{Key: "error", Value: err})
				finish(Item{Index: i, URL: u, Err: fmt.Errorf("scan %s: %w", u, err)})
				return
			}
			finish(Item{Index: i, URL: u, Report: report})
		}(i, u)
	}

	wg.Wait()
	r.logger.Info("batch finished", logging.Field{Key: "urls", Value: len(urls)})
	return items
}
