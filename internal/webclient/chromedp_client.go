package webclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/phishsentry/phishsentry/internal/logging"
)

// ChromedpClient renders pages in headless Chrome and returns the DOM after
// scripts have run. It only supports GET and, unlike NetHTTPClient, lets the
// browser follow redirects; it is used to render a terminal page, not to walk
// a redirect chain.
type ChromedpClient struct {
	cfg    Config
	logger logging.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closeOnce     sync.Once
}

// NewChromedpClient starts a browser process. It fails when Chrome is not
// installed.
func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.Nop{}
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: "chromedp"})

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(cfg.UserAgent))
	if cfg.Headless != nil && !*cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run launches the browser so construction errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	componentLogger.Debug("created chromedp webclient",
		logging.Field{Key: "idle_after", Value: cfg.IdleAfter.String()})

	return &ChromedpClient{
		cfg:           cfg,
		logger:        componentLogger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// waitNetworkIdle returns a channel that receives once no requests have been
// in flight for idleAfter. The timer is armed immediately so a page that
// issues no subresource requests still settles.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) (<-chan struct{}, func()) {
	idleChan := make(chan struct{}, 1)
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) <= 0 {
				once.Do(func() { idleChan <- struct{}{} })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	return idleChan, startTimer
}

// Do navigates a fresh tab to req.URL, waits for the network to go idle and
// returns the outer HTML.
func (cdc *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if m := strings.ToUpper(req.Method); m != "" && m != http.MethodGet {
		return nil, fmt.Errorf("method %s not supported by chromedp backend", m)
	}

	tabCtx, cancel := chromedp.NewContext(cdc.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		mu      sync.Mutex
		status  int
		headers = http.Header{}
	)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		status = int(e.Response.Status)
		headers = http.Header{}
		for k, v := range e.Response.Headers {
			headers.Set(k, fmt.Sprint(v))
		}
	})

	idle, arm := waitNetworkIdle(tabCtx, cdc.cfg.IdleAfter)

	cdc.logger.Debug("rendering page", logging.Field{Key: "url", Value: req.URL})
	if err := chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate(req.URL)); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	arm()

	select {
	case <-idle:
	case <-tabCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, tabCtx.Err()
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read dom: %w", err)
	}

	body := []byte(html)
	truncated := int64(len(body)) > cdc.cfg.MaxBodyBytes
	if truncated {
		body = body[:cdc.cfg.MaxBodyBytes]
	}

	mu.Lock()
	defer mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{
		Request:    req,
		Headers:    headers,
		Body:       body,
		StatusCode: status,
		FetchedAt:  time.Now(),
		Truncated:  truncated,
	}, nil
}

func (cdc *ChromedpClient) Get(ctx context.Context, url string) (*Response, error) {
	return cdc.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (cdc *ChromedpClient) Close() error {
	cdc.closeOnce.Do(func() {
		cdc.browserCancel()
		cdc.allocCancel()
	})
	return nil
}
