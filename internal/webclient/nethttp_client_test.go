package webclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/webclient"
)

func newClient(t *testing.T, cfg webclient.Config, hc *http.Client) *webclient.NetHTTPClient {
	t.Helper()
	client, err := webclient.NewNetHTTPClient(cfg, logging.Nop{}, hc)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// ─── Do: real HTTP round-trip via httptest ──────────────────────────────

func TestNetHTTPClient_Do_GET_ReturnsBody(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "hello")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "response body")
	}))
	defer ts.Close()

	client := newClient(t, webclient.Config{}, ts.Client())
	resp, err := client.Do(context.Background(), &webclient.Request{Method: "GET", URL: ts.URL + "/test"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "response body" {
		t.Errorf("expected 'response body', got %q", resp.Body)
	}
	if resp.Headers.Get("X-Custom") != "hello" {
		t.Errorf("expected X-Custom header 'hello', got %q", resp.Headers.Get("X-Custom"))
	}
}

func TestNetHTTPClient_DoesNotFollowRedirects(t *testing.T) {
	t.Parallel()
	var landed bool
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landing", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		landed = true
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	// ts.Client() follows redirects by default; the wrapper must override that.
	client := newClient(t, webclient.Config{}, ts.Client())
	resp, err := client.Get(context.Background(), ts.URL+"/start")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if !resp.IsRedirect() {
		t.Error("IsRedirect() = false for 302")
	}
	if resp.Headers.Get("Location") != "/landing" {
		t.Errorf("Location = %q", resp.Headers.Get("Location"))
	}
	if landed {
		t.Error("client followed the redirect")
	}
}

func TestNetHTTPClient_SetsUserAgent(t *testing.T) {
	t.Parallel()
	got := make(chan string, 2)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	client := newClient(t, webclient.Config{UserAgent: "phish-test/1"}, ts.Client())
	if _, err := client.Get(context.Background(), ts.URL); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ua := <-got; ua != "phish-test/1" {
		t.Errorf("User-Agent = %q", ua)
	}

	hdrs := http.Header{}
	hdrs.Set("User-Agent", "override")
	if _, err := client.Do(context.Background(), &webclient.Request{URL: ts.URL, Headers: hdrs}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if ua := <-got; ua != "override" {
		t.Errorf("explicit User-Agent not forwarded, got %q", ua)
	}
}

func TestNetHTTPClient_TruncatesBody(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 100))
	}))
	defer ts.Close()

	client := newClient(t, webclient.Config{MaxBodyBytes: 10}, ts.Client())
	resp, err := client.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Body) != 10 || !resp.Truncated {
		t.Errorf("len(body) = %d truncated = %v, want 10 true", len(resp.Body), resp.Truncated)
	}
}

func TestNetHTTPClient_BodyReadErrorKeepsResponse(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = io.WriteString(w, "short")
	}))
	defer ts.Close()

	client := newClient(t, webclient.Config{}, ts.Client())
	resp, err := client.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Get: %v, want a response with BodyErr", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.BodyErr == nil || resp.BodyComplete() {
		t.Errorf("BodyErr = %v BodyComplete = %v, want error and false", resp.BodyErr, resp.BodyComplete())
	}
	if len(resp.Body) != 0 {
		t.Errorf("len(Body) = %d, want 0", len(resp.Body))
	}
}

func TestNetHTTPClient_Do_PropagatesStatusCode(t *testing.T) {
	t.Parallel()
	for _, code := range []int{200, 301, 404, 500} {
		code := code
		t.Run(http.StatusText(code), func(t *testing.T) {
			t.Parallel()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			}))
			defer ts.Close()

			client := newClient(t, webclient.Config{}, ts.Client())
			resp, err := client.Get(context.Background(), ts.URL)
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			if resp.StatusCode != code {
				t.Errorf("expected %d, got %d", code, resp.StatusCode)
			}
		})
	}
}

func TestNetHTTPClient_Do_NilRequest_ReturnsError(t *testing.T) {
	t.Parallel()
	client := newClient(t, webclient.Config{}, nil)
	if _, err := client.Do(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil request")
	}
}

func TestNetHTTPClient_Do_ConnectionRefused_ReturnsError(t *testing.T) {
	t.Parallel()
	client := newClient(t, webclient.Config{}, &http.Client{Timeout: time.Second})
	_, err := client.Get(context.Background(), "http://127.0.0.1:1") // port 1 is unlikely to be open
	if err == nil {
		t.Fatal("expected error for connection refused")
	}
}

func TestNetHTTPClient_Do_ContextCanceled_ReturnsError(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	client := newClient(t, webclient.Config{}, ts.Client())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Get(ctx, ts.URL); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
