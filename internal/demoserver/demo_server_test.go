package demoserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phishsentry/phishsentry/internal/demoserver"
)

func serve(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	h := demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler_HomeHasHardeningHeaders(t *testing.T) {
	t.Parallel()
	rec := serve(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing CSP header")
	}
	if !strings.Contains(rec.Body.String(), "<title>Example Domain</title>") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_LoginPage(t *testing.T) {
	t.Parallel()
	rec := serve(t, "/login")
	body := rec.Body.String()
	if !strings.Contains(body, `type="password"`) {
		t.Error("login fixture lacks a password input")
	}
	if n := strings.Count(body, `<a href="https://www.paypal.com/`); n != 5 {
		t.Errorf("external links = %d, want 5", n)
	}
}

func TestHandler_Hops(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path     string
		status   int
		location string
	}{
		{"/hop/3", http.StatusMovedPermanently, "/hop/2"},
		{"/hop/1", http.StatusMovedPermanently, "/"},
		{"/hop/0", http.StatusOK, ""},
		{"/hop/x", http.StatusBadRequest, ""},
		{"/hop/500", http.StatusBadRequest, ""},
		{"/loop/a", http.StatusFound, "/loop/b"},
		{"/loop/b", http.StatusFound, "/loop/a"},
		{"/go?to=https://evil.example/", http.StatusFound, "https://evil.example/"},
		{"/go", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		rec := serve(t, tt.path)
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.path, rec.Code, tt.status)
		}
		if got := rec.Header().Get("Location"); got != tt.location {
			t.Errorf("%s: Location = %q, want %q", tt.path, got, tt.location)
		}
	}
}

func TestHandler_StatusAndContentType(t *testing.T) {
	t.Parallel()
	if rec := serve(t, "/error"); rec.Code != http.StatusInternalServerError {
		t.Errorf("/error status = %d", rec.Code)
	}
	if rec := serve(t, "/download"); rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("/download content type = %q", rec.Header().Get("Content-Type"))
	}
	if rec := serve(t, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("/nope status = %d", rec.Code)
	}
}

func TestHandler_ListPages(t *testing.T) {
	t.Parallel()
	rec := serve(t, "/demo/pages")
	var pages []struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&pages); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pages) != len(demoserver.GetAllPages())+3 {
		t.Errorf("listed %d pages", len(pages))
	}
}
