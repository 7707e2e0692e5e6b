// Package demoserver serves deterministic phishing and benign fixtures for
// exercising the scanner without touching the internet.
package demoserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
)

// DemoServer serves the fixtures from GetAllPages plus redirect chains.
type DemoServer struct {
	cfg   Config
	pages map[string]PageDefinition
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config) *DemoServer {
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = DefaultConfig().MaxHops
	}
	pageMap := make(map[string]PageDefinition)
	for _, p := range GetAllPages() {
		pageMap[p.Path] = p
	}
	return &DemoServer{cfg: cfg, pages: pageMap}
}

// Handler returns the routing for all fixtures.
func (s *DemoServer) Handler() http.Handler {
	mux := http.NewServeMux()

	for path := range s.pages {
		p := path
		pattern := p
		if p == "/" {
			pattern = "/{$}"
		}
		mux.HandleFunc("GET "+pattern, s.pageHandler(p))
	}

	// /hop/{n} redirects n times before landing on /.
	mux.HandleFunc("GET /hop/{n}", s.hopHandler)

	// /loop/a and /loop/b redirect to each other forever.
	mux.HandleFunc("GET /loop/a", redirectTo("/loop/b", http.StatusFound))
	mux.HandleFunc("GET /loop/b", redirectTo("/loop/a", http.StatusFound))

	// /go?to=URL is an open redirect.
	mux.HandleFunc("GET /go", s.openRedirectHandler)

	mux.HandleFunc("GET /demo/pages", s.listPagesHandler)
	return mux
}

// Start listens on cfg.Port.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo server starting on http://localhost%s\n", addr)
	fmt.Printf("Fixture index at http://localhost%s/demo/pages\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *DemoServer) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := s.pages[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		for k, v := range page.Headers {
			w.Header().Set(k, v)
		}
		contentType := page.ContentType
		if contentType == "" {
			contentType = "text/html; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)

		status := page.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(page.Body))
	}
}

func redirectTo(location string, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", location)
		w.WriteHeader(status)
	}
}

func (s *DemoServer) hopHandler(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 0 || n > s.cfg.MaxHops {
		http.Error(w, "invalid hop count", http.StatusBadRequest)
		return
	}
	next := "/"
	if n > 1 {
		next = "/hop/" + strconv.Itoa(n-1)
	}
	if n == 0 {
		s.pageHandler("/")(w, r)
		return
	}
	redirectTo(next, http.StatusMovedPermanently)(w, r)
}

func (s *DemoServer) openRedirectHandler(w http.ResponseWriter, r *http.Request) {
	to := r.URL.Query().Get("to")
	if to == "" {
		http.Error(w, "missing to parameter", http.StatusBadRequest)
		return
	}
	redirectTo(to, http.StatusFound)(w, r)
}

// listPagesHandler returns the fixture catalogue.
func (s *DemoServer) listPagesHandler(w http.ResponseWriter, r *http.Request) {
	type PageInfo struct {
		Path        string `json:"path"`
		Description string `json:"description"`
	}
	pages := make([]PageInfo, 0, len(s.pages)+3)
	for _, p := range s.pages {
		pages = append(pages, PageInfo{Path: p.Path, Description: p.Description})
	}
	pages = append(pages,
		PageInfo{Path: "/hop/{n}", Description: "Redirect chain of n hops ending at /"},
		PageInfo{Path: "/loop/a", Description: "Redirect loop between /loop/a and /loop/b"},
		PageInfo{Path: "/go?to=URL", Description: "Open redirect"},
	)
	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(pages)
}
