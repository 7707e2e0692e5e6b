package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/phishsentry/phishsentry/internal/app"
	"github.com/phishsentry/phishsentry/internal/logging"
	"github.com/phishsentry/phishsentry/internal/reputation"
	"github.com/phishsentry/phishsentry/internal/utils"

	_ "github.com/phishsentry/phishsentry/internal/server/docs" // swagger spec
)

// MaxBatchURLs bounds a single batch job.
const MaxBatchURLs = 1000

// maxBodyLog caps how much of a request body is echoed into the log.
const maxBodyLog = 2048

// Server is the HTTP + WebSocket API surface for PhishSentry.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer creates a new Server with its own Orchestrator.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = cfg.AppConfig.ListenAddr
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	comps, err := app.NewComponents(cfg.AppConfig, logger, cfg.ComponentOptions...)
	if err != nil {
		return nil, err
	}
	orch, err := app.NewOrchestrator(cfg.AppConfig, comps, logger)
	if err != nil {
		_ = comps.Close()
		return nil, err
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       chi.NewRouter(),
		logger:       logger.With(logging.Field{Key: "component", Value: "server"}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Any origin, same as corsMiddleware.
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/scan", s.optionsHandler("POST"))
	r.Options("/jobs", s.optionsHandler("GET, POST"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))
	r.Options("/blocklist", s.optionsHandler("GET, POST"))
	r.Options("/blocklist/{host}", s.optionsHandler("DELETE"))

	r.Get("/healthz", s.handleHealth)

	r.Post("/scan", s.handleScan)

	// Jobs over REST
	r.Post("/jobs", s.handleStartBatchJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSocket for job progress
	r.Get("/ws/jobs", s.handleBatchWS)

	// Blocklist management
	r.Get("/blocklist", s.handleListBlocklist)
	r.Post("/blocklist", s.handleAddBlocklist)
	r.Delete("/blocklist/{host}", s.handleRemoveBlocklist)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			logged := bodyBytes
			if len(logged) > maxBodyLog {
				logged = logged[:maxBodyLog]
			}
			fields = append(fields, logging.Field{Key: "body", Value: string(logged)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() error {
	if s.orchestrator == nil {
		return nil
	}
	return s.orchestrator.Close()
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScan godoc
// @Summary Scan and score a single URL
// @Tags scan
// @Accept json
// @Produce json
// @Param request body ScanRequest true "URL to scan"
// @Success 200 {object} model.Report
// @Failure 400 {object} ErrorResponse
// @Router /scan [post]
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var body ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	report, err := s.orchestrator.ScanURL(r.Context(), body.URL)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, utils.ErrInvalidURL) {
			status = http.StatusBadRequest
		}
		s.logger.Warn("scanning url", logging.Field{Key: "url", Value: body.URL}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, status, err.Error())
		return
	}
	s.logger.Info("scanned url",
		logging.Field{Key: "url", Value: report.Scan.URL},
		logging.Field{Key: "risk_level", Value: string(report.Score.RiskLevel)})
	writeJSON(w, http.StatusOK, report)
}

func decodeBatch(r *http.Request) ([]string, error) {
	var body BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, errors.New("invalid JSON")
	}
	return validateBatch(body.URLs)
}

func validateBatch(urls []string) ([]string, error) {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no urls given")
	}
	if len(out) > MaxBatchURLs {
		return nil, errors.New("too many urls")
	}
	return out, nil
}

// Jobs (REST)

func (s *Server) handleStartBatchJob(w http.ResponseWriter, r *http.Request) {
	urls, err := decodeBatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The job outlives the request.
	job, err := s.orchestrator.StartBatchJob(context.Background(), urls)
	if err != nil {
		s.logger.Warn("starting batch job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("started batch job", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "urls", Value: len(urls)})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.orchestrator.GetJob(jobID)
	if err != nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.orchestrator.CancelJob(jobID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	s.logger.Info("listed jobs", logging.Field{Key: "count", Value: len(jobs)})
	writeJSON(w, http.StatusOK, jobs)
}

// WebSockets

func (s *Server) handleBatchWS(w http.ResponseWriter, r *http.Request) {
	urls, err := validateBatch(r.URL.Query()["url"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartBatchJob(r.Context(), urls)
	if err != nil {
		s.logger.Warn("starting batch job", logging.Field{Key: "error", Value: err.Error()})
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started batch job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			_ = s.orchestrator.CancelJob(job.ID)
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
}

// Blocklist

func (s *Server) blocklist(w http.ResponseWriter) *reputation.SQLiteBlocklist {
	bl := s.orchestrator.Components().Blocklist
	if bl == nil {
		writeError(w, http.StatusNotImplemented, "blocklist not configured")
	}
	return bl
}

func (s *Server) handleListBlocklist(w http.ResponseWriter, r *http.Request) {
	bl := s.blocklist(w)
	if bl == nil {
		return
	}
	entries, err := bl.List(r.Context())
	if err != nil {
		s.logger.Warn("listing blocklist", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAddBlocklist(w http.ResponseWriter, r *http.Request) {
	bl := s.blocklist(w)
	if bl == nil {
		return
	}
	var body BlocklistRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(body.Host) == "" {
		writeError(w, http.StatusBadRequest, "missing host")
		return
	}
	if body.Source == "" {
		body.Source = "api"
	}
	entry := reputation.Entry{Host: body.Host, Score: body.Score, Threats: body.Threats, Source: body.Source}
	if err := bl.Add(r.Context(), entry); err != nil {
		s.logger.Warn("adding blocklist entry", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stored, err := bl.Get(r.Context(), body.Host)
	if err != nil {
		s.logger.Error("reading back blocklist entry", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "failed to read stored entry")
		return
	}
	s.logger.Info("added blocklist entry", logging.Field{Key: "host", Value: stored.Host})
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleRemoveBlocklist(w http.ResponseWriter, r *http.Request) {
	bl := s.blocklist(w)
	if bl == nil {
		return
	}
	host := chi.URLParam(r, "host")
	if err := bl.Remove(r.Context(), host); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, reputation.ErrEntryNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	s.logger.Info("removed blocklist entry", logging.Field{Key: "host", Value: host})
	writeJSON(w, http.StatusNoContent, nil)
}
