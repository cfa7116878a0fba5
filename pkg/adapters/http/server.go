// Package http exposes the generator over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	datagen "github.com/tqwhite/unity-data-generator-sub000"
	"github.com/tqwhite/unity-data-generator-sub000/internal/dto"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/facilitator"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// maxBodyBytes caps request bodies; candidates and specifications are text documents.
const maxBodyBytes = 8 << 20

// Engine is the part of *datagen.Engine the server needs.
type Engine interface {
	Generate(ctx context.Context, t datagen.Target) (*facilitator.Result, error)
	GenerateBatch(ctx context.Context, targets []datagen.Target, concurrency int) []datagen.BatchResult
	Conversations() []string
	Validate(ctx context.Context, candidate string) (domain.ValidationOutcome, error)
	Audit() ports.AuditSink
}

// Server holds the handlers.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithStreams enables GET /events. The same manager's Hooks must be installed on the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine: engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/generate", s.Generate)
	r.Post("/generate/batch", s.GenerateBatch)
	r.Get("/conversations", s.ListConversations)
	r.Get("/runs", s.ListRuns)
	r.Get("/runs/{runID}/audit", s.GetAudit)
	r.Post("/validate", s.Validate)
	if s.Streams != nil {
		r.Get("/events", s.SubscribeEvents)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "datagen-http",
		"version": strings.TrimSpace(datagen.Version),
	})
}

// Generate handles POST /generate. An invalid final candidate is still a 200;
// clients must inspect isValid. Engine failures answer 502 with the partial report.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var body dto.GenerateRequest
	if err := decodeBody(r, &body); err != nil {
		s.logger.Warn("Generate: invalid request body", "error", err)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := body.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.Engine.Generate(r.Context(), body.ToTarget())
	report := dto.NewRunReport(body.Target, res, err)
	if err != nil {
		s.logger.Error("Generate failed", "target", body.Target, "error", err)
		s.writeJSON(w, http.StatusBadGateway, report)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// GenerateBatch handles POST /generate/batch. Per-target failures are reported inline.
func (s *Server) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	var body dto.BatchRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(body.Targets) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("targets must not be empty"))
		return
	}
	targets := make([]datagen.Target, len(body.Targets))
	for i, t := range body.Targets {
		if err := t.Validate(); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("targets[%d]: %w", i, err))
			return
		}
		targets[i] = t.ToTarget()
	}

	results := s.Engine.GenerateBatch(r.Context(), targets, body.Concurrency)
	s.writeJSON(w, http.StatusOK, dto.NewBatchReports(results))
}

// ListConversations handles GET /conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Conversations())
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.Engine.Audit().Runs(r.Context())
	if err != nil {
		s.logger.Error("ListRuns failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []string{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

// GetAudit handles GET /runs/{runID}/audit.
func (s *Server) GetAudit(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	entries, err := s.Engine.Audit().Entries(r.Context(), runID)
	if errors.Is(err, domain.ErrRunNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Error("GetAudit failed", "run_id", runID, "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// Validate handles POST /validate. The body is the raw candidate.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	outcome, err := s.Engine.Validate(r.Context(), string(body))
	if err != nil {
		s.logger.Error("Validate failed", "error", err)
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func decodeBody(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
