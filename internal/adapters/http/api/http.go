// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/welltest/internal/domain/detect"
	"github.com/okian/welltest/internal/domain/model"
	"github.com/okian/welltest/internal/domain/scoring"
)

// Default limits.
const (
	defaultMaxWorstLimit  = 100
	defaultWorstLimit     = 5
	defaultMaxUploadBytes = 64 << 20
)

// Detector runs detection for the /detect endpoint.
type Detector interface {
	Params() detect.Params
	Detect(ctx context.Context, s model.Series, p detect.Params) (detect.Result, error)
	Trace(ctx context.Context, s model.Series, p detect.Params) (detect.Trace, error)
}

// Scorer scores interval lists for the /score endpoint.
type Scorer interface {
	Score(ctx context.Context, truth, predicted []model.Interval, s model.Series, opts ...scoring.Option) (float64, error)
}

// JobSubmitter queues records for asynchronous analysis.
type JobSubmitter interface {
	Submit(ctx context.Context, job model.Job) (model.Job, error)
}

// ResultReader exposes stored analyses.
type ResultReader interface {
	Results(ctx context.Context) []model.Analysis
	Result(ctx context.Context, file string) (model.Analysis, error)
	Worst(ctx context.Context, n int) ([]model.Analysis, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Detector
	Scorer
	JobSubmitter
	ResultReader
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	detectHandler  *DetectHandler
	scoreHandler   *ScoreHandler
	jobsHandler    *JobsHandler
	resultsHandler *ResultsHandler

	maxWorstLimit  int
	maxUploadBytes int64
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxWorstLimit caps GET /results/worst?limit.
func WithMaxWorstLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxWorstLimit = n
		}
	}
}

// WithMaxUploadBytes caps the request body of POST /detect and POST /score.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxWorstLimit:  defaultMaxWorstLimit,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.detectHandler = NewDetectHandler(deps, s.maxUploadBytes)
	s.scoreHandler = NewScoreHandler(deps, s.maxUploadBytes)
	s.jobsHandler = NewJobsHandler(deps)
	s.resultsHandler = NewResultsHandler(deps, s.maxWorstLimit)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/detect", MetricsMiddleware(s.detectHandler.HandleDetect, "detect"))
	mux.HandleFunc("/score", MetricsMiddleware(s.scoreHandler.HandleScore, "score"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.jobsHandler.HandlePostJob, "jobs"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandleList, "results"))
	mux.HandleFunc("/results/", MetricsMiddleware(s.resultsHandler.HandleGet, "result"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
