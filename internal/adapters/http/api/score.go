package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/welltest/internal/domain/model"
	"github.com/okian/welltest/internal/domain/scoring"
)

// ScoreHandler handles scoring requests.
type ScoreHandler struct {
	deps     Scorer
	maxBytes int64
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps Scorer, maxBytes int64) *ScoreHandler {
	return &ScoreHandler{deps: deps, maxBytes: maxBytes}
}

// scoreRequest mirrors the OpenAPI schema for POST /score.
type scoreRequest struct {
	Truth        []model.Interval `json:"truth"`
	Predicted    []model.Interval `json:"predicted"`
	Time         []float64        `json:"time"`
	Tolerance    *float64         `json:"tolerance,omitempty"`
	MAEThreshold *float64         `json:"mae_threshold,omitempty"`
}

func (s scoreRequest) validate() error {
	switch {
	case len(s.Time) == 0:
		return errors.New("missing time")
	case s.Tolerance != nil && *s.Tolerance < 0:
		return errors.New("tolerance must not be negative")
	case s.MAEThreshold != nil && *s.MAEThreshold < 0:
		return errors.New("mae_threshold must not be negative")
	}
	return nil
}

func (s scoreRequest) options() []scoring.Option {
	var opts []scoring.Option
	if s.Tolerance != nil {
		opts = append(opts, scoring.WithTimeTolerance(*s.Tolerance))
	}
	if s.MAEThreshold != nil {
		opts = append(opts, scoring.WithMAEThreshold(*s.MAEThreshold))
	}
	return opts
}

type scoreResponse struct {
	F1 float64 `json:"f1"`
}

// HandleScore handles POST /score requests.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Only the time axis takes part in scoring.
	series, err := model.NewSeries(req.Time, make([]float64, len(req.Time)))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	f1, err := h.deps.Score(r.Context(), req.Truth, req.Predicted, series, req.options()...)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{F1: f1})
}
