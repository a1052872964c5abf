package api

import (
	"errors"
	"net/http"

	"github.com/okian/welltest/internal/adapters/ingest"
	"github.com/okian/welltest/internal/domain/detect"
	"github.com/okian/welltest/internal/domain/model"
)

// DetectHandler handles detection requests.
type DetectHandler struct {
	deps     Detector
	maxBytes int64
}

// NewDetectHandler creates a new detect handler.
func NewDetectHandler(deps Detector, maxBytes int64) *DetectHandler {
	return &DetectHandler{deps: deps, maxBytes: maxBytes}
}

type detectResponse struct {
	Recovery []model.Interval `json:"recovery"`
	Drawdown []model.Interval `json:"drop"`
	Padded   bool             `json:"padded"`
	Samples  int              `json:"samples"`
	Stats    detect.Stats     `json:"stats"`
	Params   detect.Params    `json:"params"`
	Trace    *detect.Trace    `json:"trace,omitempty"`
}

// HandleDetect handles POST /detect. The body is a time,pressure CSV; query
// keys override detector parameters and trace=1 adds the smoothed pressure
// and derivative to the response.
func (h *DetectHandler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	const op = "api.detect"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	params, err := paramsFromQuery(h.deps.Params(), q)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_params", WrapKind(op, ErrInvalidParams, err))
		return
	}

	series, err := ingest.ReadSeries(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Detect(r.Context(), series, params)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}

	resp := detectResponse{
		Recovery: res.Recovery,
		Drawdown: res.Drawdown,
		Padded:   res.Padded,
		Samples:  series.Len(),
		Stats:    res.Stats,
		Params:   params,
	}
	if q.Get("trace") == "1" || q.Get("trace") == "true" {
		tr, err := h.deps.Trace(r.Context(), series, params)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		resp.Trace = &tr
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeDomainError maps detection and scoring errors to status codes.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrConfiguration):
		writeError(w, http.StatusUnprocessableEntity, "invalid_params", WrapKind(op, ErrInvalidParams, err))
	case errors.Is(err, model.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
