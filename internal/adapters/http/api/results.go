package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/welltest/internal/adapters/repository"
)

// ResultsHandler handles reads of stored analyses.
type ResultsHandler struct {
	deps     ResultReader
	maxLimit int
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultReader, maxLimit int) *ResultsHandler {
	return &ResultsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleList handles GET /results requests.
func (h *ResultsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Results(r.Context()))
}

// HandleGet handles GET /results/{file} and GET /results/worst?limit=N.
func (h *ResultsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_result"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/results/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if name == "worst" {
		h.handleWorst(w, r)
		return
	}

	a, err := h.deps.Result(r.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ResultsHandler) handleWorst(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_worst"
	n := defaultWorstLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	worst, err := h.deps.Worst(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, worst)
}
