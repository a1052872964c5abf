package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/welltest/internal/app"
	"github.com/okian/welltest/internal/domain/model"
)

// JobsHandler handles job submission requests.
type JobsHandler struct {
	deps JobSubmitter
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobSubmitter) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// jobRequest mirrors the OpenAPI schema for POST /jobs.
type jobRequest struct {
	File string `json:"file"`
}

func (j jobRequest) validate() error {
	switch {
	case strings.TrimSpace(j.File) == "":
		return errors.New("missing file")
	case strings.ContainsAny(j.File, `/\`) || j.File == "." || j.File == "..":
		return errors.New("file must be a plain file name")
	}
	return nil
}

type jobResponse struct {
	JobID  string `json:"job_id"`
	File   string `json:"file"`
	Status string `json:"status"`
}

// HandlePostJob handles POST /jobs requests.
func (h *JobsHandler) HandlePostJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_job"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	job, err := h.deps.Submit(r.Context(), model.Job{File: req.File})
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, jobResponse{JobID: job.ID, File: job.File, Status: "queued"})
	case errors.Is(err, service.ErrDuplicateJob):
		writeError(w, http.StatusConflict, "duplicate", WrapKind(op, ErrConflict, err))
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrNoSource):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
