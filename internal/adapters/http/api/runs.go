// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/sbtsim/internal/domain/model"
	"github.com/okian/sbtsim/internal/domain/simulation"
)

// Default page size for GET /runs.
const defaultRecentLimit = 20

// RunsDependencies defines the interface for asynchronous run operations.
type RunsDependencies interface {
	SubmitRun(ctx context.Context, p model.Parameters) (model.Run, bool, error)
	GetRun(ctx context.Context, runID string) (model.Run, error)
	RecentRuns(ctx context.Context, n int) ([]model.Run, error)
}

// RunsHandler handles run submission and retrieval.
type RunsHandler struct {
	deps        RunsDependencies
	defaultSeed int64
	maxLimit    int
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps RunsDependencies, defaultSeed int64, maxLimit int) *RunsHandler {
	return &RunsHandler{deps: deps, defaultSeed: defaultSeed, maxLimit: maxLimit}
}

// HandleRuns dispatches POST /runs and GET /runs.
func (h *RunsHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePostRun(w, r)
	case http.MethodGet:
		h.handleListRuns(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handlePostRun handles POST /runs requests.
func (h *RunsHandler) handlePostRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_run"
	var req parametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameters", WrapKind(op, ErrBadRequest, err))
		return
	}

	run, duplicate, err := h.deps.SubmitRun(r.Context(), req.toParameters(h.defaultSeed))
	if err != nil {
		switch {
		case errors.Is(err, simulation.ErrInvalidParameters):
			writeError(w, http.StatusBadRequest, "invalid_parameters", Wrap(op, err))
		case strings.Contains(err.Error(), "queue full"):
			writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}

	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{RunID: run.RunID, Status: string(run.Status), Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{RunID: run.RunID, Status: string(run.Status), Duplicate: false})
}

// handleListRuns handles GET /runs?limit=N requests.
func (h *RunsHandler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_runs"
	n := defaultRecentLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if parsed > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		n = parsed
	}

	runs, err := h.deps.RecentRuns(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	out := make([]runResponse, len(runs))
	for i, run := range runs {
		out[i] = toRunResponse(run)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetRun handles GET /runs/{run_id} requests.
func (h *RunsHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_run"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	runID := strings.TrimPrefix(r.URL.Path, "/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	run, err := h.deps.GetRun(r.Context(), runID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}
