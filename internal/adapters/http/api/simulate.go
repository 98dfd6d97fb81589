// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/sbtsim/internal/domain/model"
	"github.com/okian/sbtsim/internal/domain/simulation"
)

// SimulateDependencies defines the interface for synchronous simulation.
type SimulateDependencies interface {
	Simulate(ctx context.Context, p model.Parameters) (model.Result, error)
}

// SimulateHandler handles synchronous simulation requests.
type SimulateHandler struct {
	deps        SimulateDependencies
	defaultSeed int64
}

// NewSimulateHandler creates a new simulate handler.
func NewSimulateHandler(deps SimulateDependencies, defaultSeed int64) *SimulateHandler {
	return &SimulateHandler{deps: deps, defaultSeed: defaultSeed}
}

// HandleSimulate handles POST /simulate requests.
// Runs the simulation inline and returns the three output series; nothing
// is stored. This is the dashboard's re-run path.
func (h *SimulateHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "api.simulate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req parametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameters", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.Simulate(r.Context(), req.toParameters(h.defaultSeed))
	if err != nil {
		if errors.Is(err, simulation.ErrInvalidParameters) {
			writeError(w, http.StatusBadRequest, "invalid_parameters", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(result))
}
