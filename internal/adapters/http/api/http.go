// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/sbtsim/internal/domain/model"
	"github.com/okian/sbtsim/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Simulate runs a simulation synchronously (dashboard path).
	Simulate(ctx context.Context, p model.Parameters) (model.Result, error)

	// SubmitRun enqueues an asynchronous run. The bool reports whether the
	// submission was answered from the parameter memo.
	SubmitRun(ctx context.Context, p model.Parameters) (model.Run, bool, error)

	// Read operations expose stored runs and the run leaderboard.
	GetRun(ctx context.Context, runID string) (model.Run, error)
	RecentRuns(ctx context.Context, n int) ([]model.Run, error)
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, runID string) (Entry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	simulateHandler    *SimulateHandler
	runsHandler        *RunsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	dashboardHandler   *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, defaultSeed int64, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		simulateHandler:    NewSimulateHandler(deps, defaultSeed),
		runsHandler:        NewRunsHandler(deps, defaultSeed, maxLeaderboardLimit),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
		dashboardHandler:   newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/simulate", MetricsMiddleware(s.simulateHandler.HandleSimulate, "simulate"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandleRuns, "runs"))
	mux.HandleFunc("/runs/", MetricsMiddleware(s.runsHandler.HandleGetRun, "run"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

// parametersRequest mirrors the OpenAPI schema shared by POST /simulate and
// POST /runs. The seed is optional; omitted seeds use the service default.
type parametersRequest struct {
	PopulationSize          int     `json:"population_size"`
	Years                   int     `json:"years"`
	EvaluationsPerYear      int     `json:"evaluations_per_year"`
	SkillGrowthRate         float64 `json:"skill_growth_rate"`
	SkillWeight             float64 `json:"skill_weight"`
	WellbeingWeight         float64 `json:"wellbeing_weight"`
	CompanyImpactMultiplier float64 `json:"company_impact_multiplier"`
	RandomSeed              *int64  `json:"random_seed,omitempty"`
}

func (r parametersRequest) validate() error {
	switch {
	case r.PopulationSize <= 0:
		return errors.New("population_size must be positive")
	case r.Years <= 0:
		return errors.New("years must be positive")
	case r.EvaluationsPerYear <= 0:
		return errors.New("evaluations_per_year must be positive")
	}
	return nil
}

func (r parametersRequest) toParameters(defaultSeed int64) model.Parameters {
	seed := defaultSeed
	if r.RandomSeed != nil {
		seed = *r.RandomSeed
	}
	return model.Parameters{
		PopulationSize:          r.PopulationSize,
		Years:                   r.Years,
		EvaluationsPerYear:      r.EvaluationsPerYear,
		SkillGrowthRate:         r.SkillGrowthRate,
		SkillWeight:             r.SkillWeight,
		WellbeingWeight:         r.WellbeingWeight,
		CompanyImpactMultiplier: r.CompanyImpactMultiplier,
		RandomSeed:              seed,
	}
}

// parametersResponse is the JSON shape of stored run parameters.
type parametersResponse struct {
	PopulationSize          int     `json:"population_size"`
	Years                   int     `json:"years"`
	EvaluationsPerYear      int     `json:"evaluations_per_year"`
	SkillGrowthRate         float64 `json:"skill_growth_rate"`
	SkillWeight             float64 `json:"skill_weight"`
	WellbeingWeight         float64 `json:"wellbeing_weight"`
	CompanyImpactMultiplier float64 `json:"company_impact_multiplier"`
	RandomSeed              int64   `json:"random_seed"`
}

// resultResponse carries the three aligned series of a completed run.
type resultResponse struct {
	TimePoints          []int     `json:"time_points"`
	AvgIndividualScores []float64 `json:"avg_individual_scores"`
	CompanyScores       []float64 `json:"company_scores"`
}

// runResponse is the JSON shape for a run envelope.
type runResponse struct {
	RunID       string             `json:"run_id"`
	Status      string             `json:"status"`
	SubmittedAt time.Time          `json:"submitted_at"`
	FinishedAt  *time.Time         `json:"finished_at,omitempty"`
	Parameters  parametersResponse `json:"parameters"`
	Result      *resultResponse    `json:"result,omitempty"`
	FailReason  string             `json:"fail_reason,omitempty"`
}

func toResultResponse(r model.Result) resultResponse {
	return resultResponse{
		TimePoints:          r.TimePoints,
		AvgIndividualScores: r.AvgIndividualScores,
		CompanyScores:       r.CompanyScores,
	}
}

func toRunResponse(run model.Run) runResponse {
	resp := runResponse{
		RunID:       run.RunID,
		Status:      string(run.Status),
		SubmittedAt: run.SubmittedAt,
		FailReason:  run.FailReason,
		Parameters: parametersResponse{
			PopulationSize:          run.Params.PopulationSize,
			Years:                   run.Params.Years,
			EvaluationsPerYear:      run.Params.EvaluationsPerYear,
			SkillGrowthRate:         run.Params.SkillGrowthRate,
			SkillWeight:             run.Params.SkillWeight,
			WellbeingWeight:         run.Params.WellbeingWeight,
			CompanyImpactMultiplier: run.Params.CompanyImpactMultiplier,
			RandomSeed:              run.Params.RandomSeed,
		},
	}
	if !run.FinishedAt.IsZero() {
		t := run.FinishedAt
		resp.FinishedAt = &t
	}
	if run.Result != nil {
		r := toResultResponse(*run.Result)
		resp.Result = &r
	}
	return resp
}

type ackResponse struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
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

// isNotFound allows the API to translate upstream not-found errors to 404.
// This stays generic to avoid tight coupling with specific packages.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
