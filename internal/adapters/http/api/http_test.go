package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"testing"

	"github.com/okian/sbtsim/internal/adapters/http/api"
	"github.com/okian/sbtsim/internal/domain/model"
	"github.com/okian/sbtsim/internal/domain/simulation"
	"github.com/okian/sbtsim/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockService implements api.Dependencies for handler tests.
type mockService struct {
	simulateResult model.Result
	simulateErr    error

	submitRun  model.Run
	submitDup  bool
	submitErr  error
	submitSeen []model.Parameters

	runs    map[string]model.Run
	recent  []model.Run
	topN    []types.Entry
	rank    types.Entry
	rankErr error
}

func (m *mockService) Simulate(ctx context.Context, p model.Parameters) (model.Result, error) {
	if m.simulateErr != nil {
		return model.Result{}, m.simulateErr
	}
	return m.simulateResult, nil
}

func (m *mockService) SubmitRun(ctx context.Context, p model.Parameters) (model.Run, bool, error) {
	m.submitSeen = append(m.submitSeen, p)
	if m.submitErr != nil {
		return model.Run{}, false, m.submitErr
	}
	return m.submitRun, m.submitDup, nil
}

func (m *mockService) GetRun(ctx context.Context, runID string) (model.Run, error) {
	if run, ok := m.runs[runID]; ok {
		return run, nil
	}
	return model.Run{}, errors.New("run not found")
}

func (m *mockService) RecentRuns(ctx context.Context, n int) ([]model.Run, error) {
	if n > len(m.recent) {
		return m.recent, nil
	}
	return m.recent[:n], nil
}

func (m *mockService) TopN(ctx context.Context, n int) ([]api.Entry, error) {
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockService) Rank(ctx context.Context, runID string) (api.Entry, error) {
	if m.rankErr != nil {
		return api.Entry{}, m.rankErr
	}
	return m.rank, nil
}

type mockStatsProvider struct {
	stats types.Stats
}

func (m *mockStatsProvider) GetStats() types.Stats {
	return m.stats
}

func newTestServer(svc *mockService) *http.ServeMux {
	server := api.NewServer(svc, &mockStatsProvider{stats: types.Stats{Started: true, WorkerCount: 4}}, 42, 100)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func validBody() []byte {
	return []byte(`{
		"population_size": 100,
		"years": 5,
		"evaluations_per_year": 4,
		"skill_growth_rate": 0.02,
		"skill_weight": 0.6,
		"wellbeing_weight": 0.4,
		"company_impact_multiplier": 1.5,
		"random_seed": 42
	}`)
}

func TestSimulateEndpoint(t *testing.T) {
	Convey("Given a server with a working engine", t, func() {
		svc := &mockService{
			simulateResult: model.Result{
				TimePoints:          []int{0, 1},
				AvgIndividualScores: []float64{54.2, 55.1},
				CompanyScores:       []float64{8130, 8265},
			},
		}
		mux := newTestServer(svc)

		Convey("When posting valid parameters to /simulate", func() {
			req := httptest.NewRequest(http.MethodPost, "/simulate", bytes.NewReader(validBody()))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should return the three series", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var body struct {
					TimePoints          []int     `json:"time_points"`
					AvgIndividualScores []float64 `json:"avg_individual_scores"`
					CompanyScores       []float64 `json:"company_scores"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.TimePoints, ShouldResemble, []int{0, 1})
				So(body.AvgIndividualScores, ShouldResemble, []float64{54.2, 55.1})
				So(body.CompanyScores, ShouldResemble, []float64{8130, 8265})
			})
		})

		Convey("When posting malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/simulate", bytes.NewReader([]byte("{not json")))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting a non-positive population", func() {
			req := httptest.NewRequest(http.MethodPost, "/simulate",
				bytes.NewReader([]byte(`{"population_size":0,"years":5,"evaluations_per_year":4}`)))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should reject with invalid_parameters", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "invalid_parameters")
			})
		})

		Convey("When the engine rejects the parameters", func() {
			svc.simulateErr = fmt.Errorf("%w: years must be positive", simulation.ErrInvalidParameters)

			req := httptest.NewRequest(http.MethodPost, "/simulate", bytes.NewReader(validBody()))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the error maps to 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When using GET instead of POST", func() {
			req := httptest.NewRequest(http.MethodGet, "/simulate", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the route is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRunsEndpoint(t *testing.T) {
	Convey("Given a server", t, func() {
		pending := model.Run{
			RunID:       "run-1",
			Status:      model.StatusPending,
			SubmittedAt: time.Now(),
		}
		svc := &mockService{
			submitRun: pending,
			runs:      map[string]model.Run{"run-1": pending},
			recent:    []model.Run{pending},
		}
		mux := newTestServer(svc)

		Convey("When submitting a new run", func() {
			req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(validBody()))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should be accepted with 202", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)

				var ack struct {
					RunID     string `json:"run_id"`
					Status    string `json:"status"`
					Duplicate bool   `json:"duplicate"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &ack), ShouldBeNil)
				So(ack.RunID, ShouldEqual, "run-1")
				So(ack.Status, ShouldEqual, "pending")
				So(ack.Duplicate, ShouldBeFalse)
			})

			Convey("And the default seed is applied when the request omits one", func() {
				req := httptest.NewRequest(http.MethodPost, "/runs",
					bytes.NewReader([]byte(`{"population_size":10,"years":1,"evaluations_per_year":1}`)))
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)

				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(svc.submitSeen[len(svc.submitSeen)-1].RandomSeed, ShouldEqual, 42)
			})
		})

		Convey("When resubmitting identical parameters", func() {
			svc.submitDup = true

			req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(validBody()))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the ack reports the duplicate with 200", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})
		})

		Convey("When the queue is saturated", func() {
			svc.submitErr = errors.New("run queue full")

			req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(validBody()))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should report backpressure with 429", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(rec.Body.String(), ShouldContainSubstring, "backpressure")
			})
		})

		Convey("When fetching an existing run", func() {
			req := httptest.NewRequest(http.MethodGet, "/runs/run-1", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the envelope comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"run_id":"run-1"`)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"pending"`)
			})
		})

		Convey("When fetching an unknown run", func() {
			req := httptest.NewRequest(http.MethodGet, "/runs/missing", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should return 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When listing recent runs", func() {
			req := httptest.NewRequest(http.MethodGet, "/runs", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the list comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "run-1")
			})
		})

		Convey("When listing with an invalid limit", func() {
			req := httptest.NewRequest(http.MethodGet, "/runs?limit=0", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When listing with a limit above the configured maximum", func() {
			req := httptest.NewRequest(http.MethodGet, "/runs?limit=4398046511104", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should reject with limit_exceeded", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
		})
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	Convey("Given a server with ranked runs", t, func() {
		svc := &mockService{
			topN: []types.Entry{
				{Rank: 1, RunID: "run-b", Score: 9100},
				{Rank: 2, RunID: "run-a", Score: 7200},
			},
		}
		mux := newTestServer(svc)

		Convey("When requesting the leaderboard", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=2", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then entries come back in rank order", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var entries []types.Entry
				So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].RunID, ShouldEqual, "run-b")
				So(entries[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When the limit is missing", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit exceeds the configured maximum", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=500", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should reject with limit_exceeded", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
		})
	})
}

func TestRankEndpoint(t *testing.T) {
	Convey("Given a server", t, func() {
		svc := &mockService{
			rank: types.Entry{Rank: 3, RunID: "run-1", Score: 6400},
		}
		mux := newTestServer(svc)

		Convey("When requesting an existing rank", func() {
			req := httptest.NewRequest(http.MethodGet, "/rank/run-1", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the entry comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var entry types.Entry
				So(json.Unmarshal(rec.Body.Bytes(), &entry), ShouldBeNil)
				So(entry.Rank, ShouldEqual, 3)
				So(entry.Score, ShouldEqual, 6400)
			})
		})

		Convey("When the run has no rank", func() {
			svc.rankErr = errors.New("run not found")

			req := httptest.NewRequest(http.MethodGet, "/rank/missing", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should return 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the run ID is empty", func() {
			req := httptest.NewRequest(http.MethodGet, "/rank/", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestStatsAndHealthEndpoints(t *testing.T) {
	Convey("Given a server", t, func() {
		mux := newTestServer(&mockService{})

		Convey("When requesting /stats", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the stats snapshot is served as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var stats types.Stats
				So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
				So(stats.Started, ShouldBeTrue)
				So(stats.WorkerCount, ShouldEqual, 4)
				So(rec.Body.String(), ShouldContainSubstring, `"worker_count":4`)
			})
		})

		Convey("When requesting /healthz", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then Prometheus metrics are exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "sbtsim_simulation")
			})
		})

		Convey("When requesting the dashboard", func() {
			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the embedded page is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "<html")
			})
		})
	})
}
