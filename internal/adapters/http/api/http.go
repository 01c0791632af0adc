// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/imarro/subwaydex/internal/adapters/catalog"
	"github.com/imarro/subwaydex/internal/app"
	"github.com/imarro/subwaydex/internal/domain/model"
)

// Dependencies required by the HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	SearchTrainers(ctx context.Context, query string, limit int) []catalog.TrainerMatch
	TrainerDetail(ctx context.Context, trainerID string) (app.TrainerDetail, error)
	FilterPool(ctx context.Context, poolID string, seen []model.GlobalID) (app.FilterResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	trainersHandler *TrainersHandler
	filterHandler   *FilterHandler

	corsOrigins []string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, corsOrigins []string) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		trainersHandler: NewTrainersHandler(deps),
		filterHandler:   NewFilterHandler(deps),
		corsOrigins:     corsOrigins,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	wrap := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return RequestIDMiddleware(CORSMiddleware(s.corsOrigins, MetricsMiddleware(h, endpoint)))
	}

	// Specific paths first (most specific to least specific).
	mux.HandleFunc("/healthz", wrap(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", wrap(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/trainers/search", wrap(s.trainersHandler.HandleSearch, "trainers_search"))
	mux.HandleFunc("/trainers/", wrap(s.trainersHandler.HandleDetail, "trainer_detail"))
	mux.HandleFunc("/pools/", wrap(s.filterHandler.HandleFilter, "pool_filter"))
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
