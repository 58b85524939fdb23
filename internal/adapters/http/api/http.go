// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/waiverintel/internal/domain/types"
	"github.com/okian/waiverintel/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service.
type Dependencies interface {
	// Run evaluates one pass synchronously.
	Run(ctx context.Context, req types.PassRequest) (types.Report, error)
	// Submit queues a pass. Returns false on backpressure or duplicates.
	Submit(ctx context.Context, req types.PassRequest) bool
	// LastReport returns the latest report for a (league, week).
	LastReport(leagueID string, week int) (types.Report, bool)
	// Ready reports whether the cooldown store can be reached.
	Ready(ctx context.Context) error
}

// Server wires HTTP routes for the engine API.
type Server struct {
	healthHandler *HealthHandler
	passesHandler *PassesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(deps),
		passesHandler: NewPassesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.Handle("/healthz", instrument(s.healthHandler.HandleHealth))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/passes", instrument(s.passesHandler.HandlePostPass))
	mux.Handle("/passes/{league}/{week}", instrument(s.passesHandler.HandleGetReport))
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
	noteError(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
