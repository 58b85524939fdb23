package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/waiverintel/internal/adapters/source"
	service "github.com/okian/waiverintel/internal/app"
	"github.com/okian/waiverintel/internal/domain/types"
)

// passRequest mirrors the body of POST /passes.
type passRequest struct {
	LeagueID string `json:"league_id"`
	Week     int    `json:"week"`
	// Async queues the pass instead of waiting for its report.
	Async bool `json:"async"`
}

func (p passRequest) validate() error {
	switch {
	case strings.TrimSpace(p.LeagueID) == "":
		return errors.New("missing league_id")
	case p.Week < 1:
		return errors.New("week must be positive")
	}
	return nil
}

type ackResponse struct {
	Status   string `json:"status"`
	LeagueID string `json:"league_id"`
	Week     int    `json:"week"`
}

// PassesHandler triggers passes and serves their reports.
type PassesHandler struct {
	deps Dependencies
}

// NewPassesHandler creates a new passes handler.
func NewPassesHandler(deps Dependencies) *PassesHandler {
	return &PassesHandler{deps: deps}
}

// HandlePostPass handles POST /passes. Synchronous passes answer with the
// report; async ones answer 202 once queued.
func (h *PassesHandler) HandlePostPass(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_pass"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req passRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	pass := types.PassRequest{LeagueID: req.LeagueID, Week: req.Week, Trigger: types.TriggerManual}

	if req.Async {
		if !h.deps.Submit(r.Context(), pass) {
			writeError(w, http.StatusTooManyRequests, "backpressure", wrapKind(op, ErrBackpressure, nil))
			return
		}
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "queued", LeagueID: req.LeagueID, Week: req.Week})
		return
	}

	report, err := h.deps.Run(r.Context(), pass)
	if err != nil {
		status, code := classify(err)
		writeError(w, status, code, wrapKind(op, kindFor(status), err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGetReport handles GET /passes/{league}/{week}.
func (h *PassesHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	league := r.PathValue("league")
	week, err := strconv.Atoi(r.PathValue("week"))
	if league == "" || err != nil || week < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	report, ok := h.deps.LastReport(league, week)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", wrapKind(op, ErrNotFound, nil))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, source.ErrBatchNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, source.ErrInvalidBatch), errors.Is(err, service.ErrInvalidRun):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNoSource):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

func kindFor(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	}
	return ErrInternal
}
