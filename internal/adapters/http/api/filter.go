package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/imarro/subwaydex/internal/adapters/catalog"
	"github.com/imarro/subwaydex/internal/domain/deduce"
	"github.com/imarro/subwaydex/internal/domain/model"
)

// FilterHandler handles pool completion queries.
type FilterHandler struct {
	deps Dependencies
}

// NewFilterHandler creates a new filter handler.
func NewFilterHandler(deps Dependencies) *FilterHandler {
	return &FilterHandler{deps: deps}
}

// filterRequest is the body of POST /pools/{pool_id}/filter.
type filterRequest struct {
	SeenGlobalIDs []int `json:"seen_global_ids"`
}

// filterResponse echoes the observation and reports the completion search.
type filterResponse struct {
	PoolID                     string            `json:"pool_id"`
	SeenGlobalIDs              []int             `json:"seen_global_ids"`
	NumPossibleTeams           int               `json:"num_possible_teams"`
	PossibleRemainingGlobalIDs []int             `json:"possible_remaining_global_ids"`
	PossibleRemainingSets      []json.RawMessage `json:"possible_remaining_sets"`
}

// HandleFilter handles POST /pools/{pool_id}/filter requests.
func (h *FilterHandler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	const op = "api.pool_filter"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/pools/")
	poolID, tail, ok := strings.Cut(rest, "/")
	if !ok || poolID == "" || tail != "filter" {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}

	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, err))
		return
	}

	seen := make([]model.GlobalID, 0, len(req.SeenGlobalIDs))
	for _, id := range req.SeenGlobalIDs {
		seen = append(seen, model.GlobalID(id))
	}

	res, err := h.deps.FilterPool(r.Context(), poolID, seen)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrPoolNotFound):
			writeError(w, http.StatusNotFound, "not_found", err)
		case errors.Is(err, deduce.ErrUnknownSet):
			writeError(w, http.StatusBadRequest, "unknown_set_id", err)
		case errors.Is(err, deduce.ErrConflictingObservation):
			writeError(w, http.StatusBadRequest, "conflicting_observation", err)
		case errors.Is(err, deduce.ErrCancelled):
			writeError(w, http.StatusServiceUnavailable, "cancelled", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}

	resp := filterResponse{
		PoolID:                     res.PoolID,
		SeenGlobalIDs:              make([]int, 0, len(res.Seen)),
		NumPossibleTeams:           res.NumPossibleTeams,
		PossibleRemainingGlobalIDs: make([]int, 0, len(res.PossibleRemaining)),
		PossibleRemainingSets:      res.RemainingSets,
	}
	for _, id := range res.Seen {
		resp.SeenGlobalIDs = append(resp.SeenGlobalIDs, int(id))
	}
	for _, id := range res.PossibleRemaining {
		resp.PossibleRemainingGlobalIDs = append(resp.PossibleRemainingGlobalIDs, int(id))
	}
	if resp.PossibleRemainingSets == nil {
		resp.PossibleRemainingSets = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, resp)
}
