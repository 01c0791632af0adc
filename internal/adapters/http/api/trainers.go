package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/imarro/subwaydex/internal/adapters/catalog"
)

// TrainersHandler handles trainer search and detail requests.
type TrainersHandler struct {
	deps Dependencies
}

// NewTrainersHandler creates a new trainers handler.
func NewTrainersHandler(deps Dependencies) *TrainersHandler {
	return &TrainersHandler{deps: deps}
}

// searchResult mirrors one row of GET /trainers/search.
type searchResult struct {
	TrainerID   string `json:"trainer_id"`
	NameEN      string `json:"name_en"`
	NameES      string `json:"name_es,omitempty"`
	DisplayName string `json:"display_name"`
	Section     string `json:"section"`
}

// trainerDetailResponse mirrors GET /trainers/{trainer_id}.
type trainerDetailResponse struct {
	TrainerID   string            `json:"trainer_id"`
	NameEN      string            `json:"name_en"`
	NameES      string            `json:"name_es,omitempty"`
	DisplayName string            `json:"display_name"`
	Section     string            `json:"section"`
	PoolID      string            `json:"pool_id"`
	PoolSize    int               `json:"pool_size"`
	Sets        []json.RawMessage `json:"sets"`
	Names       map[string]string `json:"names,omitempty"`
	Classes     map[string]string `json:"classes,omitempty"`
}

// HandleSearch handles GET /trainers/search?q=...&limit=N requests.
func (h *TrainersHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.trainers_search"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing query parameter q")))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
			return
		}
		limit = n
	}

	matches := h.deps.SearchTrainers(r.Context(), q, limit)
	out := make([]searchResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, searchResult{
			TrainerID:   m.TrainerID,
			NameEN:      m.NameEN,
			NameES:      m.NameES,
			DisplayName: m.DisplayName,
			Section:     m.Section,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDetail handles GET /trainers/{trainer_id} requests.
func (h *TrainersHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	const op = "api.trainer_detail"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	trainerID := strings.TrimPrefix(r.URL.Path, "/trainers/")
	if trainerID == "" || strings.Contains(trainerID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	detail, err := h.deps.TrainerDetail(r.Context(), trainerID)
	if err != nil {
		if errors.Is(err, catalog.ErrTrainerNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	t := detail.Trainer
	writeJSON(w, http.StatusOK, trainerDetailResponse{
		TrainerID:   t.TrainerID,
		NameEN:      t.NameEN,
		NameES:      t.NameES,
		DisplayName: t.DisplayName(),
		Section:     t.Section,
		PoolID:      detail.PoolID,
		PoolSize:    detail.PoolSize,
		Sets:        detail.Sets,
		Names:       t.Names,
		Classes:     t.Classes,
	})
}
