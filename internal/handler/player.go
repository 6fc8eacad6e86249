package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/service"
)

// PlayerHandler serves player search and detail endpoints.
type PlayerHandler struct {
	analysis *service.AnalysisService
}

func NewPlayerHandler(analysis *service.AnalysisService) *PlayerHandler {
	return &PlayerHandler{analysis: analysis}
}

// Search handles GET /players/search?q=...&limit=...
func (h *PlayerHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		RespondError(w, domain.ErrInvalidData("query parameter q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	players, err := h.analysis.SearchPlayers(r.Context(), query, limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"players": players})
}

// Get handles GET /players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		RespondError(w, domain.ErrInvalidData("invalid player id"))
		return
	}
	player, err := h.analysis.GetPlayer(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, player)
}

// Matches handles GET /players/{id}/matches?days=...&limit=...
func (h *PlayerHandler) Matches(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		RespondError(w, domain.ErrInvalidData("invalid player id"))
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	matches, err := h.analysis.PlayerMatches(r.Context(), id, days, limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// Create handles POST /players
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p domain.Player
	if err := DecodeJSON(r, &p); err != nil {
		RespondError(w, domain.ErrInvalidData("invalid request body"))
		return
	}
	created, err := h.analysis.RosterPlayer(r.Context(), &p)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, created)
}

type aliasRequest struct {
	AliasID     int64  `json:"alias_id"`
	CanonicalID int64  `json:"canonical_id"`
	Source      string `json:"source"`
}

// LinkAlias handles POST /players/aliases
func (h *PlayerHandler) LinkAlias(w http.ResponseWriter, r *http.Request) {
	var req aliasRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrInvalidData("invalid request body"))
		return
	}
	if err := h.analysis.LinkAlias(r.Context(), req.AliasID, req.CanonicalID, req.Source); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"alias_id":     req.AliasID,
		"canonical_id": req.CanonicalID,
	})
}
