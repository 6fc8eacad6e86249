package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/attaboy/matchedge/internal/service"
)

// MatchHandler serves completed-match queries.
type MatchHandler struct {
	analysis *service.AnalysisService
}

func NewMatchHandler(analysis *service.AnalysisService) *MatchHandler {
	return &MatchHandler{analysis: analysis}
}

// Recent handles GET /matches/recent?days=...
func (h *MatchHandler) Recent(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	matches, err := h.analysis.RecentMatches(r.Context(), days)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// Get handles GET /matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.analysis.GetMatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, m)
}
