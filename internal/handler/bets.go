package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/service"
	"github.com/attaboy/matchedge/internal/suggest"
)

// BetHandler serves suggestion and bet lifecycle endpoints.
type BetHandler struct {
	bets *service.BetService
}

func NewBetHandler(bets *service.BetService) *BetHandler {
	return &BetHandler{bets: bets}
}

// Suggestions handles GET /suggestions.
func (h *BetHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.bets.Suggestions(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(candidates),
		"suggestions": candidates,
	})
}

// Place handles POST /bets/place: record one suggested candidate as a bet.
func (h *BetHandler) Place(w http.ResponseWriter, r *http.Request) {
	var c suggest.Candidate
	if err := DecodeJSON(r, &c); err != nil {
		RespondError(w, domain.ErrInvalidData("invalid request body"))
		return
	}
	bet, err := h.bets.PlaceFromCandidate(r.Context(), c)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, bet)
}

// AddManual handles POST /bets: operator-entered bets.
func (h *BetHandler) AddManual(w http.ResponseWriter, r *http.Request) {
	var in service.ManualBetInput
	if err := DecodeJSON(r, &in); err != nil {
		RespondError(w, domain.ErrInvalidData("invalid request body"))
		return
	}
	bet, err := h.bets.AddManual(r.Context(), in)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, bet)
}

// List handles GET /bets?limit=...
func (h *BetHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	bets, err := h.bets.List(r.Context(), limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"bets": bets})
}

// Pending handles GET /bets/pending.
func (h *BetHandler) Pending(w http.ResponseWriter, r *http.Request) {
	bets, err := h.bets.Pending(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"bets": bets})
}

// Get handles GET /bets/{id}.
func (h *BetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrInvalidData("invalid bet id"))
		return
	}
	bet, err := h.bets.Get(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, bet)
}

// Settle handles POST /bets/settle: one settlement pass, on demand.
func (h *BetHandler) Settle(w http.ResponseWriter, r *http.Request) {
	settled, err := h.bets.SettleNow(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]int{"settled": settled})
}

// Backfill handles POST /bets/backfill-models.
func (h *BetHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	n, err := h.bets.BackfillModels(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// Summary handles GET /bets/summary.
func (h *BetHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.bets.Summary(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"models": summary})
}
