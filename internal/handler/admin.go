package handler

import (
	"net/http"
	"strconv"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/repository"
	"github.com/attaboy/matchedge/internal/service"
)

// AdminHandler serves refresh triggers, auto-mode control, and the
// validation log. Auto mode lives in the metadata table so the engine
// process picks up changes on its next cycle.
type AdminHandler struct {
	refresh     *service.RefreshService
	store       *repository.Store
	defaultAuto bool
}

func NewAdminHandler(refresh *service.RefreshService, store *repository.Store, defaultAuto bool) *AdminHandler {
	return &AdminHandler{refresh: refresh, store: store, defaultAuto: defaultAuto}
}

// FullRefresh handles POST /refresh/full.
func (h *AdminHandler) FullRefresh(w http.ResponseWriter, r *http.Request) {
	rep, err := h.refresh.FullRefresh(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, rep)
}

// QuickRefresh handles POST /refresh/quick.
func (h *AdminHandler) QuickRefresh(w http.ResponseWriter, r *http.Request) {
	rep, err := h.refresh.QuickRefresh(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, rep)
}

// GetAutoMode handles GET /automode.
func (h *AdminHandler) GetAutoMode(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.store.AutoMode(r.Context(), h.defaultAuto)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

type autoModeRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAutoMode handles PUT /automode.
func (h *AdminHandler) SetAutoMode(w http.ResponseWriter, r *http.Request) {
	var req autoModeRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrInvalidData("invalid request body"))
		return
	}
	if err := h.store.SetAutoMode(r.Context(), req.Enabled); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

// ValidationLog handles GET /validation-log?limit=...
func (h *AdminHandler) ValidationLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := h.store.RecentValidationEntries(r.Context(), limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
