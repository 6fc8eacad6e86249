package handler

import (
	"net/http"

	"github.com/attaboy/matchedge/internal/analysis"
	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/service"
)

// AnalysisHandler serves matchup probability requests.
type AnalysisHandler struct {
	analysis *service.AnalysisService
}

func NewAnalysisHandler(svc *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: svc}
}

type analyzeRequest struct {
	Player1ID   int64    `json:"player1_id"`
	Player2ID   int64    `json:"player2_id"`
	Player1Name string   `json:"player1_name"`
	Player2Name string   `json:"player2_name"`
	Surface     string   `json:"surface"`
	Tournament  string   `json:"tournament"`
	Player1Odds *float64 `json:"player1_odds"`
	Player2Odds *float64 `json:"player2_odds"`
}

// Analyze handles POST /analyze. Players are given either by id pair or by
// name pair; names resolve through the usual alias machinery.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrInvalidData("invalid request body"))
		return
	}

	var (
		result *analysis.Result
		err    error
	)
	switch {
	case req.Player1ID != 0 && req.Player2ID != 0:
		result, err = h.analysis.AnalyzeIDs(r.Context(), analysis.Request{
			Player1ID:   req.Player1ID,
			Player2ID:   req.Player2ID,
			Surface:     domain.NormalizeSurface(req.Surface),
			Tournament:  req.Tournament,
			Player1Odds: req.Player1Odds,
			Player2Odds: req.Player2Odds,
		})
	case req.Player1Name != "" && req.Player2Name != "":
		result, err = h.analysis.AnalyzeNames(r.Context(), req.Player1Name, req.Player2Name,
			domain.NormalizeSurface(req.Surface), req.Tournament)
	default:
		err = domain.ErrInvalidData("provide either both player ids or both player names")
	}
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}
