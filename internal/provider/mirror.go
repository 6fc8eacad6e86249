package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
)

// MirrorClient replicates bet state to the cloud mirror so dashboards stay
// current without reaching into the local database. All operations are
// best-effort; callers log failures and move on.
type MirrorClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewMirrorClient(baseURL string, timeout time.Duration, logger *slog.Logger) *MirrorClient {
	return &MirrorClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Enabled reports whether a mirror URL was configured.
func (c *MirrorClient) Enabled() bool { return c.baseURL != "" }

type mirrorBet struct {
	ID          string   `json:"id"`
	MatchDate   string   `json:"match_date"`
	Tournament  string   `json:"tournament"`
	Description string   `json:"description"`
	Selection   string   `json:"selection"`
	Odds        float64  `json:"odds"`
	Stake       float64  `json:"stake"`
	Model       string   `json:"model"`
	Status      string   `json:"status"`
	Result      *string  `json:"result,omitempty"`
	ProfitLoss  *float64 `json:"profit_loss,omitempty"`
}

func mirrorPayload(bet domain.Bet, status string) mirrorBet {
	p := mirrorBet{
		ID:          bet.ID.String(),
		MatchDate:   bet.MatchDate.UTC().Format(time.RFC3339),
		Tournament:  bet.Tournament,
		Description: bet.Description,
		Selection:   bet.Selection,
		Odds:        bet.Odds,
		Stake:       bet.Stake,
		Model:       string(bet.Model),
		Status:      status,
	}
	if bet.Result != nil {
		r := string(*bet.Result)
		p.Result = &r
	}
	p.ProfitLoss = bet.ProfitLoss
	return p
}

// SyncBet upserts a freshly placed bet as pending.
func (c *MirrorClient) SyncBet(ctx context.Context, bet domain.Bet) error {
	return c.put(ctx, bet.ID.String(), mirrorPayload(bet, "PENDING"))
}

// MarkBetLive flags a bet whose match has started.
func (c *MirrorClient) MarkBetLive(ctx context.Context, bet domain.Bet) error {
	return c.put(ctx, bet.ID.String(), mirrorPayload(bet, "LIVE"))
}

// MarkBetFinished records the final result and profit on the mirror.
func (c *MirrorClient) MarkBetFinished(ctx context.Context, bet domain.Bet) error {
	return c.put(ctx, bet.ID.String(), mirrorPayload(bet, "FINISHED"))
}

func (c *MirrorClient) put(ctx context.Context, id string, payload mirrorBet) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mirror payload: %w", err)
	}
	url := fmt.Sprintf("%s/bets/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mirror request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mirror put: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mirror put: status %d: %s", resp.StatusCode, raw)
	}
	return nil
}
