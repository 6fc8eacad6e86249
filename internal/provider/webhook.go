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

// Embed colors for the three notification kinds.
const (
	colorPlaced  = 0x3498db
	colorWin     = 0x2ecc71
	colorLoss    = 0xe74c3c
	colorNeutral = 0x95a5a6
)

// WebhookClient posts bet notifications to a chat webhook as rich embeds.
type WebhookClient struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewWebhookClient(url string, timeout time.Duration, logger *slog.Logger) *WebhookClient {
	return &WebhookClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Enabled reports whether a webhook URL was configured.
func (c *WebhookClient) Enabled() bool { return c.url != "" }

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Footer    embedFooter  `json:"footer"`
	Timestamp string       `json:"timestamp"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// NotifyPlaced announces a newly placed bet.
func (c *WebhookClient) NotifyPlaced(ctx context.Context, bet domain.Bet) error {
	fields := []embedField{
		{Name: "Match", Value: bet.Description, Inline: false},
		{Name: "Selection", Value: bet.Selection, Inline: true},
		{Name: "Odds", Value: fmt.Sprintf("%.2f", bet.Odds), Inline: true},
		{Name: "Stake", Value: fmt.Sprintf("%.1fu", bet.Stake), Inline: true},
		{Name: "Model", Value: string(bet.Model), Inline: true},
		{Name: "Edge", Value: fmt.Sprintf("%.1f%%", bet.EVAtPlacement*100), Inline: true},
		{Name: "Tournament", Value: bet.Tournament, Inline: false},
	}
	return c.send(ctx, embed{
		Title:     "Bet Placed",
		Color:     colorPlaced,
		Fields:    fields,
		Footer:    embedFooter{Text: "matchedge"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// NotifyLive announces that a bet's match has gone in-play.
func (c *WebhookClient) NotifyLive(ctx context.Context, bet domain.Bet) error {
	fields := []embedField{
		{Name: "Match", Value: bet.Description, Inline: false},
		{Name: "Selection", Value: bet.Selection, Inline: true},
		{Name: "Odds", Value: fmt.Sprintf("%.2f", bet.Odds), Inline: true},
		{Name: "Stake", Value: fmt.Sprintf("%.1fu", bet.Stake), Inline: true},
	}
	return c.send(ctx, embed{
		Title:     "Match Live",
		Color:     colorNeutral,
		Fields:    fields,
		Footer:    embedFooter{Text: "matchedge"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// NotifySettled announces a settled bet with its profit or loss.
func (c *WebhookClient) NotifySettled(ctx context.Context, bet domain.Bet) error {
	title := "Bet Settled"
	color := colorNeutral
	if bet.Result != nil {
		switch *bet.Result {
		case domain.BetWin:
			title = "Bet Won"
			color = colorWin
		case domain.BetLoss:
			title = "Bet Lost"
			color = colorLoss
		case domain.BetVoid:
			title = "Bet Void"
		}
	}
	fields := []embedField{
		{Name: "Match", Value: bet.Description, Inline: false},
		{Name: "Selection", Value: bet.Selection, Inline: true},
		{Name: "Odds", Value: fmt.Sprintf("%.2f", bet.Odds), Inline: true},
		{Name: "Stake", Value: fmt.Sprintf("%.1fu", bet.Stake), Inline: true},
	}
	if bet.ProfitLoss != nil {
		fields = append(fields, embedField{Name: "P/L", Value: fmt.Sprintf("%+.2fu", *bet.ProfitLoss), Inline: true})
	}
	return c.send(ctx, embed{
		Title:     title,
		Color:     color,
		Fields:    fields,
		Footer:    embedFooter{Text: "matchedge"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *WebhookClient) send(ctx context.Context, e embed) error {
	body, err := json.Marshal(webhookPayload{Embeds: []embed{e}})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: status %d: %s", resp.StatusCode, raw)
	}
	return nil
}
