package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
)

// ResultRow is one completed match from the results feed, identified by
// display names rather than store ids.
type ResultRow struct {
	Date       time.Time `json:"date"`
	Tournament string    `json:"tournament"`
	Surface    string    `json:"surface"`
	WinnerName string    `json:"winner"`
	LoserName  string    `json:"loser"`
	WinnerRank *int      `json:"winner_rank"`
	LoserRank  *int      `json:"loser_rank"`
	Score      string    `json:"score"`
	Minutes    *int      `json:"minutes"`
	BestOf     int       `json:"best_of"`
}

// ResultsClient fetches completed matches from the historical results feed.
type ResultsClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewResultsClient(baseURL string, timeout time.Duration, logger *slog.Logger) *ResultsClient {
	return &ResultsClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Enabled reports whether a feed URL was configured.
func (c *ResultsClient) Enabled() bool { return c.baseURL != "" }

// FetchSince returns completed matches on or after the given date.
func (c *ResultsClient) FetchSince(ctx context.Context, since time.Time) ([]ResultRow, error) {
	url := fmt.Sprintf("%s/results?from=%s", c.baseURL, since.UTC().Format("2006-01-02"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build results request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.ErrUpstream("results feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.ErrUpstream(fmt.Sprintf("results feed: status %d: %s", resp.StatusCode, raw), nil)
	}

	var rows []ResultRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	c.logger.Debug("results fetched", "since", since.Format("2006-01-02"), "rows", len(rows))
	return rows, nil
}
