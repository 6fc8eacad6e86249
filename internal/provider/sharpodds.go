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

// SharpQuote is one match quote from the sharp reference book.
type SharpQuote struct {
	Player1Name string
	Player2Name string
	Player1Odds float64
	Player2Odds float64
}

// SharpOddsClient fetches reference prices from a sharp bookmaker feed. The
// quotes annotate captured markets; they never gate suggestions unless the
// operator turns that on.
type SharpOddsClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewSharpOddsClient(baseURL string, timeout time.Duration, logger *slog.Logger) *SharpOddsClient {
	return &SharpOddsClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Enabled reports whether a feed URL was configured.
func (c *SharpOddsClient) Enabled() bool { return c.baseURL != "" }

type sharpEvent struct {
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	Bookmakers []struct {
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string  `json:"name"`
				Price float64 `json:"price"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// FetchQuotes returns head-to-head quotes for upcoming tennis matches. Events
// missing a usable h2h market are dropped.
func (c *SharpOddsClient) FetchQuotes(ctx context.Context) ([]SharpQuote, error) {
	url := c.baseURL + "/sports/tennis/odds?markets=h2h&oddsFormat=decimal"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build sharp odds request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.ErrUpstream("sharp odds feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.ErrUpstream(fmt.Sprintf("sharp odds feed: status %d: %s", resp.StatusCode, raw), nil)
	}

	var events []sharpEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode sharp odds: %w", err)
	}

	quotes := make([]SharpQuote, 0, len(events))
	for _, ev := range events {
		q, ok := quoteFromEvent(ev)
		if !ok {
			continue
		}
		quotes = append(quotes, q)
	}
	c.logger.Debug("sharp quotes fetched", "events", len(events), "usable", len(quotes))
	return quotes, nil
}

func quoteFromEvent(ev sharpEvent) (SharpQuote, bool) {
	if ev.HomeTeam == "" || ev.AwayTeam == "" {
		return SharpQuote{}, false
	}
	for _, bm := range ev.Bookmakers {
		for _, m := range bm.Markets {
			if m.Key != "h2h" || len(m.Outcomes) != 2 {
				continue
			}
			q := SharpQuote{Player1Name: ev.HomeTeam, Player2Name: ev.AwayTeam}
			for _, o := range m.Outcomes {
				switch o.Name {
				case ev.HomeTeam:
					q.Player1Odds = o.Price
				case ev.AwayTeam:
					q.Player2Odds = o.Price
				}
			}
			if q.Player1Odds > 1 && q.Player2Odds > 1 {
				return q, true
			}
		}
	}
	return SharpQuote{}, false
}
