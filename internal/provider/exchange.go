// Package provider holds clients for the external collaborators: the betting
// exchange, the sharp-odds reference book, the results feed, the cloud
// mirror, and the notification webhook. Providers never touch the store;
// they translate wire payloads to and from domain values.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
)

const (
	// marketBookBatchSize is the upstream cap on ids per book request.
	marketBookBatchSize = 40

	// requestPacing spaces successive exchange calls.
	requestPacing = 300 * time.Millisecond
)

// CapturedMarket is one tennis match-winner market as delivered by the
// exchange, before name resolution.
type CapturedMarket struct {
	MarketID       string
	Tournament     string
	StartTime      time.Time
	Player1Name    string
	Player2Name    string
	Player1Odds    *float64
	Player2Odds    *float64
	TotalMatched   *float64
	TotalAvailable *float64
	Status         string
	// WinnerName is set on CLOSED markets carrying a winner tag.
	WinnerName string
}

// ExchangeClient speaks the exchange's REST betting API.
type ExchangeClient struct {
	baseURL  string
	loginURL string
	appKey   string
	username string
	password string

	client *http.Client
	logger *slog.Logger

	sessionToken string
}

// NewExchangeClient creates an ExchangeClient. Login is lazy: the first
// request authenticates.
func NewExchangeClient(baseURL, loginURL, appKey, username, password string, timeout time.Duration, logger *slog.Logger) *ExchangeClient {
	return &ExchangeClient{
		baseURL:  baseURL,
		loginURL: loginURL,
		appKey:   appKey,
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type loginResponse struct {
	Token   string `json:"token"`
	Product string `json:"product"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

// Login exchanges credentials for a session token.
func (c *ExchangeClient) Login(ctx context.Context) error {
	form := fmt.Sprintf("username=%s&password=%s", c.username, c.password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, strings.NewReader(form))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("X-Application", c.appKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.ErrUpstream("exchange login", err)
	}
	defer resp.Body.Close()

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if lr.Status != "SUCCESS" {
		return domain.ErrUpstream("exchange login rejected: "+lr.Error, nil)
	}
	c.sessionToken = lr.Token
	c.logger.Info("exchange session established")
	return nil
}

type marketCatalogue struct {
	MarketID        string    `json:"marketId"`
	MarketName      string    `json:"marketName"`
	MarketStartTime time.Time `json:"marketStartTime"`
	Event           struct {
		Name string `json:"name"`
	} `json:"event"`
	Competition struct {
		Name string `json:"name"`
	} `json:"competition"`
	Runners []struct {
		SelectionID  int64  `json:"selectionId"`
		RunnerName   string `json:"runnerName"`
		SortPriority int    `json:"sortPriority"`
	} `json:"runners"`
}

type marketBook struct {
	MarketID       string  `json:"marketId"`
	Status         string  `json:"status"`
	InPlay         bool    `json:"inplay"`
	TotalMatched   float64 `json:"totalMatched"`
	TotalAvailable float64 `json:"totalAvailable"`
	Runners        []struct {
		SelectionID int64  `json:"selectionId"`
		Status      string `json:"status"`
		EX          struct {
			AvailableToBack []struct {
				Price float64 `json:"price"`
				Size  float64 `json:"size"`
			} `json:"availableToBack"`
		} `json:"ex"`
	} `json:"runners"`
}

// ListUpcomingMarkets captures tennis MATCH_ODDS markets starting inside the
// window. Skipped outright: in-play markets, markets without exactly two
// runners, doubles (runner name contains "/"), and markets missing both
// prices.
func (c *ExchangeClient) ListUpcomingMarkets(ctx context.Context, window time.Duration) ([]CapturedMarket, error) {
	if c.sessionToken == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	catalogues, err := c.listMarketCatalogue(ctx, window)
	if err != nil {
		return nil, err
	}

	books := map[string]marketBook{}
	for start := 0; start < len(catalogues); start += marketBookBatchSize {
		end := min(start+marketBookBatchSize, len(catalogues))
		ids := make([]string, 0, end-start)
		for _, cat := range catalogues[start:end] {
			ids = append(ids, cat.MarketID)
		}
		batch, err := c.listMarketBook(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, b := range batch {
			books[b.MarketID] = b
		}
		if end < len(catalogues) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(requestPacing):
			}
		}
	}

	var out []CapturedMarket
	for _, cat := range catalogues {
		m, ok := c.assemble(cat, books)
		if !ok {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *ExchangeClient) assemble(cat marketCatalogue, books map[string]marketBook) (CapturedMarket, bool) {
	if len(cat.Runners) != 2 {
		return CapturedMarket{}, false
	}
	// Runner order follows sort priority, fixed at capture time.
	r1, r2 := cat.Runners[0], cat.Runners[1]
	if r2.SortPriority < r1.SortPriority {
		r1, r2 = r2, r1
	}
	if strings.Contains(r1.RunnerName, "/") || strings.Contains(r2.RunnerName, "/") {
		return CapturedMarket{}, false
	}

	book, ok := books[cat.MarketID]
	if !ok || book.InPlay {
		return CapturedMarket{}, false
	}

	m := CapturedMarket{
		MarketID:    cat.MarketID,
		Tournament:  cat.Competition.Name,
		StartTime:   cat.MarketStartTime,
		Player1Name: r1.RunnerName,
		Player2Name: r2.RunnerName,
		Status:      book.Status,
	}
	if m.Tournament == "" {
		m.Tournament = cat.Event.Name
	}
	if book.TotalMatched > 0 {
		m.TotalMatched = &book.TotalMatched
	}
	if book.TotalAvailable > 0 {
		m.TotalAvailable = &book.TotalAvailable
	}

	for _, runner := range book.Runners {
		if len(runner.EX.AvailableToBack) == 0 {
			continue
		}
		price := runner.EX.AvailableToBack[0].Price
		switch runner.SelectionID {
		case r1.SelectionID:
			m.Player1Odds = &price
			if book.Status == "CLOSED" && runner.Status == "WINNER" {
				m.WinnerName = r1.RunnerName
			}
		case r2.SelectionID:
			m.Player2Odds = &price
			if book.Status == "CLOSED" && runner.Status == "WINNER" {
				m.WinnerName = r2.RunnerName
			}
		}
	}
	if m.Player1Odds == nil && m.Player2Odds == nil {
		return CapturedMarket{}, false
	}
	return m, true
}

func (c *ExchangeClient) listMarketCatalogue(ctx context.Context, window time.Duration) ([]marketCatalogue, error) {
	now := time.Now().UTC()
	payload := map[string]interface{}{
		"filter": map[string]interface{}{
			"eventTypeIds":    []string{"2"}, // tennis
			"marketTypeCodes": []string{"MATCH_ODDS"},
			"marketStartTime": map[string]string{
				"from": now.Format(time.RFC3339),
				"to":   now.Add(window).Format(time.RFC3339),
			},
		},
		"marketProjection": []string{"EVENT", "COMPETITION", "RUNNER_DESCRIPTION", "MARKET_START_TIME"},
		"sort":             "FIRST_TO_START",
		"maxResults":       200,
	}
	var out []marketCatalogue
	if err := c.post(ctx, "/listMarketCatalogue/", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExchangeClient) listMarketBook(ctx context.Context, marketIDs []string) ([]marketBook, error) {
	payload := map[string]interface{}{
		"marketIds": marketIDs,
		"priceProjection": map[string]interface{}{
			"priceData": []string{"EX_BEST_OFFERS"},
		},
	}
	var out []marketBook
	if err := c.post(ctx, "/listMarketBook/", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExchangeClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.send(ctx, path, body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Session expired. One re-login, one retry; a second rejection falls
		// through to the status check below.
		resp.Body.Close()
		if err := c.Login(ctx); err != nil {
			return err
		}
		if resp, err = c.send(ctx, path, body); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ErrUpstream(fmt.Sprintf("exchange %s: status %d: %s", path, resp.StatusCode, raw), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *ExchangeClient) send(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Application", c.appKey)
	req.Header.Set("X-Authentication", c.sessionToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.ErrUpstream(fmt.Sprintf("exchange %s", path), err)
	}
	return resp, nil
}
