package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/provider"
	"github.com/attaboy/matchedge/internal/repository"
	"github.com/attaboy/matchedge/internal/settlement"
	"github.com/attaboy/matchedge/internal/suggest"
)

// BetService owns the bet lifecycle: suggestion, placement, listing,
// settlement, and model-tag backfill.
type BetService struct {
	store     *repository.Store
	suggester *suggest.Suggester
	settler   *settlement.Settler
	mirror    *provider.MirrorClient
	webhook   *provider.WebhookClient
	logger    *slog.Logger

	liveMu   sync.Mutex
	liveSeen map[uuid.UUID]bool
}

func NewBetService(store *repository.Store, suggester *suggest.Suggester, settler *settlement.Settler, mirror *provider.MirrorClient, webhook *provider.WebhookClient, logger *slog.Logger) *BetService {
	return &BetService{
		store:     store,
		suggester: suggester,
		settler:   settler,
		mirror:    mirror,
		webhook:   webhook,
		logger:    logger,
		liveSeen:  map[uuid.UUID]bool{},
	}
}

// Suggestions evaluates all open markets and returns value candidates.
func (s *BetService) Suggestions(ctx context.Context) ([]suggest.Candidate, error) {
	markets, err := s.store.ListOpenMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return s.suggester.Suggest(ctx, markets)
}

// PlaceFromCandidate records a suggested bet. The store enforces the
// duplicate guard; mirror and webhook pushes are best-effort.
func (s *BetService) PlaceFromCandidate(ctx context.Context, c suggest.Candidate) (*domain.Bet, error) {
	bet := suggest.BetFromCandidate(c, time.Now().UTC())
	if err := s.store.AddBet(ctx, &bet); err != nil {
		return nil, err
	}
	s.publishPlaced(ctx, bet)
	return &bet, nil
}

// ManualBetInput is an operator-entered bet, typically one placed away from
// the suggester.
type ManualBetInput struct {
	MatchDate      time.Time `json:"match_date"`
	Tournament     string    `json:"tournament"`
	Description    string    `json:"match_description"`
	Selection      string    `json:"selection"`
	Odds           float64   `json:"odds"`
	Stake          float64   `json:"stake"`
	OurProbability float64   `json:"our_probability"`
	Model          string    `json:"model"`
	Notes          string    `json:"notes"`
}

// AddManual records a manually entered bet. A missing probability defaults to
// the market-implied one, making the recorded EV zero.
func (s *BetService) AddManual(ctx context.Context, in ManualBetInput) (*domain.Bet, error) {
	if in.Odds <= 1 {
		return nil, domain.ErrInvalidData("odds must exceed 1.0")
	}
	if in.Stake <= 0 {
		return nil, domain.ErrInvalidData("stake must be positive")
	}
	implied := 1 / in.Odds
	ourProb := in.OurProbability
	if ourProb <= 0 {
		ourProb = implied
	}
	model := domain.ModelNone
	switch domain.Model(in.Model) {
	case domain.ModelA, domain.ModelB, domain.ModelC:
		model = domain.Model(in.Model)
	}
	bet := domain.Bet{
		MatchDate:          in.MatchDate,
		Tournament:         strings.TrimSpace(in.Tournament),
		Description:        strings.TrimSpace(in.Description),
		Selection:          strings.TrimSpace(in.Selection),
		Odds:               in.Odds,
		Stake:              in.Stake,
		OurProbability:     ourProb,
		ImpliedProbability: implied,
		EVAtPlacement:      suggest.ExpectedValue(ourProb, in.Odds),
		Model:              model,
		Notes:              in.Notes,
		PlacedAt:           time.Now().UTC(),
	}
	if err := s.store.AddBet(ctx, &bet); err != nil {
		return nil, err
	}
	s.publishPlaced(ctx, bet)
	return &bet, nil
}

func (s *BetService) publishPlaced(ctx context.Context, bet domain.Bet) {
	if s.mirror.Enabled() {
		if err := s.mirror.SyncBet(ctx, bet); err != nil {
			s.logger.Warn("mirror sync failed", "bet_id", bet.ID, "error", err)
		}
	}
	if s.webhook.Enabled() {
		if err := s.webhook.NotifyPlaced(ctx, bet); err != nil {
			s.logger.Warn("placement notification failed", "bet_id", bet.ID, "error", err)
		}
	}
}

// List returns recent bets, newest first.
func (s *BetService) List(ctx context.Context, limit int) ([]domain.Bet, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListBets(ctx, limit)
}

// Pending returns unsettled bets.
func (s *BetService) Pending(ctx context.Context) ([]domain.Bet, error) {
	return s.store.ListPendingBets(ctx)
}

// Get loads one bet.
func (s *BetService) Get(ctx context.Context, id uuid.UUID) (*domain.Bet, error) {
	bet, err := s.store.GetBet(ctx, id)
	if err != nil {
		return nil, err
	}
	if bet == nil {
		return nil, domain.ErrNotFound("bet", id.String())
	}
	return bet, nil
}

// MarkLive pushes a LIVE state for pending bets whose match has started,
// once per bet per process. The mirror upsert is idempotent, so a restart
// re-sending it is harmless.
func (s *BetService) MarkLive(ctx context.Context) (int, error) {
	pending, err := s.store.ListPendingBets(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	marked := 0
	for _, b := range pending {
		if b.MatchDate.After(now) || now.Sub(b.MatchDate) > 24*time.Hour {
			continue
		}
		s.liveMu.Lock()
		seen := s.liveSeen[b.ID]
		s.liveSeen[b.ID] = true
		s.liveMu.Unlock()
		if seen {
			continue
		}
		if s.mirror.Enabled() {
			if err := s.mirror.MarkBetLive(ctx, b); err != nil {
				s.logger.Warn("mirror live update failed", "bet_id", b.ID, "error", err)
			}
		}
		if s.webhook.Enabled() {
			if err := s.webhook.NotifyLive(ctx, b); err != nil {
				s.logger.Warn("live notification failed", "bet_id", b.ID, "error", err)
			}
		}
		marked++
	}
	return marked, nil
}

// SettleNow runs one settlement pass over all pending bets and returns how
// many were settled.
func (s *BetService) SettleNow(ctx context.Context) (int, error) {
	return s.settler.SettlePending(ctx)
}

// BackfillModels retags historical bets that predate model tagging.
func (s *BetService) BackfillModels(ctx context.Context) (int64, error) {
	n, err := s.store.BackfillModelTags(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("model tags backfilled", "bets", n)
	}
	return n, nil
}

// ModelSummary aggregates settled performance for one model.
type ModelSummary struct {
	Model      domain.Model `json:"model"`
	Bets       int          `json:"bets"`
	Wins       int          `json:"wins"`
	Losses     int          `json:"losses"`
	Voids      int          `json:"voids"`
	Staked     float64      `json:"staked"`
	ProfitLoss float64      `json:"profit_loss"`
	ROI        float64      `json:"roi"`
}

// Summary aggregates settled bets by model. Pending bets are excluded.
func (s *BetService) Summary(ctx context.Context) ([]ModelSummary, error) {
	bets, err := s.store.ListBets(ctx, 500)
	if err != nil {
		return nil, err
	}
	byModel := map[domain.Model]*ModelSummary{}
	order := []domain.Model{domain.ModelA, domain.ModelB, domain.ModelC, domain.ModelNone}
	for _, m := range order {
		byModel[m] = &ModelSummary{Model: m}
	}
	for _, b := range bets {
		if !b.Settled() {
			continue
		}
		sum, ok := byModel[b.Model]
		if !ok {
			continue
		}
		sum.Bets++
		sum.Staked += b.Stake
		switch *b.Result {
		case domain.BetWin:
			sum.Wins++
		case domain.BetLoss:
			sum.Losses++
		case domain.BetVoid:
			sum.Voids++
		}
		if b.ProfitLoss != nil {
			sum.ProfitLoss += *b.ProfitLoss
		}
	}
	out := make([]ModelSummary, 0, len(order))
	for _, m := range order {
		sum := byModel[m]
		if sum.Staked > 0 {
			sum.ROI = sum.ProfitLoss / sum.Staked
		}
		if sum.Bets == 0 {
			continue
		}
		out = append(out, *sum)
	}
	return out, nil
}
