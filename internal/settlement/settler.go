// Package settlement resolves pending bets against completed match results
// and computes P&L net of exchange commission.
package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/resolver"
	"github.com/google/uuid"
)

// dateWindowDays is how far either side of the recorded match date the
// settler searches for the completed match; feeds and exchanges disagree on
// day boundaries around midnight.
const dateWindowDays = 1

// BetStore is the settler's write view of the store.
type BetStore interface {
	ListPendingBets(ctx context.Context) ([]domain.Bet, error)
	// SettleBet records the result exactly once. It returns false when the
	// bet was already settled, making re-runs no-ops.
	SettleBet(ctx context.Context, id uuid.UUID, result domain.BetResult, profitLoss float64, settledAt time.Time) (bool, error)
}

// MatchSource is the settler's read view of completed matches and names.
type MatchSource interface {
	GetMatchesBetween(ctx context.Context, from, to time.Time) ([]domain.Match, error)
	GetPlayer(ctx context.Context, id int64) (*domain.Player, error)
}

// Mirror pushes bet state to the cloud store. Failures are logged, never
// blocking.
type Mirror interface {
	MarkBetFinished(ctx context.Context, bet domain.Bet) error
}

// Notifier posts settlement alerts. Failures are logged, never blocking.
type Notifier interface {
	NotifySettled(ctx context.Context, bet domain.Bet) error
}

// Settler settles pending bets.
type Settler struct {
	bets       BetStore
	matches    MatchSource
	mirror     Mirror
	notifier   Notifier
	commission float64
	logger     *slog.Logger
	now        func() time.Time
}

// NewSettler creates a Settler. mirror and notifier may be nil.
func NewSettler(bets BetStore, matches MatchSource, mirror Mirror, notifier Notifier, commission float64, logger *slog.Logger) *Settler {
	return &Settler{
		bets:       bets,
		matches:    matches,
		mirror:     mirror,
		notifier:   notifier,
		commission: commission,
		logger:     logger,
		now:        time.Now,
	}
}

// SettlePending walks every pending bet and settles those whose match has
// completed. One failing bet never blocks the rest; it stays pending for the
// next cycle.
func (s *Settler) SettlePending(ctx context.Context) (settled int, err error) {
	pending, err := s.bets.ListPendingBets(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending bets: %w", err)
	}

	for i := range pending {
		bet := pending[i]
		ok, err := s.settleOne(ctx, &bet)
		if err != nil {
			s.logger.Error("settlement failed, bet left pending", "bet_id", bet.ID, "error", err)
			continue
		}
		if ok {
			settled++
		}
	}
	return settled, nil
}

func (s *Settler) settleOne(ctx context.Context, bet *domain.Bet) (bool, error) {
	from := bet.MatchDate.AddDate(0, 0, -dateWindowDays)
	to := bet.MatchDate.AddDate(0, 0, dateWindowDays)
	matches, err := s.matches.GetMatchesBetween(ctx, from, to)
	if err != nil {
		return false, fmt.Errorf("load matches: %w", err)
	}

	for i := range matches {
		m := &matches[i]
		winnerName, loserName, err := s.playerNames(ctx, m)
		if err != nil {
			return false, err
		}
		if !DescriptionMatches(bet.Description, winnerName, loserName) {
			continue
		}

		result := Outcome(bet.Selection, winnerName, m.Score)
		pl := bet.ProfitLossFor(result, s.commission)
		updated, err := s.bets.SettleBet(ctx, bet.ID, result, pl, s.now())
		if err != nil {
			return false, fmt.Errorf("settle bet %s: %w", bet.ID, err)
		}
		if !updated {
			// Already settled by an earlier run.
			return false, nil
		}

		bet.Result = &result
		bet.ProfitLoss = &pl
		s.publish(ctx, *bet)
		s.logger.Info("bet settled",
			"bet_id", bet.ID, "selection", bet.Selection,
			"result", result, "profit_loss", pl)
		return true, nil
	}
	return false, nil
}

func (s *Settler) playerNames(ctx context.Context, m *domain.Match) (winner, loser string, err error) {
	w, err := s.matches.GetPlayer(ctx, m.WinnerID)
	if err != nil {
		return "", "", fmt.Errorf("load winner %d: %w", m.WinnerID, err)
	}
	l, err := s.matches.GetPlayer(ctx, m.LoserID)
	if err != nil {
		return "", "", fmt.Errorf("load loser %d: %w", m.LoserID, err)
	}
	if w == nil || l == nil {
		return "", "", domain.ErrReferential(fmt.Sprintf("match %s references missing player", m.ID))
	}
	return w.Name, l.Name, nil
}

func (s *Settler) publish(ctx context.Context, bet domain.Bet) {
	if s.mirror != nil {
		if err := s.mirror.MarkBetFinished(ctx, bet); err != nil {
			s.logger.Warn("mirror update failed", "bet_id", bet.ID, "error", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifySettled(ctx, bet); err != nil {
			s.logger.Warn("settlement notification failed", "bet_id", bet.ID, "error", err)
		}
	}
}

// DescriptionMatches reports whether a completed match between winnerName and
// loserName is the market the bet description ("Player1 v Player2") refers
// to, comparing folded surnames on both sides, order-insensitive.
func DescriptionMatches(description, winnerName, loserName string) bool {
	p1, p2, ok := splitDescription(description)
	if !ok {
		return false
	}
	return (resolver.SurnamesEqual(p1, winnerName) && resolver.SurnamesEqual(p2, loserName)) ||
		(resolver.SurnamesEqual(p1, loserName) && resolver.SurnamesEqual(p2, winnerName))
}

// Outcome determines the result for a selection given the match winner and
// score. Walkovers and abandonments void the bet.
func Outcome(selection, winnerName, score string) domain.BetResult {
	if isVoidScore(score) {
		return domain.BetVoid
	}
	if resolver.SurnamesEqual(selection, winnerName) {
		return domain.BetWin
	}
	return domain.BetLoss
}

func isVoidScore(score string) bool {
	upper := strings.ToUpper(strings.TrimSpace(score))
	return upper == "W/O" || upper == "WO" || strings.HasPrefix(upper, "ABD") ||
		strings.Contains(upper, "WALKOVER")
}

func splitDescription(description string) (string, string, bool) {
	for _, sep := range []string{" v ", " vs ", " vs. ", " - "} {
		if parts := strings.SplitN(description, sep, 2); len(parts) == 2 {
			return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
		}
	}
	return "", "", false
}
