package settlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attaboy/matchedge/internal/domain"
)

type fakeBetStore struct {
	pending     []domain.Bet
	settled     map[uuid.UUID]domain.BetResult
	profitLoss  map[uuid.UUID]float64
	alreadyDone map[uuid.UUID]bool
}

func newFakeBetStore(bets ...domain.Bet) *fakeBetStore {
	return &fakeBetStore{
		pending:     bets,
		settled:     map[uuid.UUID]domain.BetResult{},
		profitLoss:  map[uuid.UUID]float64{},
		alreadyDone: map[uuid.UUID]bool{},
	}
}

func (f *fakeBetStore) ListPendingBets(_ context.Context) ([]domain.Bet, error) {
	return f.pending, nil
}

func (f *fakeBetStore) SettleBet(_ context.Context, id uuid.UUID, result domain.BetResult, pl float64, _ time.Time) (bool, error) {
	if f.alreadyDone[id] {
		return false, nil
	}
	f.settled[id] = result
	f.profitLoss[id] = pl
	return true, nil
}

type fakeMatchSource struct {
	matches []domain.Match
	players map[int64]*domain.Player
	err     error
}

func (f *fakeMatchSource) GetMatchesBetween(_ context.Context, from, to time.Time) ([]domain.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Match
	for _, m := range f.matches {
		if !m.Date.Before(from) && !m.Date.After(to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMatchSource) GetPlayer(_ context.Context, id int64) (*domain.Player, error) {
	return f.players[id], nil
}

type recordingMirror struct {
	finished []uuid.UUID
	err      error
}

func (r *recordingMirror) MarkBetFinished(_ context.Context, bet domain.Bet) error {
	if r.err != nil {
		return r.err
	}
	r.finished = append(r.finished, bet.ID)
	return nil
}

type recordingNotifier struct {
	notified []uuid.UUID
}

func (r *recordingNotifier) NotifySettled(_ context.Context, bet domain.Bet) error {
	r.notified = append(r.notified, bet.ID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func matchDate() time.Time {
	return time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
}

func pendingBet(selection string) domain.Bet {
	return domain.Bet{
		ID:          uuid.New(),
		MatchDate:   matchDate(),
		Tournament:  "ATP Doha",
		Description: "Novak Djokovic v Carlos Alcaraz",
		Selection:   selection,
		Odds:        2.0,
		Stake:       1.5,
		Model:       domain.ModelA,
		PlacedAt:    matchDate().Add(-6 * time.Hour),
	}
}

func completedMatch(date time.Time) domain.Match {
	return domain.Match{
		ID:         "20260210-djokovic-alcaraz",
		Date:       date,
		Tournament: "ATP Doha",
		WinnerID:   1,
		LoserID:    2,
		Score:      "6-4 6-3",
	}
}

func doubleSource(date time.Time) *fakeMatchSource {
	return &fakeMatchSource{
		matches: []domain.Match{completedMatch(date)},
		players: map[int64]*domain.Player{
			1: {ID: 1, Name: "Novak Djokovic"},
			2: {ID: 2, Name: "Carlos Alcaraz"},
		},
	}
}

func TestSettlePending_Win(t *testing.T) {
	bet := pendingBet("Novak Djokovic")
	store := newFakeBetStore(bet)
	mirror := &recordingMirror{}
	notifier := &recordingNotifier{}
	s := NewSettler(store, doubleSource(matchDate()), mirror, notifier, 0.05, discardLogger())

	settled, err := s.SettlePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.Equal(t, domain.BetWin, store.settled[bet.ID])
	// 1.5 * (2.0 - 1) net of 5% commission.
	assert.InDelta(t, 1.425, store.profitLoss[bet.ID], 1e-9)
	assert.Equal(t, []uuid.UUID{bet.ID}, mirror.finished)
	assert.Equal(t, []uuid.UUID{bet.ID}, notifier.notified)
}

func TestSettlePending_Loss(t *testing.T) {
	bet := pendingBet("Carlos Alcaraz")
	store := newFakeBetStore(bet)
	s := NewSettler(store, doubleSource(matchDate()), nil, nil, 0.05, discardLogger())

	settled, err := s.SettlePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.Equal(t, domain.BetLoss, store.settled[bet.ID])
	assert.InDelta(t, -1.5, store.profitLoss[bet.ID], 1e-9)
}

func TestSettlePending_Void(t *testing.T) {
	bet := pendingBet("Novak Djokovic")
	store := newFakeBetStore(bet)
	src := doubleSource(matchDate())
	src.matches[0].Score = "W/O"
	s := NewSettler(store, src, nil, nil, 0.05, discardLogger())

	settled, err := s.SettlePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.Equal(t, domain.BetVoid, store.settled[bet.ID])
	assert.Zero(t, store.profitLoss[bet.ID])
}

func TestSettlePending_MatchWindow(t *testing.T) {
	bet := pendingBet("Novak Djokovic")

	// A feed date one day earlier than the exchange start time still matches.
	store := newFakeBetStore(bet)
	s := NewSettler(store, doubleSource(matchDate().AddDate(0, 0, -1)), nil, nil, 0.05, discardLogger())
	settled, err := s.SettlePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	// Three days out does not.
	store = newFakeBetStore(bet)
	s = NewSettler(store, doubleSource(matchDate().AddDate(0, 0, -3)), nil, nil, 0.05, discardLogger())
	settled, err = s.SettlePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, settled)
	assert.Empty(t, store.settled)
}

func TestSettlePending_AlreadySettledNotRepublished(t *testing.T) {
	bet := pendingBet("Novak Djokovic")
	store := newFakeBetStore(bet)
	store.alreadyDone[bet.ID] = true
	mirror := &recordingMirror{}
	notifier := &recordingNotifier{}
	s := NewSettler(store, doubleSource(matchDate()), mirror, notifier, 0.05, discardLogger())

	settled, err := s.SettlePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, settled)
	assert.Empty(t, mirror.finished)
	assert.Empty(t, notifier.notified)
}

func TestSettlePending_UnmatchedBetStaysPending(t *testing.T) {
	broken := pendingBet("Novak Djokovic")
	broken.MatchDate = matchDate().AddDate(0, 1, 0)
	healthy := pendingBet("Novak Djokovic")

	src := doubleSource(matchDate())
	store := newFakeBetStore(broken, healthy)
	s := NewSettler(store, src, nil, nil, 0.05, discardLogger())

	settled, err := s.SettlePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.Contains(t, store.settled, healthy.ID)
	assert.NotContains(t, store.settled, broken.ID)
}

func TestSettlePending_MirrorFailureStillSettles(t *testing.T) {
	bet := pendingBet("Novak Djokovic")
	store := newFakeBetStore(bet)
	mirror := &recordingMirror{err: errors.New("cloud unreachable")}
	s := NewSettler(store, doubleSource(matchDate()), mirror, nil, 0.05, discardLogger())

	settled, err := s.SettlePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.Equal(t, domain.BetWin, store.settled[bet.ID])
}

func TestDescriptionMatches(t *testing.T) {
	tests := []struct {
		name        string
		description string
		winner      string
		loser       string
		want        bool
	}{
		{"same order", "Novak Djokovic v Carlos Alcaraz", "Novak Djokovic", "Carlos Alcaraz", true},
		{"reversed order", "Carlos Alcaraz v Novak Djokovic", "Novak Djokovic", "Carlos Alcaraz", true},
		{"vs separator", "Djokovic N. vs Alcaraz C.", "Novak Djokovic", "Carlos Alcaraz", true},
		{"vs dot separator", "Djokovic vs. Alcaraz", "Novak Djokovic", "Carlos Alcaraz", true},
		{"dash separator", "Djokovic - Alcaraz", "Novak Djokovic", "Carlos Alcaraz", true},
		{"diacritics", "Novak Djoković v Carlos Alcaraz", "Novak Djokovic", "Carlos Alcaraz", true},
		{"different pair", "Novak Djokovic v Jannik Sinner", "Novak Djokovic", "Carlos Alcaraz", false},
		{"no separator", "Novak Djokovic Carlos Alcaraz", "Novak Djokovic", "Carlos Alcaraz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescriptionMatches(tt.description, tt.winner, tt.loser))
		})
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, domain.BetWin, Outcome("Novak Djokovic", "Djokovic N.", "6-4 6-3"))
	assert.Equal(t, domain.BetLoss, Outcome("Carlos Alcaraz", "Djokovic N.", "6-4 6-3"))
	assert.Equal(t, domain.BetVoid, Outcome("Novak Djokovic", "Djokovic N.", "W/O"))
	assert.Equal(t, domain.BetVoid, Outcome("Novak Djokovic", "Djokovic N.", "Abd."))
	assert.Equal(t, domain.BetVoid, Outcome("Novak Djokovic", "Djokovic N.", "walkover"))
}
