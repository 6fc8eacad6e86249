package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attaboy/matchedge/internal/domain"
)

type fakeSource struct {
	players map[int64]*domain.Player
	matches map[int64][]domain.Match
	h2h     [2]int
	stats   map[int64]*domain.SurfaceStats
}

func (f *fakeSource) GetPlayer(_ context.Context, id int64) (*domain.Player, error) {
	return f.players[id], nil
}

func (f *fakeSource) GetPlayerMatches(_ context.Context, id int64, _ time.Time, _ int) ([]domain.Match, error) {
	return f.matches[id], nil
}

func (f *fakeSource) HeadToHead(_ context.Context, _, _ int64) (int, int, error) {
	return f.h2h[0], f.h2h[1], nil
}

func (f *fakeSource) GetSurfaceStats(_ context.Context, id int64, _ domain.Surface) (*domain.SurfaceStats, error) {
	return f.stats[id], nil
}

func fixedNow() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func newTestAnalyzer(src DataSource) *Analyzer {
	a := NewAnalyzer(src, 12, DefaultRank)
	a.now = fixedNow
	return a
}

func TestCalculate_SamePlayerRejected(t *testing.T) {
	a := newTestAnalyzer(&fakeSource{})
	_, err := a.Calculate(context.Background(), Request{Player1ID: 5, Player2ID: 5})
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)
}

func TestCalculate_UnknownPlayer(t *testing.T) {
	src := &fakeSource{players: map[int64]*domain.Player{1: {ID: 1, Name: "Known"}}}
	a := newTestAnalyzer(src)
	_, err := a.Calculate(context.Background(), Request{Player1ID: 1, Player2ID: 2})
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Status)
}

func TestCalculate_NeutralMatchupIsEven(t *testing.T) {
	src := &fakeSource{players: map[int64]*domain.Player{
		1: {ID: 1, Name: "One"},
		2: {ID: 2, Name: "Two"},
	}}
	a := newTestAnalyzer(src)

	result, err := a.Calculate(context.Background(), Request{Player1ID: 1, Player2ID: 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.P1Probability, 1e-9)
	assert.InDelta(t, 0.5, result.P2Probability, 1e-9)
	assert.Zero(t, result.WeightedAdvantage)
}

func TestCalculate_TenFactorsWeightsSumToOne(t *testing.T) {
	src := &fakeSource{players: map[int64]*domain.Player{
		1: {ID: 1, Name: "One"},
		2: {ID: 2, Name: "Two"},
	}}
	a := newTestAnalyzer(src)

	result, err := a.Calculate(context.Background(), Request{Player1ID: 1, Player2ID: 2})
	require.NoError(t, err)
	require.Len(t, result.Factors, 10)

	total := 0.0
	for _, f := range result.Factors {
		total += f.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestCalculate_StrongerPlayerFavored(t *testing.T) {
	rank1, rank2 := 3, 250
	src := &fakeSource{
		players: map[int64]*domain.Player{
			1: {ID: 1, Name: "Favorite", CurrentRanking: &rank1},
			2: {ID: 2, Name: "Outsider", CurrentRanking: &rank2},
		},
		matches: map[int64][]domain.Match{
			1: {
				{ID: "a", Date: fixedNow().AddDate(0, 0, -10), Surface: domain.SurfaceHard, WinnerID: 1, LoserID: 9},
				{ID: "b", Date: fixedNow().AddDate(0, 0, -17), Surface: domain.SurfaceHard, WinnerID: 1, LoserID: 8},
			},
			2: {
				{ID: "c", Date: fixedNow().AddDate(0, 0, -12), Surface: domain.SurfaceHard, WinnerID: 7, LoserID: 2},
				{ID: "d", Date: fixedNow().AddDate(0, 0, -19), Surface: domain.SurfaceHard, WinnerID: 6, LoserID: 2},
			},
		},
		h2h: [2]int{3, 0},
	}
	a := newTestAnalyzer(src)

	result, err := a.Calculate(context.Background(), Request{
		Player1ID: 1, Player2ID: 2, Surface: domain.SurfaceHard,
	})
	require.NoError(t, err)
	assert.Greater(t, result.P1Probability, 0.5)
	assert.InDelta(t, 1.0, result.P1Probability+result.P2Probability, 1e-9)

	// Flipping the sides mirrors the probability.
	src2 := &fakeSource{players: src.players, matches: src.matches, h2h: [2]int{0, 3}}
	a2 := newTestAnalyzer(src2)
	mirror, err := a2.Calculate(context.Background(), Request{
		Player1ID: 2, Player2ID: 1, Surface: domain.SurfaceHard,
	})
	require.NoError(t, err)
	assert.InDelta(t, result.P1Probability, mirror.P2Probability, 1e-9)
}

func TestCalculate_Deterministic(t *testing.T) {
	rank := 20
	src := &fakeSource{
		players: map[int64]*domain.Player{
			1: {ID: 1, Name: "One", CurrentRanking: &rank},
			2: {ID: 2, Name: "Two"},
		},
		h2h: [2]int{1, 2},
	}
	a := newTestAnalyzer(src)

	req := Request{Player1ID: 1, Player2ID: 2, Surface: domain.SurfaceClay}
	first, err := a.Calculate(context.Background(), req)
	require.NoError(t, err)
	second, err := a.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculate_ProbabilityBounds(t *testing.T) {
	// Every factor maxed toward player 1 still stays inside the clamp.
	rank1, rank2 := 1, 1400
	src := &fakeSource{
		players: map[int64]*domain.Player{
			1: {ID: 1, Name: "One", CurrentRanking: &rank1},
			2: {ID: 2, Name: "Two", CurrentRanking: &rank2, InjuryPenalty: 1.0},
		},
		matches: map[int64][]domain.Match{
			1: winsOnHard(1, 10),
			2: lossesOnHard(2, 10),
		},
		h2h: [2]int{5, 0},
	}
	a := newTestAnalyzer(src)

	result, err := a.Calculate(context.Background(), Request{
		Player1ID: 1, Player2ID: 2, Surface: domain.SurfaceHard,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, result.P1Probability, maxProbability)
	assert.GreaterOrEqual(t, result.P2Probability, minProbability)
	assert.Greater(t, result.P1Probability, 0.8)
}

func TestCalculate_OddsEchoedAsImplied(t *testing.T) {
	src := &fakeSource{players: map[int64]*domain.Player{
		1: {ID: 1, Name: "One"},
		2: {ID: 2, Name: "Two"},
	}}
	a := newTestAnalyzer(src)

	odds1, odds2 := 1.8, 2.2
	result, err := a.Calculate(context.Background(), Request{
		Player1ID: 1, Player2ID: 2, Player1Odds: &odds1, Player2Odds: &odds2,
	})
	require.NoError(t, err)
	require.NotNil(t, result.P1ImpliedProbability)
	require.NotNil(t, result.P2ImpliedProbability)
	assert.InDelta(t, 1/1.8, *result.P1ImpliedProbability, 1e-9)
	assert.InDelta(t, 1/2.2, *result.P2ImpliedProbability, 1e-9)
}

func winsOnHard(id int64, n int) []domain.Match {
	var out []domain.Match
	for i := 0; i < n; i++ {
		out = append(out, domain.Match{
			ID:       string(rune('a' + i)),
			Date:     fixedNow().AddDate(0, 0, -30-i*7),
			Surface:  domain.SurfaceHard,
			WinnerID: id,
			LoserID:  900 + int64(i),
		})
	}
	return out
}

func lossesOnHard(id int64, n int) []domain.Match {
	var out []domain.Match
	for i := 0; i < n; i++ {
		out = append(out, domain.Match{
			ID:       string(rune('A' + i)),
			Date:     fixedNow().AddDate(0, 0, -30-i*7),
			Surface:  domain.SurfaceHard,
			WinnerID: 900 + int64(i),
			LoserID:  id,
		})
	}
	return out
}
