package suggest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attaboy/matchedge/internal/analysis"
	"github.com/attaboy/matchedge/internal/domain"
)

type fakeEngine struct {
	// p1Prob keyed by tournament, one market per tournament in these tests.
	p1Prob map[string]float64
}

func (f *fakeEngine) Calculate(_ context.Context, req analysis.Request) (*analysis.Result, error) {
	p := f.p1Prob[req.Tournament]
	return &analysis.Result{P1Probability: p, P2Probability: 1 - p}, nil
}

type fakePlayers struct {
	players map[int64]*domain.Player
}

func (f *fakePlayers) GetPlayer(_ context.Context, id int64) (*domain.Player, error) {
	return f.players[id], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fp(v float64) *float64 { return &v }

func ip(v int) *int { return &v }

func market(id, tournament string, startOffset time.Duration, odds1, odds2 float64) domain.UpcomingMatch {
	return domain.UpcomingMatch{
		MarketID:    id,
		Tournament:  tournament,
		StartTime:   time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC).Add(startOffset),
		Player1ID:   1,
		Player2ID:   2,
		Player1Name: "Novak Djokovic",
		Player2Name: "Carlos Alcaraz",
		Player1Odds: fp(odds1),
		Player2Odds: fp(odds2),
		Status:      domain.MarketActive,
	}
}

func newTestSuggester(engine Engine, players PlayerSource) *Suggester {
	return NewSuggester(engine, players, DefaultConfig(), testLogger())
}

func TestExpectedValue(t *testing.T) {
	// p=0.5 at evens is exactly break-even.
	assert.InDelta(t, 0.0, ExpectedValue(0.5, 2.0), 1e-9)
	assert.InDelta(t, 0.2, ExpectedValue(0.6, 2.0), 1e-9)
	assert.InDelta(t, -0.2, ExpectedValue(0.4, 2.0), 1e-9)
}

func TestKellyFraction(t *testing.T) {
	// p=0.6 at evens: (0.6*1 - 0.4) / 1 = 0.2.
	assert.InDelta(t, 0.2, KellyFraction(0.6, 2.0), 1e-9)
	// Negative edge floors at zero.
	assert.Equal(t, 0.0, KellyFraction(0.4, 2.0))
	// Degenerate odds.
	assert.Equal(t, 0.0, KellyFraction(0.9, 1.0))
}

func TestSuggest_ModelA(t *testing.T) {
	m := market("mk1", "ATP Doha", 0, 1.9, 2.1)
	engine := &fakeEngine{p1Prob: map[string]float64{"ATP Doha": 0.65}}
	s := newTestSuggester(engine, &fakePlayers{})

	out, err := s.Suggest(context.Background(), []domain.UpcomingMatch{m})
	require.NoError(t, err)
	require.Len(t, out, 1)

	c := out[0]
	assert.Equal(t, domain.ModelA, c.Model)
	assert.Equal(t, "Novak Djokovic", c.Selection)
	assert.Equal(t, int64(1), c.PlayerID)
	assert.InDelta(t, 0.65, c.OurProbability, 1e-9)
	assert.InDelta(t, 1/1.9, c.ImpliedProbability, 1e-9)
	// EV = 0.65*0.9 - 0.35.
	assert.InDelta(t, 0.235, c.ExpectedValue, 1e-9)
	// Quarter Kelly of (0.65*0.9 - 0.35)/0.9.
	assert.InDelta(t, 0.25*0.235/0.9, c.KellyStakePct, 1e-9)
	// 6.53 units rounds to 6.5, then clamps to the ModelA cap of 2.
	assert.Equal(t, 2.0, c.RecommendedUnits)
}

func TestSuggest_SharpGate(t *testing.T) {
	engine := &fakeEngine{p1Prob: map[string]float64{"ATP Doha": 0.65}}

	gated := DefaultConfig()
	gated.SharpGate = true
	s := NewSuggester(engine, &fakePlayers{}, gated, testLogger())

	// The sharp book's 1.4 implies 0.714, swallowing our 0.65 edge.
	m := market("mk1", "ATP Doha", 0, 1.9, 2.1)
	m.SharpP1Odds = fp(1.4)
	m.SharpP2Odds = fp(3.1)
	out, err := s.Suggest(context.Background(), []domain.UpcomingMatch{m})
	require.NoError(t, err)
	assert.Empty(t, out)

	// A sharp price our probability still clears passes the gate.
	m.SharpP1Odds = fp(1.7)
	out, err = s.Suggest(context.Background(), []domain.UpcomingMatch{m})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Novak Djokovic", out[0].Selection)

	// Markets without a sharp annotation are never gated.
	bare := market("mk2", "ATP Doha", 0, 1.9, 2.1)
	out, err = s.Suggest(context.Background(), []domain.UpcomingMatch{bare})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	// Gate off: the annotation is advisory only.
	m.SharpP1Odds = fp(1.4)
	out, err = newTestSuggester(engine, &fakePlayers{}).Suggest(context.Background(), []domain.UpcomingMatch{m})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestSuggest_ModelARequiresMainTour(t *testing.T) {
	m := market("mk1", "Phoenix Challenger", 0, 1.9, 2.1)
	engine := &fakeEngine{p1Prob: map[string]float64{"Phoenix Challenger": 0.65}}
	s := newTestSuggester(engine, &fakePlayers{})

	out, err := s.Suggest(context.Background(), []domain.UpcomingMatch{m})
	require.NoError(t, err)
	// Gate A fails on level, B fails on probability band, C fails without a
	// rank gap: discarded despite positive EV.
	assert.Empty(t, out)
}

func TestSuggest_ModelB(t *testing.T) {
	m := market("mk1", "Phoenix Challenger", 0, 2.6, 1.55)
	engine := &fakeEngine{p1Prob: map[string]float64{"Phoenix Challenger": 0.50}}
	s := newTestSuggester(engine, &fakePlayers{})

	out, err := s.Suggest(context.Background(), []domain.UpcomingMatch{m})
	require.NoError(t, err)
	require.Len(t, out, 1)
	// Edge = 0.50 - 1/2.6 = 0.115, inside the B band.
	assert.Equal(t, domain.ModelB, out[0].Model)
}

func TestSuggest_ModelCNeedsRankGap(t *testing.T) {
	m := market("mk1", "Phoenix Challenger", 0, 6.0, 1.12)
	engine := &fakeEngine{p1Prob: map[string]float64{"Phoenix Challenger": 0.30}}

	gap := &fakePlayers{players: map[int64]*domain.Player{
		1: {ID: 1, CurrentRanking: ip(120)},
		2: {ID: 2, CurrentRanking: ip(15)},
	}}
	s := newTestSuggester(engine, gap)
	out, err := s.Suggest(context.Background(), []domain.UpcomingMatch{m})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.ModelC, out[0].Model)
	// ModelC stakes cap at one unit.
	assert.LessOrEqual(t, out[0].RecommendedUnits, 1.0)

	// Same market, no usable rankings: discarded.
	noRanks := &fakePlayers{players: map[int64]*domain.Player{
		1: {ID: 1},
		2: {ID: 2, CurrentRanking: ip(15)},
	}}
	s = newTestSuggester(engine, noRanks)
	out, err = s.Suggest(context.Background(), []domain.UpcomingMatch{m})
	require.NoError(t, err)
	assert.Empty(t, out)

	// Gap under 50 positions: discarded.
	narrow := &fakePlayers{players: map[int64]*domain.Player{
		1: {ID: 1, CurrentRanking: ip(60)},
		2: {ID: 2, CurrentRanking: ip(15)},
	}}
	s = newTestSuggester(engine, narrow)
	out, err = s.Suggest(context.Background(), []domain.UpcomingMatch{m})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSuggest_EVThresholdIsStrict(t *testing.T) {
	// p and odds chosen so EV is exactly the 0.05 threshold: discarded.
	m := market("mk1", "ATP Doha", 0, 2.1, 1.9)
	engine := &fakeEngine{p1Prob: map[string]float64{"ATP Doha": 0.5}}
	s := newTestSuggester(engine, &fakePlayers{})

	out, err := s.Suggest(context.Background(), []domain.UpcomingMatch{m})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSuggest_SkipsMarketsMissingOddsOrPlayers(t *testing.T) {
	complete := market("mk1", "ATP Doha", 0, 1.9, 2.1)

	oneSided := market("mk2", "ATP Doha", 0, 1.9, 2.1)
	oneSided.Player2Odds = nil

	unresolved := market("mk3", "ATP Doha", 0, 1.9, 2.1)
	unresolved.Player2ID = 0

	engine := &fakeEngine{p1Prob: map[string]float64{"ATP Doha": 0.65}}
	s := newTestSuggester(engine, &fakePlayers{})

	out, err := s.Suggest(context.Background(), []domain.UpcomingMatch{complete, oneSided, unresolved})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "mk1", out[0].Market.MarketID)
}

func TestSuggest_DeduplicatesWithinBatch(t *testing.T) {
	// The same match captured under two market ids yields one candidate.
	first := market("mk1", "ATP Doha", 0, 1.9, 2.1)
	second := market("mk2", "ATP Doha", 0, 1.9, 2.1)

	engine := &fakeEngine{p1Prob: map[string]float64{"ATP Doha": 0.65}}
	s := newTestSuggester(engine, &fakePlayers{})

	out, err := s.Suggest(context.Background(), []domain.UpcomingMatch{first, second})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestSuggest_SortedByEVDescending(t *testing.T) {
	small := market("mk1", "ATP Doha", 2*time.Hour, 1.9, 2.3)
	big := market("mk2", "Madrid Open", 0, 2.4, 1.7)
	big.Player1Name = "Jannik Sinner"
	big.Player2Name = "Daniil Medvedev"

	engine := &fakeEngine{p1Prob: map[string]float64{
		"ATP Doha":    0.62,
		"Madrid Open": 0.60,
	}}
	s := newTestSuggester(engine, &fakePlayers{})

	out, err := s.Suggest(context.Background(), []domain.UpcomingMatch{small, big})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "mk2", out[0].Market.MarketID)
	assert.GreaterOrEqual(t, out[0].ExpectedValue, out[1].ExpectedValue)
}

func TestStakeUnits_RoundingAndClamp(t *testing.T) {
	s := newTestSuggester(&fakeEngine{}, &fakePlayers{})

	// 0.7% of a 100-unit bankroll rounds 0.7 to 0.5.
	assert.Equal(t, 0.5, s.stakeUnits(0.007, domain.ModelA))
	// 1.3% rounds 1.3 to 1.5.
	assert.Equal(t, 1.5, s.stakeUnits(0.013, domain.ModelA))
	// Tiny edges floor at the minimum.
	assert.Equal(t, 0.5, s.stakeUnits(0.0001, domain.ModelB))
	// ModelA and B cap at 2, ModelC at 1, the global clamp at 3.
	assert.Equal(t, 2.0, s.stakeUnits(0.05, domain.ModelA))
	assert.Equal(t, 2.0, s.stakeUnits(0.05, domain.ModelB))
	assert.Equal(t, 1.0, s.stakeUnits(0.05, domain.ModelC))
	assert.Equal(t, 3.0, s.stakeUnits(0.05, domain.ModelNone))
}

func TestBetFromCandidate(t *testing.T) {
	m := market("mk1", "ATP Doha", 0, 1.9, 2.1)
	placed := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	c := Candidate{
		Market:             m,
		PlayerID:           1,
		Selection:          "Novak Djokovic",
		Odds:               1.9,
		OurProbability:     0.65,
		ImpliedProbability: 1 / 1.9,
		ExpectedValue:      0.235,
		RecommendedUnits:   2.0,
		Model:              domain.ModelA,
	}

	bet := BetFromCandidate(c, placed)
	assert.Equal(t, m.StartTime, bet.MatchDate)
	assert.Equal(t, "ATP Doha", bet.Tournament)
	assert.Equal(t, "Novak Djokovic v Carlos Alcaraz", bet.Description)
	assert.Equal(t, "Novak Djokovic", bet.Selection)
	assert.Equal(t, 1.9, bet.Odds)
	assert.Equal(t, 2.0, bet.Stake)
	assert.Equal(t, domain.ModelA, bet.Model)
	assert.Equal(t, placed, bet.PlacedAt)
	assert.Nil(t, bet.Result)
}
