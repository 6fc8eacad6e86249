package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/provider"
)

type fakeStore struct {
	nextID       int64
	placeholders []string
	inserted     []*domain.Match
	tournaments  []*domain.TournamentInfo
	seenIDs      map[string]bool
	insertErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{seenIDs: map[string]bool{}}
}

// Placeholders get negative ids, matching the store's convention.
func (f *fakeStore) CreatePlaceholder(_ context.Context, name string, tour domain.Tour) (*domain.Player, error) {
	f.nextID--
	f.placeholders = append(f.placeholders, name)
	return &domain.Player{ID: f.nextID, Name: name, Tour: tour}, nil
}

func (f *fakeStore) SaveTournament(_ context.Context, t *domain.TournamentInfo) error {
	f.tournaments = append(f.tournaments, t)
	return nil
}

func (f *fakeStore) InsertMatch(_ context.Context, m *domain.Match, _ string) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if f.seenIDs[m.ID] {
		return false, nil
	}
	f.seenIDs[m.ID] = true
	f.inserted = append(f.inserted, m)
	return true, nil
}

type mapResolver struct {
	ids map[string]int64
}

func (m *mapResolver) Resolve(_ context.Context, name string, _ domain.Tour) (int64, bool, error) {
	id, ok := m.ids[name]
	return id, ok, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resultRow(winner, loser string) provider.ResultRow {
	return provider.ResultRow{
		Date:       time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Tournament: "ATP Doha",
		Surface:    "Hard",
		WinnerName: winner,
		LoserName:  loser,
		Score:      "6-4 6-3",
		BestOf:     3,
	}
}

func TestRun_InsertsResolvedMatch(t *testing.T) {
	store := newFakeStore()
	res := &mapResolver{ids: map[string]int64{"Novak Djokovic": 1, "Carlos Alcaraz": 2}}
	ing := New(store, res, testLogger())

	rep, err := ing.Run(context.Background(), []provider.ResultRow{resultRow("Novak Djokovic", "Carlos Alcaraz")})
	require.NoError(t, err)
	assert.Equal(t, Report{Seen: 1, Inserted: 1}, rep)

	require.Len(t, store.inserted, 1)
	m := store.inserted[0]
	assert.Equal(t, "20260210-djokovic-alcaraz", m.ID)
	assert.Equal(t, int64(1), m.WinnerID)
	assert.Equal(t, int64(2), m.LoserID)
	assert.Equal(t, domain.SurfaceHard, m.Surface)
	require.NotNil(t, m.BestOf)
	assert.Equal(t, 3, *m.BestOf)
	assert.Empty(t, store.placeholders)

	require.Len(t, store.tournaments, 1)
	assert.Equal(t, "ATP Doha", store.tournaments[0].Name)
	assert.Equal(t, domain.LevelATP, store.tournaments[0].Level)
}

func TestRun_MintsPlaceholdersForUnknownNames(t *testing.T) {
	store := newFakeStore()
	res := &mapResolver{ids: map[string]int64{"Novak Djokovic": 1}}
	ing := New(store, res, testLogger())

	rep, err := ing.Run(context.Background(), []provider.ResultRow{resultRow("Novak Djokovic", "Unknown Qualifier")})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Inserted)
	assert.Equal(t, 1, rep.Placeholders)
	assert.Equal(t, []string{"Unknown Qualifier"}, store.placeholders)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, int64(-1), store.inserted[0].LoserID)
}

func TestRun_DuplicateRowsCounted(t *testing.T) {
	store := newFakeStore()
	res := &mapResolver{ids: map[string]int64{"Novak Djokovic": 1, "Carlos Alcaraz": 2}}
	ing := New(store, res, testLogger())

	row := resultRow("Novak Djokovic", "Carlos Alcaraz")
	rep, err := ing.Run(context.Background(), []provider.ResultRow{row, row})
	require.NoError(t, err)
	assert.Equal(t, Report{Seen: 2, Inserted: 1, Duplicates: 1}, rep)
}

func TestRun_BadRowDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	res := &mapResolver{ids: map[string]int64{"Novak Djokovic": 1, "Carlos Alcaraz": 2}}
	ing := New(store, res, testLogger())

	bad := resultRow("", "Carlos Alcaraz")
	good := resultRow("Novak Djokovic", "Carlos Alcaraz")
	rep, err := ing.Run(context.Background(), []provider.ResultRow{bad, good})
	require.NoError(t, err)
	assert.Equal(t, Report{Seen: 2, Inserted: 1, Rejected: 1}, rep)
}

func TestRun_StoreErrorRejectsRow(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("constraint violation")
	res := &mapResolver{ids: map[string]int64{"Novak Djokovic": 1, "Carlos Alcaraz": 2}}
	ing := New(store, res, testLogger())

	rep, err := ing.Run(context.Background(), []provider.ResultRow{resultRow("Novak Djokovic", "Carlos Alcaraz")})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Rejected)
}

func TestRun_SurfaceFallsBackToTournament(t *testing.T) {
	store := newFakeStore()
	res := &mapResolver{ids: map[string]int64{"Novak Djokovic": 1, "Carlos Alcaraz": 2}}
	ing := New(store, res, testLogger())

	row := resultRow("Novak Djokovic", "Carlos Alcaraz")
	row.Surface = ""
	row.Tournament = "French Open"

	_, err := ing.Run(context.Background(), []provider.ResultRow{row})
	require.NoError(t, err)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, domain.SurfaceClay, store.inserted[0].Surface)
}

func TestMatchID(t *testing.T) {
	date := time.Date(2026, 2, 10, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "20260210-djokovic-alcaraz", MatchID(date, "Djokovic N.", "Alcaraz C."))
	// Compound surnames collapse their spaces.
	assert.Equal(t, "20260210-vandezandschulp-alcaraz", MatchID(date, "Van De Zandschulp B.", "Alcaraz C."))
	// Name shape does not change the id.
	assert.Equal(t,
		MatchID(date, "Novak Djokovic", "Carlos Alcaraz"),
		MatchID(date, "Djokovic N.", "Alcaraz C."))
}
