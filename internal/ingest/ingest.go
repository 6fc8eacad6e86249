// Package ingest turns results-feed rows into stored matches: names resolve
// to player ids, tournaments classify to surface and level, and unresolved
// names become placeholder players so the match is never dropped.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/attaboy/matchedge/internal/classify"
	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/provider"
	"github.com/attaboy/matchedge/internal/resolver"
)

// Store is the write surface ingestion needs.
type Store interface {
	CreatePlaceholder(ctx context.Context, name string, tour domain.Tour) (*domain.Player, error)
	InsertMatch(ctx context.Context, m *domain.Match, source string) (bool, error)
	SaveTournament(ctx context.Context, t *domain.TournamentInfo) error
}

// Report summarizes one ingestion run.
type Report struct {
	Seen         int
	Inserted     int
	Duplicates   int
	Rejected     int
	Placeholders int
}

// Ingester loads completed matches from feed rows.
type Ingester struct {
	store    Store
	resolver resolver.Resolver
	logger   *slog.Logger
}

func New(store Store, res resolver.Resolver, logger *slog.Logger) *Ingester {
	return &Ingester{store: store, resolver: res, logger: logger}
}

// Run ingests the given rows. Individual row failures are logged and counted;
// they never abort the batch.
func (i *Ingester) Run(ctx context.Context, rows []provider.ResultRow) (Report, error) {
	var rep Report
	savedTournaments := map[string]bool{}
	for _, row := range rows {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.Seen++
		inserted, placeholders, err := i.ingestRow(ctx, row, savedTournaments)
		if err != nil {
			rep.Rejected++
			i.logger.Warn("match rejected",
				"tournament", row.Tournament,
				"winner", row.WinnerName,
				"loser", row.LoserName,
				"error", err)
			continue
		}
		rep.Placeholders += placeholders
		if inserted {
			rep.Inserted++
		} else {
			rep.Duplicates++
		}
	}
	i.logger.Info("ingestion complete",
		"seen", rep.Seen,
		"inserted", rep.Inserted,
		"duplicates", rep.Duplicates,
		"rejected", rep.Rejected,
		"placeholders", rep.Placeholders)
	return rep, nil
}

func (i *Ingester) ingestRow(ctx context.Context, row provider.ResultRow, savedTournaments map[string]bool) (inserted bool, placeholders int, err error) {
	hint := tourHint(row.Tournament)

	winnerID, created, err := i.resolveOrCreate(ctx, row.WinnerName, hint)
	if err != nil {
		return false, 0, err
	}
	if created {
		placeholders++
	}
	loserID, created, err := i.resolveOrCreate(ctx, row.LoserName, hint)
	if err != nil {
		return false, placeholders, err
	}
	if created {
		placeholders++
	}

	classifiedSurface, level := classify.Tournament(row.Tournament, row.Date)
	surface := domain.NormalizeSurface(row.Surface)
	if surface == domain.SurfaceUnknown {
		surface = classifiedSurface
	}
	i.saveTournament(ctx, row, surface, level, savedTournaments)

	m := &domain.Match{
		ID:         MatchID(row.Date, row.WinnerName, row.LoserName),
		Date:       row.Date,
		Tournament: row.Tournament,
		Surface:    surface,
		WinnerID:   winnerID,
		LoserID:    loserID,
		WinnerRank: row.WinnerRank,
		LoserRank:  row.LoserRank,
		Score:      row.Score,
		Minutes:    row.Minutes,
	}
	if row.BestOf == 3 || row.BestOf == 5 {
		bo := row.BestOf
		m.BestOf = &bo
	}

	ok, err := i.store.InsertMatch(ctx, m, "results_feed")
	if err != nil {
		return false, placeholders, err
	}
	return ok, placeholders, nil
}

// saveTournament records the classified event once per run. Failures are
// logged only; the match itself still goes in.
func (i *Ingester) saveTournament(ctx context.Context, row provider.ResultRow, surface domain.Surface, level domain.Level, saved map[string]bool) {
	name := strings.TrimSpace(row.Tournament)
	if name == "" || saved[name] {
		return
	}
	saved[name] = true
	err := i.store.SaveTournament(ctx, &domain.TournamentInfo{
		Name:      name,
		Surface:   surface,
		Level:     level,
		FirstSeen: row.Date,
	})
	if err != nil {
		i.logger.Warn("tournament save failed", "tournament", name, "error", err)
	}
}

// resolveOrCreate maps a display name to a player id, minting a placeholder
// when no existing player or alias matches.
func (i *Ingester) resolveOrCreate(ctx context.Context, name string, hint domain.Tour) (int64, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, fmt.Errorf("empty player name")
	}
	id, ok, err := i.resolver.Resolve(ctx, name, hint)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return id, false, nil
	}
	p, err := i.store.CreatePlaceholder(ctx, name, hint)
	if err != nil {
		return 0, false, fmt.Errorf("create placeholder for %q: %w", name, err)
	}
	i.logger.Info("placeholder created", "name", name, "id", p.ID)
	return p.ID, true, nil
}

func tourHint(tournament string) domain.Tour {
	switch {
	case classify.IsWomens(tournament):
		return domain.TourWTA
	case classify.IsMens(tournament):
		return domain.TourATP
	}
	return domain.TourUnknown
}

// MatchID derives a stable id from date and folded surnames, keeping feed
// re-reads idempotent.
func MatchID(date time.Time, winnerName, loserName string) string {
	w := strings.ReplaceAll(resolver.Fold(resolver.Surname(winnerName)), " ", "")
	l := strings.ReplaceAll(resolver.Fold(resolver.Surname(loserName)), " ", "")
	return fmt.Sprintf("%s-%s-%s", date.UTC().Format("20060102"), w, l)
}
