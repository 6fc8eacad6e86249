package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/attaboy/matchedge/internal/ingest"
	"github.com/attaboy/matchedge/internal/provider"
	"github.com/attaboy/matchedge/internal/rating"
	"github.com/attaboy/matchedge/internal/repository"
)

// Refresh kinds stamped as watermarks in the metadata table.
const (
	RefreshFull  = "full"
	RefreshQuick = "quick"
)

// quickOverlap re-reads a little history on quick refreshes so late result
// corrections are picked up. Idempotent inserts make the overlap free.
const quickOverlap = 48 * time.Hour

// RefreshReport summarizes one refresh run.
type RefreshReport struct {
	Kind           string        `json:"kind"`
	Since          time.Time     `json:"since"`
	Ingest         ingest.Report `json:"ingest"`
	RatingsUpdated int           `json:"ratings_updated"`
	Duration       string        `json:"duration"`
}

// RefreshService pulls new results and recomputes the derived state: surface
// stats and performance Elo ratings. One refresh runs at a time.
type RefreshService struct {
	store        *repository.Store
	results      *provider.ResultsClient
	ingester     *ingest.Ingester
	windowMonths int
	defaultElo   int
	logger       *slog.Logger

	mu sync.Mutex
}

func NewRefreshService(store *repository.Store, results *provider.ResultsClient, ingester *ingest.Ingester, windowMonths, defaultElo int, logger *slog.Logger) *RefreshService {
	return &RefreshService{
		store:        store,
		results:      results,
		ingester:     ingester,
		windowMonths: windowMonths,
		defaultElo:   defaultElo,
		logger:       logger,
	}
}

// FullRefresh re-reads the entire rolling window and rebuilds all derived
// state. Run on first boot and when history may have changed wholesale.
func (s *RefreshService) FullRefresh(ctx context.Context) (*RefreshReport, error) {
	since := rating.WindowStart(time.Now().UTC(), s.windowMonths)
	return s.refresh(ctx, RefreshFull, since)
}

// QuickRefresh reads from the last quick watermark, falling back to a full
// window read when no watermark exists yet.
func (s *RefreshService) QuickRefresh(ctx context.Context) (*RefreshReport, error) {
	now := time.Now().UTC()
	since, err := s.store.LastRefresh(ctx, RefreshQuick)
	if err != nil {
		return nil, fmt.Errorf("read refresh watermark: %w", err)
	}
	if since.IsZero() {
		since = rating.WindowStart(now, s.windowMonths)
	} else {
		since = since.Add(-quickOverlap)
	}
	return s.refresh(ctx, RefreshQuick, since)
}

func (s *RefreshService) refresh(ctx context.Context, kind string, since time.Time) (*RefreshReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	rep := &RefreshReport{Kind: kind, Since: since}

	if s.results.Enabled() {
		rows, err := s.results.FetchSince(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("fetch results: %w", err)
		}
		rep.Ingest, err = s.ingester.Run(ctx, rows)
		if err != nil {
			return nil, err
		}
	} else {
		s.logger.Info("results feed disabled, recomputing from stored matches only")
	}

	if err := s.store.RecomputeSurfaceStats(ctx); err != nil {
		return nil, fmt.Errorf("recompute surface stats: %w", err)
	}

	updated, err := s.recomputeRatings(ctx)
	if err != nil {
		return nil, err
	}
	rep.RatingsUpdated = updated

	if err := s.store.StampRefresh(ctx, kind, started.UTC()); err != nil {
		return nil, fmt.Errorf("stamp refresh watermark: %w", err)
	}

	rep.Duration = time.Since(started).Round(time.Millisecond).String()
	s.logger.Info("refresh complete",
		"kind", kind,
		"since", since.Format("2006-01-02"),
		"inserted", rep.Ingest.Inserted,
		"ratings_updated", updated,
		"duration", rep.Duration)
	return rep, nil
}

// recomputeRatings replays the rolling window and writes updated Elo, tour,
// and performance rank for every player with window activity.
func (s *RefreshService) recomputeRatings(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	from := rating.WindowStart(now, s.windowMonths)

	matches, err := s.store.GetMatchesBetween(ctx, from, now)
	if err != nil {
		return 0, fmt.Errorf("load window matches: %w", err)
	}
	rankings, err := s.store.Rankings(ctx)
	if err != nil {
		return 0, fmt.Errorf("load rankings: %w", err)
	}
	tours, err := s.store.Tours(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tours: %w", err)
	}

	updates := rating.Recompute(rating.Input{
		Matches:    matches,
		Rankings:   rankings,
		PriorTour:  tours,
		DefaultElo: float64(s.defaultElo),
	})
	if len(updates) == 0 {
		return 0, nil
	}
	if err := s.store.ApplyRatings(ctx, updates); err != nil {
		return 0, fmt.Errorf("apply ratings: %w", err)
	}
	return len(updates), nil
}
