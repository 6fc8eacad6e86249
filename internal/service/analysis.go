// Package service composes the store, the probability model, and the
// external providers into the operations the API and the engine loops call.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/attaboy/matchedge/internal/analysis"
	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/repository"
	"github.com/attaboy/matchedge/internal/resolver"
)

// AnalysisService answers matchup probability questions.
type AnalysisService struct {
	store    *repository.Store
	analyzer *analysis.Analyzer
	resolver resolver.Resolver
	logger   *slog.Logger
}

func NewAnalysisService(store *repository.Store, analyzer *analysis.Analyzer, res resolver.Resolver, logger *slog.Logger) *AnalysisService {
	return &AnalysisService{store: store, analyzer: analyzer, resolver: res, logger: logger}
}

// AnalyzeIDs runs the model for two known player ids.
func (s *AnalysisService) AnalyzeIDs(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	return s.analyzer.Calculate(ctx, req)
}

// AnalyzeNames resolves two display names and runs the model. Unresolvable
// names are a client error, not a placeholder opportunity: ad hoc queries
// must not pollute the player table.
func (s *AnalysisService) AnalyzeNames(ctx context.Context, p1Name, p2Name string, surface domain.Surface, tournament string) (*analysis.Result, error) {
	p1ID, ok, err := s.resolver.Resolve(ctx, p1Name, domain.TourUnknown)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound("player", p1Name)
	}
	p2ID, ok, err := s.resolver.Resolve(ctx, p2Name, domain.TourUnknown)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound("player", p2Name)
	}
	return s.analyzer.Calculate(ctx, analysis.Request{
		Player1ID:  p1ID,
		Player2ID:  p2ID,
		Surface:    surface,
		Tournament: tournament,
	})
}

// SearchPlayers finds players by partial name, diacritic-insensitive.
func (s *AnalysisService) SearchPlayers(ctx context.Context, query string, limit int) ([]domain.Player, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.store.SearchPlayers(ctx, query, limit)
}

// GetPlayer loads one player, following alias links to the canonical row.
func (s *AnalysisService) GetPlayer(ctx context.Context, id int64) (*domain.Player, error) {
	p, err := s.store.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound("player", strconv.FormatInt(id, 10))
	}
	return p, nil
}

// PlayerMatches returns a player's matches over the trailing days, alias-aware.
func (s *AnalysisService) PlayerMatches(ctx context.Context, id int64, days, limit int) ([]domain.Match, error) {
	if _, err := s.GetPlayer(ctx, id); err != nil {
		return nil, err
	}
	if days <= 0 || days > 3650 {
		days = 365
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.store.GetPlayerMatches(ctx, id, since, limit)
}

// RecentMatches returns completed matches across all players.
func (s *AnalysisService) RecentMatches(ctx context.Context, days int) ([]domain.Match, error) {
	if days <= 0 || days > 90 {
		days = 7
	}
	return s.store.GetRecentMatches(ctx, days)
}

// GetMatch loads one completed match.
func (s *AnalysisService) GetMatch(ctx context.Context, id string) (*domain.Match, error) {
	m, err := s.store.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound("match", id)
	}
	return m, nil
}

// RosterPlayer creates a canonical player with an externally assigned id,
// for names the feed has not delivered yet.
func (s *AnalysisService) RosterPlayer(ctx context.Context, p *domain.Player) (*domain.Player, error) {
	if p.ID <= 0 {
		return nil, domain.ErrInvalidData("player id must be a positive feed id")
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, domain.ErrInvalidData("player name is required")
	}
	if p.Hand == "" {
		p.Hand = domain.HandUnknown
	}
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return nil, err
	}
	return s.GetPlayer(ctx, p.ID)
}

// LinkAlias merges a duplicate or placeholder row into its canonical player.
func (s *AnalysisService) LinkAlias(ctx context.Context, aliasID, canonicalID int64, source string) error {
	if aliasID == canonicalID {
		return domain.ErrReferential("alias and canonical are the same player")
	}
	if source == "" {
		source = "manual"
	}
	return s.store.AddPlayerAlias(ctx, aliasID, canonicalID, source)
}
