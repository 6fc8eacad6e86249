// Package engine runs the background loops: market capture with suggestion,
// and settlement with a quick data refresh. Loops are ticker-driven and stop
// on context cancellation.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/attaboy/matchedge/internal/classify"
	"github.com/attaboy/matchedge/internal/domain"
	"github.com/attaboy/matchedge/internal/provider"
	"github.com/attaboy/matchedge/internal/repository"
	"github.com/attaboy/matchedge/internal/resolver"
	"github.com/attaboy/matchedge/internal/service"
)

// captureWindow bounds how far ahead markets are captured.
const captureWindow = 48 * time.Hour

// Runner owns the engine loops. The auto-placement switch lives in the
// metadata table and is re-read each cycle, so the API process can flip it.
type Runner struct {
	store       *repository.Store
	exchange    *provider.ExchangeClient
	sharp       *provider.SharpOddsClient
	resolver    resolver.Resolver
	bets        *service.BetService
	refresh     *service.RefreshService
	interval    time.Duration
	defaultAuto bool
	logger      *slog.Logger
}

func NewRunner(
	store *repository.Store,
	exchange *provider.ExchangeClient,
	sharp *provider.SharpOddsClient,
	res resolver.Resolver,
	bets *service.BetService,
	refresh *service.RefreshService,
	interval time.Duration,
	defaultAuto bool,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		store:       store,
		exchange:    exchange,
		sharp:       sharp,
		resolver:    res,
		bets:        bets,
		refresh:     refresh,
		interval:    interval,
		defaultAuto: defaultAuto,
		logger:      logger,
	}
}

// Run starts both loops and blocks until ctx is cancelled. Each loop runs
// one cycle immediately, then on its ticker.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.loop(ctx, "capture", r.captureCycle)
	}()
	go func() {
		defer wg.Done()
		r.loop(ctx, "settlement", r.settlementCycle)
	}()
	wg.Wait()
}

func (r *Runner) loop(ctx context.Context, name string, cycle func(context.Context)) {
	cycle(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("loop stopped", "loop", name)
			return
		case <-ticker.C:
			cycle(ctx)
		}
	}
}

// captureCycle pulls markets from the exchange, stores them, annotates sharp
// prices, and evaluates suggestions. Failures end the cycle early; the next
// tick retries.
func (r *Runner) captureCycle(ctx context.Context) {
	markets, err := r.exchange.ListUpcomingMarkets(ctx, captureWindow)
	if err != nil {
		r.logger.Error("market capture failed", "error", err)
		return
	}

	stored := 0
	for _, m := range markets {
		if err := r.storeMarket(ctx, m); err != nil {
			r.logger.Warn("market upsert failed", "market_id", m.MarketID, "error", err)
			continue
		}
		stored++
	}

	pruned, err := r.store.PruneStaleMarkets(ctx)
	if err != nil {
		r.logger.Warn("market prune failed", "error", err)
	}

	r.annotateSharpOdds(ctx)

	candidates, err := r.bets.Suggestions(ctx)
	if err != nil {
		r.logger.Error("suggestion pass failed", "error", err)
		return
	}
	r.logger.Info("capture cycle complete",
		"markets", len(markets),
		"stored", stored,
		"pruned", pruned,
		"candidates", len(candidates))

	auto, err := r.store.AutoMode(ctx, r.defaultAuto)
	if err != nil {
		r.logger.Warn("auto mode read failed", "error", err)
		return
	}
	if !auto {
		return
	}
	for _, c := range candidates {
		bet, err := r.bets.PlaceFromCandidate(ctx, c)
		if err != nil {
			// Duplicates from earlier cycles land here; anything else is
			// worth a look.
			r.logger.Debug("auto placement skipped", "selection", c.Selection, "error", err)
			continue
		}
		r.logger.Info("bet auto placed",
			"bet_id", bet.ID,
			"selection", bet.Selection,
			"odds", bet.Odds,
			"stake", bet.Stake,
			"model", bet.Model)
	}
}

// storeMarket resolves runner names and upserts the snapshot. Markets with an
// unresolvable side are kept with a zero id on that side; the suggester skips
// them until the player surfaces in the results feed.
func (r *Runner) storeMarket(ctx context.Context, m provider.CapturedMarket) error {
	hint := domain.TourUnknown
	switch {
	case classify.IsWomens(m.Tournament):
		hint = domain.TourWTA
	case classify.IsMens(m.Tournament):
		hint = domain.TourATP
	}

	p1ID, _, err := r.resolver.Resolve(ctx, m.Player1Name, hint)
	if err != nil {
		return err
	}
	p2ID, _, err := r.resolver.Resolve(ctx, m.Player2Name, hint)
	if err != nil {
		return err
	}

	surface, _ := classify.Tournament(m.Tournament, m.StartTime)
	status := domain.MarketStatus(m.Status)
	if status == "" {
		status = domain.MarketActive
	}
	return r.store.UpsertUpcomingMatch(ctx, &domain.UpcomingMatch{
		MarketID:       m.MarketID,
		Tournament:     m.Tournament,
		StartTime:      m.StartTime,
		Surface:        surface,
		Player1ID:      p1ID,
		Player2ID:      p2ID,
		Player1Name:    m.Player1Name,
		Player2Name:    m.Player2Name,
		Player1Odds:    m.Player1Odds,
		Player2Odds:    m.Player2Odds,
		TotalMatched:   m.TotalMatched,
		TotalAvailable: m.TotalAvailable,
		Status:         status,
		CapturedAt:     time.Now().UTC(),
	})
}

// annotateSharpOdds matches sharp quotes to open markets by surname pair.
// Purely additive; missing quotes leave markets untouched.
func (r *Runner) annotateSharpOdds(ctx context.Context) {
	if !r.sharp.Enabled() {
		return
	}
	quotes, err := r.sharp.FetchQuotes(ctx)
	if err != nil {
		r.logger.Warn("sharp odds fetch failed", "error", err)
		return
	}
	if len(quotes) == 0 {
		return
	}
	open, err := r.store.ListOpenMarkets(ctx)
	if err != nil {
		r.logger.Warn("open market list failed", "error", err)
		return
	}
	annotated := 0
	for _, m := range open {
		for _, q := range quotes {
			p1, p2, ok := matchQuote(m, q)
			if !ok {
				continue
			}
			if err := r.store.AnnotateSharpOdds(ctx, m.MarketID, p1, p2); err != nil {
				r.logger.Warn("sharp annotation failed", "market_id", m.MarketID, "error", err)
				break
			}
			annotated++
			break
		}
	}
	if annotated > 0 {
		r.logger.Info("sharp odds annotated", "markets", annotated)
	}
}

// matchQuote aligns a quote's sides with the market's fixed player order.
func matchQuote(m domain.UpcomingMatch, q provider.SharpQuote) (p1, p2 float64, ok bool) {
	if resolver.SurnamesEqual(m.Player1Name, q.Player1Name) && resolver.SurnamesEqual(m.Player2Name, q.Player2Name) {
		return q.Player1Odds, q.Player2Odds, true
	}
	if resolver.SurnamesEqual(m.Player1Name, q.Player2Name) && resolver.SurnamesEqual(m.Player2Name, q.Player1Name) {
		return q.Player2Odds, q.Player1Odds, true
	}
	return 0, 0, false
}

// settlementCycle refreshes recent results, then settles whatever became
// decidable.
func (r *Runner) settlementCycle(ctx context.Context) {
	if _, err := r.refresh.QuickRefresh(ctx); err != nil {
		r.logger.Error("quick refresh failed", "error", err)
	}
	if _, err := r.bets.MarkLive(ctx); err != nil {
		r.logger.Warn("live marking failed", "error", err)
	}
	settled, err := r.bets.SettleNow(ctx)
	if err != nil {
		r.logger.Error("settlement pass failed", "error", err)
		return
	}
	if settled > 0 {
		r.logger.Info("settlement cycle complete", "settled", settled)
	}
}
