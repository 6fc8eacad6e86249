package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/attaboy/matchedge/internal/analysis"
	"github.com/attaboy/matchedge/internal/engine"
	"github.com/attaboy/matchedge/internal/infra"
	"github.com/attaboy/matchedge/internal/ingest"
	"github.com/attaboy/matchedge/internal/provider"
	"github.com/attaboy/matchedge/internal/repository"
	"github.com/attaboy/matchedge/internal/resolver"
	"github.com/attaboy/matchedge/internal/service"
	"github.com/attaboy/matchedge/internal/settlement"
	"github.com/attaboy/matchedge/internal/suggest"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("engine failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if cfg.ExchangeAppKey == "" || cfg.ExchangeUsername == "" || cfg.ExchangePassword == "" {
		return fmt.Errorf("exchange credentials are required: set EXCHANGE_APP_KEY, EXCHANGE_USERNAME, EXCHANGE_PASSWORD")
	}

	if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	store := repository.NewStore(pool, logger)
	res := resolver.NewStoreResolver(store)

	analyzer := analysis.NewAnalyzer(store, cfg.RollingWindowMonths, cfg.DefaultRank)
	suggester := suggest.NewSuggester(analyzer, store, suggest.Config{
		EVThreshold:   cfg.EVThreshold,
		KellyFraction: cfg.KellyFraction,
		BankrollUnits: cfg.BankrollUnits,
		MinStakeUnits: cfg.MinStakeUnits,
		MaxStakeUnits: cfg.MaxStakeUnits,
		SharpGate:     cfg.SharpGateEnabled,
	}, logger)

	exchangeClient := provider.NewExchangeClient(
		cfg.ExchangeBaseURL, cfg.ExchangeLoginURL,
		cfg.ExchangeAppKey, cfg.ExchangeUsername, cfg.ExchangePassword,
		cfg.HTTPTimeout(), logger)
	sharpClient := provider.NewSharpOddsClient(cfg.SharpOddsBaseURL, cfg.HTTPTimeout(), logger)
	resultsClient := provider.NewResultsClient(cfg.ResultsFeedURL, cfg.HTTPTimeout(), logger)
	mirrorClient := provider.NewMirrorClient(cfg.MirrorBaseURL, cfg.HTTPTimeout(), logger)
	webhookClient := provider.NewWebhookClient(cfg.WebhookURL, cfg.HTTPTimeout(), logger)

	var mirror settlement.Mirror
	if mirrorClient.Enabled() {
		mirror = mirrorClient
	}
	var notifier settlement.Notifier
	if webhookClient.Enabled() {
		notifier = webhookClient
	}
	settler := settlement.NewSettler(store, store, mirror, notifier, cfg.CommissionRate, logger)

	ingester := ingest.New(store, res, logger)
	betSvc := service.NewBetService(store, suggester, settler, mirrorClient, webhookClient, logger)
	refreshSvc := service.NewRefreshService(store, resultsClient, ingester, cfg.RollingWindowMonths, cfg.DefaultElo, logger)

	// First boot has no watermark; a full refresh seeds ratings and stats
	// before any suggestion is made.
	if last, err := store.LastRefresh(ctx, service.RefreshFull); err != nil {
		return fmt.Errorf("read refresh watermark: %w", err)
	} else if last.IsZero() {
		logger.Info("no prior refresh found, running full refresh")
		if _, err := refreshSvc.FullRefresh(ctx); err != nil {
			return fmt.Errorf("initial full refresh: %w", err)
		}
	}

	runner := engine.NewRunner(store, exchangeClient, sharpClient, res, betSvc, refreshSvc,
		cfg.CaptureInterval(), cfg.AutoMode, logger)

	logger.Info("engine starting",
		"capture_interval", cfg.CaptureInterval().String(),
		"auto_mode_default", cfg.AutoMode)
	runner.Run(ctx)

	logger.Info("engine stopped gracefully")
	return nil
}
