package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attaboy/matchedge/internal/analysis"
	"github.com/attaboy/matchedge/internal/handler"
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
		logger.Error("server failed", "error", err)
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

	mirrorClient := provider.NewMirrorClient(cfg.MirrorBaseURL, cfg.HTTPTimeout(), logger)
	webhookClient := provider.NewWebhookClient(cfg.WebhookURL, cfg.HTTPTimeout(), logger)
	resultsClient := provider.NewResultsClient(cfg.ResultsFeedURL, cfg.HTTPTimeout(), logger)

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

	analysisSvc := service.NewAnalysisService(store, analyzer, res, logger)
	betSvc := service.NewBetService(store, suggester, settler, mirrorClient, webhookClient, logger)
	refreshSvc := service.NewRefreshService(store, resultsClient, ingester, cfg.RollingWindowMonths, cfg.DefaultElo, logger)

	router := handler.NewRouter(handler.RouterDeps{
		Pool:           pool,
		Players:        handler.NewPlayerHandler(analysisSvc),
		Matches:        handler.NewMatchHandler(analysisSvc),
		Analysis:       handler.NewAnalysisHandler(analysisSvc),
		Bets:           handler.NewBetHandler(betSvc),
		Admin:          handler.NewAdminHandler(refreshSvc, store, cfg.AutoMode),
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
