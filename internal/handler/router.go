package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Pool     *pgxpool.Pool
	Players  *PlayerHandler
	Matches  *MatchHandler
	Analysis *AnalysisHandler
	Bets     *BetHandler
	Admin    *AdminHandler
	Logger   *slog.Logger

	// AllowedOrigins is comma-separated; "*" allows all.
	AllowedOrigins string
}

// NewRouter builds the chi router with the standard middleware chain.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Recovery(deps.Logger))
	r.Use(RequestLogger(deps.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: strings.Split(deps.AllowedOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(JSONContentType)

	r.Get("/health", HealthHandler(deps.Pool))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/players/search", deps.Players.Search)
		r.Post("/players", deps.Players.Create)
		r.Post("/players/aliases", deps.Players.LinkAlias)
		r.Get("/players/{id}", deps.Players.Get)
		r.Get("/players/{id}/matches", deps.Players.Matches)

		r.Get("/matches/recent", deps.Matches.Recent)
		r.Get("/matches/{id}", deps.Matches.Get)

		r.Post("/analyze", deps.Analysis.Analyze)

		r.Get("/suggestions", deps.Bets.Suggestions)

		r.Route("/bets", func(r chi.Router) {
			r.Get("/", deps.Bets.List)
			r.Post("/", deps.Bets.AddManual)
			r.Post("/place", deps.Bets.Place)
			r.Get("/pending", deps.Bets.Pending)
			r.Get("/summary", deps.Bets.Summary)
			r.Post("/settle", deps.Bets.Settle)
			r.Post("/backfill-models", deps.Bets.Backfill)
			r.Get("/{id}", deps.Bets.Get)
		})

		r.Post("/refresh/full", deps.Admin.FullRefresh)
		r.Post("/refresh/quick", deps.Admin.QuickRefresh)
		r.Get("/automode", deps.Admin.GetAutoMode)
		r.Put("/automode", deps.Admin.SetAutoMode)
		r.Get("/validation-log", deps.Admin.ValidationLog)
	})

	return r
}
