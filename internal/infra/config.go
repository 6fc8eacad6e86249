package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"matchedge"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"matchedge"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"matchedge"`

	// Server
	APIPort            int    `env:"API_PORT" envDefault:"3200"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Staking
	EVThreshold    float64 `env:"EV_THRESHOLD" envDefault:"0.05"`
	KellyFraction  float64 `env:"KELLY_FRACTION" envDefault:"0.25"`
	BankrollUnits  float64 `env:"BANKROLL_UNITS" envDefault:"100"`
	MinStakeUnits  float64 `env:"MIN_STAKE_UNITS" envDefault:"0.5"`
	MaxStakeUnits  float64 `env:"MAX_STAKE_UNITS" envDefault:"3"`
	CommissionRate float64 `env:"COMMISSION_RATE" envDefault:"0.05"`

	// Model
	RollingWindowMonths int `env:"ROLLING_WINDOW_MONTHS" envDefault:"12"`
	DefaultRank         int `env:"DEFAULT_RANK" envDefault:"1500"`
	DefaultElo          int `env:"DEFAULT_ELO" envDefault:"1200"`

	// Engine loops
	CaptureIntervalMinutes int  `env:"CAPTURE_INTERVAL_MINUTES" envDefault:"30"`
	HTTPTimeoutSeconds     int  `env:"HTTP_TIMEOUT_SECONDS" envDefault:"15"`
	AutoMode               bool `env:"AUTO_MODE" envDefault:"false"`

	// Exchange credentials
	ExchangeAppKey   string `env:"EXCHANGE_APP_KEY"`
	ExchangeUsername string `env:"EXCHANGE_USERNAME"`
	ExchangePassword string `env:"EXCHANGE_PASSWORD"`
	ExchangeBaseURL  string `env:"EXCHANGE_BASE_URL" envDefault:"https://api.betfair.com/exchange/betting/rest/v1.0"`
	ExchangeLoginURL string `env:"EXCHANGE_LOGIN_URL" envDefault:"https://identitysso.betfair.com/api/login"`

	// Optional integrations; empty disables.
	SharpOddsBaseURL string `env:"SHARP_ODDS_BASE_URL"`
	ResultsFeedURL   string `env:"RESULTS_FEED_URL"`
	MirrorBaseURL    string `env:"MIRROR_BASE_URL"`
	WebhookURL       string `env:"WEBHOOK_URL"`

	// Sharp-odds gating stays off unless deliberately enabled; captured
	// markets are annotated either way.
	SharpGateEnabled bool `env:"SHARP_GATE_ENABLED" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.EVThreshold < 0 || c.EVThreshold >= 1 {
		return fmt.Errorf("EV_THRESHOLD %.3f out of [0,1)", c.EVThreshold)
	}
	if c.KellyFraction <= 0 || c.KellyFraction > 1 {
		return fmt.Errorf("KELLY_FRACTION %.3f out of (0,1]", c.KellyFraction)
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("COMMISSION_RATE %.3f out of [0,1)", c.CommissionRate)
	}
	if c.MinStakeUnits > c.MaxStakeUnits {
		return fmt.Errorf("MIN_STAKE_UNITS %.1f exceeds MAX_STAKE_UNITS %.1f", c.MinStakeUnits, c.MaxStakeUnits)
	}
	if c.RollingWindowMonths < 1 {
		return fmt.Errorf("ROLLING_WINDOW_MONTHS must be at least 1")
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// CaptureInterval returns the capture/settlement cadence.
func (c *Config) CaptureInterval() time.Duration {
	return time.Duration(c.CaptureIntervalMinutes) * time.Minute
}

// HTTPTimeout returns the per-call timeout for external requests.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}
