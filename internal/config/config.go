// Package config defines the top-level configuration for the copy-trading
// bot and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by COPYBOT_* environment
// variables.
type Config struct {
	Feed     FeedConfig     `toml:"feed"`
	Copy     CopyConfig     `toml:"copy"`
	Strategy StrategyConfig `toml:"strategy"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Notify   NotifyConfig   `toml:"notify"`
	Server   ServerConfig   `toml:"server"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// FeedConfig holds market data endpoints and polling parameters.
type FeedConfig struct {
	ClobHost        string `toml:"clob_host"`
	DataHost        string `toml:"data_host"`
	GammaHost       string `toml:"gamma_host"`
	WsHost          string `toml:"ws_host"`
	PollIntervalSec int    `toml:"poll_interval_sec"`
}

// CopyConfig holds the tracked-trader copy rules.
type CopyConfig struct {
	Enabled      bool     `toml:"enabled"`
	Wallets      []string `toml:"wallets"`
	Multiplier   float64  `toml:"multiplier"`     // fraction of whale notional copied
	MinPrice     float64  `toml:"min_price"`      // entry band lower bound
	MaxPrice     float64  `toml:"max_price"`      // entry band upper bound
	MinWhaleSize float64  `toml:"min_whale_size"` // minimum whale notional, USDC
	MinOrderUSDC float64  `toml:"min_order_usdc"`
	MaxOrderUSDC float64  `toml:"max_order_usdc"`
	LiveOnly     bool     `toml:"live_only"`

	DCAEnabled    bool    `toml:"dca_enabled"`
	DCATriggerPct float64 `toml:"dca_trigger_pct"` // negative fraction from entry, e.g. -0.05
	DCASizeRatio  float64 `toml:"dca_size_ratio"`  // add size as a fraction of the first tranche
}

// StrategyConfig holds the strategy and accounting parameters.
type StrategyConfig struct {
	Bankroll                     float64 `toml:"bankroll"`
	MaxMarketExposurePct         float64 `toml:"max_market_exposure_pct"`
	VolatilityAbsorptionPriceMin float64 `toml:"volatility_absorption_price_min"`
	VolatilityAbsorptionPriceMax float64 `toml:"volatility_absorption_price_max"`
	TailExposurePct              float64 `toml:"tail_exposure_pct"`
	TailPriceThreshold           float64 `toml:"tail_price_threshold"`
	TakeProfitPct                float64 `toml:"take_profit_pct"`
	MinHoldTimeMs                int64   `toml:"min_hold_time_ms"`
	SlippageBps                  float64 `toml:"slippage_bps"`
	LatencyMinMs                 int64   `toml:"latency_min_ms"` // simulated fill latency bounds
	LatencyMaxMs                 int64   `toml:"latency_max_ms"`
	SelectorPolicy               string  `toml:"selector_policy"` // "consensus_only" or "permissive"
	StopLossPct                  float64 `toml:"stop_loss_pct"`   // negative fraction, e.g. -0.12
	TrailTriggerPct              float64 `toml:"trail_trigger_pct"`
	TrailPct                     float64 `toml:"trail_pct"`
	HardCapPrice                 float64 `toml:"hard_cap_price"`
	MinConfidence                float64 `toml:"min_confidence"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"` // off, paper mode books in memory
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for trade archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	ArchiveAfterH  int    `toml:"archive_after_hours"`
}

// NotifyConfig holds notification channel credentials and event filters.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// ServerConfig holds the dashboard API settings.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// Defaults returns the built-in configuration defaults. Strategy numbers
// follow the paper-trading posture: small bankroll, tight exposure cap.
func Defaults() Config {
	return Config{
		Feed: FeedConfig{
			ClobHost:        "https://clob.polymarket.com",
			DataHost:        "https://data-api.polymarket.com",
			GammaHost:       "https://gamma-api.polymarket.com",
			WsHost:          "wss://ws-subscriptions-clob.polymarket.com",
			PollIntervalSec: 10,
		},
		Copy: CopyConfig{
			Enabled:      true,
			Multiplier:   0.05,
			MinPrice:     0.65,
			MaxPrice:     0.85,
			MinWhaleSize: 50,
			MinOrderUSDC: 5,
			MaxOrderUSDC: 250,
			LiveOnly:     true,

			DCAEnabled:    true,
			DCATriggerPct: -0.05,
			DCASizeRatio:  0.75,
		},
		Strategy: StrategyConfig{
			Bankroll:                     1000,
			MaxMarketExposurePct:         0.10,
			VolatilityAbsorptionPriceMin: 0.45,
			VolatilityAbsorptionPriceMax: 0.55,
			TailExposurePct:              0.05,
			TailPriceThreshold:           0.10,
			TakeProfitPct:                0.20,
			MinHoldTimeMs:                60_000,
			SlippageBps:                  30,
			LatencyMinMs:                 50,
			LatencyMaxMs:                 250,
			SelectorPolicy:               "consensus_only",
			StopLossPct:                  -0.12,
			TrailTriggerPct:              0.12,
			TrailPct:                     0.04,
			HardCapPrice:                 0.95,
			MinConfidence:                0.3,
		},
		Postgres: PostgresConfig{
			Enabled:       true,
			Host:          "localhost",
			Port:          5432,
			Database:      "copybot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "copybot-data",
			ForcePathStyle: true,
			ArchiveAfterH:  72,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"paper": true,
	"track": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validSelectorPolicies = map[string]bool{
	"consensus_only": true,
	"permissive":     true,
}

// Validate checks cross-field consistency and returns a single error listing
// every violation found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: paper, track)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	s := c.Strategy
	if s.Bankroll <= 0 {
		errs = append(errs, "strategy: bankroll must be positive")
	}
	if s.MaxMarketExposurePct <= 0 || s.MaxMarketExposurePct > 1 {
		errs = append(errs, "strategy: max_market_exposure_pct must be in (0, 1]")
	}
	if s.VolatilityAbsorptionPriceMin >= s.VolatilityAbsorptionPriceMax {
		errs = append(errs, "strategy: volatility_absorption_price_min must be below the max")
	}
	if s.VolatilityAbsorptionPriceMin <= 0 || s.VolatilityAbsorptionPriceMax >= 1 {
		errs = append(errs, "strategy: volatility absorption zone must lie inside (0, 1)")
	}
	if s.TailExposurePct < 0 || s.TailExposurePct > 1 {
		errs = append(errs, "strategy: tail_exposure_pct must be in [0, 1]")
	}
	if s.TailPriceThreshold <= 0 || s.TailPriceThreshold >= 1 {
		errs = append(errs, "strategy: tail_price_threshold must be inside (0, 1)")
	}
	if s.TakeProfitPct <= 0 {
		errs = append(errs, "strategy: take_profit_pct must be positive")
	}
	if s.SlippageBps < 0 {
		errs = append(errs, "strategy: slippage_bps must not be negative")
	}
	if s.LatencyMinMs < 0 || s.LatencyMaxMs < s.LatencyMinMs {
		errs = append(errs, "strategy: latency bounds must satisfy 0 <= latency_min_ms <= latency_max_ms")
	}
	if !validSelectorPolicies[strings.ToLower(s.SelectorPolicy)] {
		errs = append(errs, fmt.Sprintf("strategy: unknown selector_policy %q (valid: consensus_only, permissive)", s.SelectorPolicy))
	}
	if s.StopLossPct >= 0 {
		errs = append(errs, "strategy: stop_loss_pct must be negative")
	}
	if s.HardCapPrice <= 0 || s.HardCapPrice >= 1 {
		errs = append(errs, "strategy: hard_cap_price must be inside (0, 1)")
	}

	cp := c.Copy
	if cp.Enabled {
		if cp.Multiplier <= 0 || cp.Multiplier > 1 {
			errs = append(errs, "copy: multiplier must be in (0, 1]")
		}
		if cp.MinPrice >= cp.MaxPrice {
			errs = append(errs, "copy: min_price must be below max_price")
		}
		if cp.MinPrice <= 0 || cp.MaxPrice >= 1 {
			errs = append(errs, "copy: entry band must lie inside (0, 1)")
		}
		if len(cp.Wallets) == 0 {
			errs = append(errs, "copy: at least one tracked wallet is required when copy is enabled")
		}
		if cp.DCAEnabled {
			if cp.DCATriggerPct >= 0 {
				errs = append(errs, "copy: dca_trigger_pct must be negative")
			}
			if cp.DCASizeRatio <= 0 || cp.DCASizeRatio > 1 {
				errs = append(errs, "copy: dca_size_ratio must be in (0, 1]")
			}
		}
	}

	if c.Feed.PollIntervalSec <= 0 {
		errs = append(errs, "feed: poll_interval_sec must be positive")
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: invalid port %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by "***" so the active configuration can be logged safely.
func RedactedConfig(cfg *Config) Config {
	out := *cfg
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)
	return out
}

func redact(s *string) {
	if *s != "" {
		*s = "***"
	}
}
