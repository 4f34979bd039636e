package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies COPYBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known COPYBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Feed ──
	setStr(&cfg.Feed.ClobHost, "COPYBOT_FEED_CLOB_HOST")
	setStr(&cfg.Feed.DataHost, "COPYBOT_FEED_DATA_HOST")
	setStr(&cfg.Feed.GammaHost, "COPYBOT_FEED_GAMMA_HOST")
	setStr(&cfg.Feed.WsHost, "COPYBOT_FEED_WS_HOST")
	setInt(&cfg.Feed.PollIntervalSec, "COPYBOT_FEED_POLL_INTERVAL_SEC")

	// ── Copy ──
	setBool(&cfg.Copy.Enabled, "COPYBOT_COPY_ENABLED")
	setStrSlice(&cfg.Copy.Wallets, "COPYBOT_COPY_WALLETS")
	setFloat64(&cfg.Copy.Multiplier, "COPYBOT_COPY_MULTIPLIER")
	setFloat64(&cfg.Copy.MinPrice, "COPYBOT_COPY_MIN_PRICE")
	setFloat64(&cfg.Copy.MaxPrice, "COPYBOT_COPY_MAX_PRICE")
	setFloat64(&cfg.Copy.MinWhaleSize, "COPYBOT_COPY_MIN_WHALE_SIZE")
	setFloat64(&cfg.Copy.MinOrderUSDC, "COPYBOT_COPY_MIN_ORDER_USDC")
	setFloat64(&cfg.Copy.MaxOrderUSDC, "COPYBOT_COPY_MAX_ORDER_USDC")
	setBool(&cfg.Copy.LiveOnly, "COPYBOT_COPY_LIVE_ONLY")
	setBool(&cfg.Copy.DCAEnabled, "COPYBOT_COPY_DCA_ENABLED")
	setFloat64(&cfg.Copy.DCATriggerPct, "COPYBOT_COPY_DCA_TRIGGER_PCT")
	setFloat64(&cfg.Copy.DCASizeRatio, "COPYBOT_COPY_DCA_SIZE_RATIO")

	// ── Strategy ──
	setFloat64(&cfg.Strategy.Bankroll, "COPYBOT_STRATEGY_BANKROLL")
	setFloat64(&cfg.Strategy.MaxMarketExposurePct, "COPYBOT_STRATEGY_MAX_MARKET_EXPOSURE_PCT")
	setFloat64(&cfg.Strategy.VolatilityAbsorptionPriceMin, "COPYBOT_STRATEGY_VOL_ABSORPTION_PRICE_MIN")
	setFloat64(&cfg.Strategy.VolatilityAbsorptionPriceMax, "COPYBOT_STRATEGY_VOL_ABSORPTION_PRICE_MAX")
	setFloat64(&cfg.Strategy.TailExposurePct, "COPYBOT_STRATEGY_TAIL_EXPOSURE_PCT")
	setFloat64(&cfg.Strategy.TailPriceThreshold, "COPYBOT_STRATEGY_TAIL_PRICE_THRESHOLD")
	setFloat64(&cfg.Strategy.TakeProfitPct, "COPYBOT_STRATEGY_TAKE_PROFIT_PCT")
	setInt64(&cfg.Strategy.MinHoldTimeMs, "COPYBOT_STRATEGY_MIN_HOLD_TIME_MS")
	setFloat64(&cfg.Strategy.SlippageBps, "COPYBOT_STRATEGY_SLIPPAGE_BPS")
	setInt64(&cfg.Strategy.LatencyMinMs, "COPYBOT_STRATEGY_LATENCY_MIN_MS")
	setInt64(&cfg.Strategy.LatencyMaxMs, "COPYBOT_STRATEGY_LATENCY_MAX_MS")
	setStr(&cfg.Strategy.SelectorPolicy, "COPYBOT_STRATEGY_SELECTOR_POLICY")
	setFloat64(&cfg.Strategy.StopLossPct, "COPYBOT_STRATEGY_STOP_LOSS_PCT")
	setFloat64(&cfg.Strategy.TrailTriggerPct, "COPYBOT_STRATEGY_TRAIL_TRIGGER_PCT")
	setFloat64(&cfg.Strategy.TrailPct, "COPYBOT_STRATEGY_TRAIL_PCT")
	setFloat64(&cfg.Strategy.HardCapPrice, "COPYBOT_STRATEGY_HARD_CAP_PRICE")
	setFloat64(&cfg.Strategy.MinConfidence, "COPYBOT_STRATEGY_MIN_CONFIDENCE")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "COPYBOT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "COPYBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "COPYBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "COPYBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "COPYBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "COPYBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "COPYBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "COPYBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "COPYBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "COPYBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "COPYBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "COPYBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "COPYBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "COPYBOT_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "COPYBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "COPYBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "COPYBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "COPYBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "COPYBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "COPYBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "COPYBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "COPYBOT_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.ArchiveAfterH, "COPYBOT_S3_ARCHIVE_AFTER_HOURS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "COPYBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "COPYBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "COPYBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStrSlice(&cfg.Notify.Events, "COPYBOT_NOTIFY_EVENTS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "COPYBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "COPYBOT_SERVER_PORT")
	setStrSlice(&cfg.Server.CORSOrigins, "COPYBOT_SERVER_CORS_ORIGINS")

	// ── Top level ──
	setStr(&cfg.Mode, "COPYBOT_MODE")
	setStr(&cfg.LogLevel, "COPYBOT_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setStrSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				out = append(out, t)
			}
		}
		*dst = out
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
