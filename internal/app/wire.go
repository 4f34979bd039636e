package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/alanyoungcy/copytradebot/internal/blob/s3"
	"github.com/alanyoungcy/copytradebot/internal/cache/redis"
	"github.com/alanyoungcy/copytradebot/internal/config"
	"github.com/alanyoungcy/copytradebot/internal/domain"
	"github.com/alanyoungcy/copytradebot/internal/notify"
	"github.com/alanyoungcy/copytradebot/internal/platform/polymarket"
	"github.com/alanyoungcy/copytradebot/internal/store/memory"
	"github.com/alanyoungcy/copytradebot/internal/store/postgres"
)

// Dependencies bundles everything the operating modes need. It is built by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Markets   domain.MarketStore
	Positions domain.PositionStore
	Trades    domain.TradeStore
	States    domain.MarketStateStore

	EventBus   *redis.EventBus
	PriceCache domain.PriceCache

	Archiver domain.Archiver
	Notifier *notify.Notifier

	Clob  *polymarket.ClobClient
	Data  *polymarket.DataClient
	Gamma *polymarket.GammaClient
}

// isPaper reports whether the mode executes simulated fills. Track mode only
// observes.
func isPaper(mode string) bool {
	return strings.ToLower(mode) == "paper"
}

// Wire constructs the concrete dependency implementations from the
// configuration. Redis and S3 are optional: without an address or
// credentials the bot runs with publishing and archival disabled.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		States: memory.NewMarketStateStore(),
		Clob:   polymarket.NewClobClient(cfg.Feed.ClobHost),
		Data:   polymarket.NewDataClient(cfg.Feed.DataHost),
		Gamma:  polymarket.NewGammaClient(cfg.Feed.GammaHost),
	}

	// --- Stores ---
	// Paper mode books against Postgres when one is configured; without it
	// (and always in track mode) the book lives in memory and is lost on
	// restart.
	if isPaper(cfg.Mode) && cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Markets = postgres.NewMarketStore(pool)
		deps.Positions = postgres.NewPositionStore(pool)
		deps.Trades = postgres.NewTradeStore(pool)
	} else {
		if isPaper(cfg.Mode) {
			logger.Info("postgres disabled, paper book held in memory")
		}
		deps.Markets = memory.NewMarketStore()
		deps.Positions = memory.NewPositionStore()
		deps.Trades = memory.NewTradeStore()
	}

	// --- Redis ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.Dial(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.EventBus = redis.NewEventBus(redisClient)
		deps.PriceCache = redis.NewPriceCache(redisClient)
	} else {
		logger.Warn("redis address not set, event publishing disabled")
	}

	// --- S3 trade archival ---
	if isPaper(cfg.Mode) && cfg.S3.AccessKey != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client), deps.Trades, logger, true)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
