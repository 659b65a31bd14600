// Command marketmaker is the entry point for the cross-exchange arbitrage
// bot. It loads configuration, validates it, wires the venue clients and
// workers, sets up signal handling, and runs the supervisor until
// interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/bot"
	redismirror "github.com/cpleonardo/simple-market-maker/internal/cache/redis"
	"github.com/cpleonardo/simple-market-maker/internal/config"
	"github.com/cpleonardo/simple-market-maker/internal/domain"
	"github.com/cpleonardo/simple-market-maker/internal/feed"
	"github.com/cpleonardo/simple-market-maker/internal/notify"
	"github.com/cpleonardo/simple-market-maker/internal/platform/bitso"
	"github.com/cpleonardo/simple-market-maker/internal/platform/okx"
	"github.com/cpleonardo/simple-market-maker/internal/platform/tauros"
	"github.com/cpleonardo/simple-market-maker/internal/pricesource"
	"github.com/cpleonardo/simple-market-maker/internal/store"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration. Missing credentials or an invalid bot source
	// are fatal; the process must not trade half-configured.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	env := "STAGING"
	if cfg.Tauros.Production() {
		env = "PRODUCTION"
	}
	logger.Info("market maker starting",
		slog.String("environment", env),
		slog.String("config", *configPath),
		slog.String("bots_source", cfg.Bots.Source),
	)

	// Documents that omit spread fall back to the engine-wide minimum.
	domain.DefaultSpreadPercent = decimal.NewFromFloat(cfg.Pricing.MinSpread)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot exited with error", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	logger.Info("market maker stopped")
}

// run wires all dependencies from the validated config and drives the
// supervisor until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	prod := cfg.Tauros.Production()

	// Home venue clients.
	trading := tauros.NewClient(cfg.Tauros.ApiKey, cfg.Tauros.ApiSecret, prod, cfg.Tauros.BaseURL)
	public := tauros.NewPublicClient(prod, cfg.Tauros.BaseURL)

	// External venues and price routing.
	externalMin, err := decimal.NewFromString(cfg.Pricing.ExternalMinNotional)
	if err != nil {
		return fmt.Errorf("parse external_min_notional: %w", err)
	}
	homeMin, err := decimal.NewFromString(cfg.Pricing.HomeMinNotional)
	if err != nil {
		return fmt.Errorf("parse home_min_notional: %w", err)
	}
	priceDelta, err := decimal.NewFromString(cfg.Pricing.PriceDelta)
	if err != nil {
		return fmt.Errorf("parse price_delta: %w", err)
	}
	clampTick, err := decimal.NewFromString(cfg.Pricing.ClampTick)
	if err != nil {
		return fmt.Errorf("parse clamp_tick: %w", err)
	}

	routes := pricesource.DefaultRoutes(
		bitso.NewClient(cfg.Bitso.BaseURL, externalMin),
		okx.NewClient(cfg.OKX.BaseURL),
	)
	resolver := pricesource.NewResolver(routes, homeMin)

	// Optional Redis order-book mirror.
	var mirror feed.Mirror
	if cfg.Redis.Enabled {
		m, err := redismirror.New(ctx, redismirror.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fmt.Errorf("redis mirror: %w", err)
		}
		defer m.Close()
		mirror = m
	}

	// Notification channels.
	var senders []notify.Sender
	if cfg.Notify.Enabled {
		if cfg.Notify.SMTPHost != "" {
			senders = append(senders, notify.NewSMTPSender(
				cfg.Notify.SMTPHost, cfg.Notify.SMTPPort,
				cfg.Notify.SenderEmail, cfg.Notify.SenderPassword, cfg.Notify.ReceiverEmail,
			))
		}
		if cfg.Notify.TelegramToken != "" {
			senders = append(senders, notify.NewTelegramSender(
				cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID,
			))
		}
	}
	notifier := notify.NewNotifier(senders, logger)

	// Bot config source.
	var source store.Source
	switch cfg.Bots.Source {
	case "file":
		source = store.NewFileSource(cfg.Bots.File)
	case "remote":
		source = store.NewRemoteSource(cfg.Bots.RemoteBaseURL, cfg.Bots.RemoteLimit)
	default:
		return fmt.Errorf("unknown bots source %q", cfg.Bots.Source)
	}

	newFeed := func(market domain.MarketPair) *feed.Feed {
		return feed.New(feed.NewBook(market), prod, cfg.Tauros.WsURL, public, mirror, logger)
	}

	params := bot.Params{
		PriceDelta:      priceDelta,
		Clamp:           cfg.Pricing.Clamp,
		ClampTick:       clampTick,
		RetryDelay:      cfg.Pricing.RetryDelay.Duration,
		NotFundsBackoff: cfg.Pricing.NotFundsBackoff.Duration,
	}

	sup := bot.NewSupervisor(
		source, trading, trading, resolver, notifier,
		newFeed, params, cfg.Pricing.WarmupDelay.Duration, logger,
	)
	return sup.Run(ctx)
}
