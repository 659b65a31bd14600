package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
	"github.com/cpleonardo/simple-market-maker/internal/feed"
	"github.com/cpleonardo/simple-market-maker/internal/notify"
	"github.com/cpleonardo/simple-market-maker/internal/pricesource"
	"github.com/cpleonardo/simple-market-maker/internal/store"
)

// liquidateTimeout bounds the best-effort order cancellation on shutdown.
const liquidateTimeout = 15 * time.Second

// Liquidator cancels every open order on the home venue.
type Liquidator interface {
	CloseAllOrders(ctx context.Context) (int, error)
}

// FeedFactory builds the order-book feed for one market. Workers sharing a
// market share the feed's book.
type FeedFactory func(market domain.MarketPair) *feed.Feed

// Supervisor materializes bot configs into running workers: one worker per
// config, one order-book feed per distinct market, coordinated shutdown with
// a best-effort liquidation pass.
type Supervisor struct {
	source     store.Source
	client     TradingClient
	liquidator Liquidator
	resolver   *pricesource.Resolver
	notifier   *notify.Notifier
	newFeed    FeedFactory
	params     Params
	warmup     time.Duration
	logger     *slog.Logger
}

// NewSupervisor wires a Supervisor. warmup is the pause between starting the
// feeds and starting the workers, so the first cycle is not starved of
// order-book data.
func NewSupervisor(
	source store.Source,
	client TradingClient,
	liquidator Liquidator,
	resolver *pricesource.Resolver,
	notifier *notify.Notifier,
	newFeed FeedFactory,
	params Params,
	warmup time.Duration,
	logger *slog.Logger,
) *Supervisor {
	return &Supervisor{
		source:     source,
		client:     client,
		liquidator: liquidator,
		resolver:   resolver,
		notifier:   notifier,
		newFeed:    newFeed,
		params:     params,
		warmup:     warmup,
		logger:     logger.With(slog.String("component", "supervisor")),
	}
}

// Run loads the bot configs, starts feeds and workers, and blocks until ctx
// is cancelled or a worker fails fatally. Before returning it cancels all
// open orders once, best-effort.
func (s *Supervisor) Run(ctx context.Context) error {
	configs, err := s.source.List(ctx)
	if err != nil {
		return fmt.Errorf("supervisor: load bot configs: %w", err)
	}
	if len(configs) == 0 {
		return fmt.Errorf("supervisor: no bot configs defined")
	}

	// Fail fast on markets with no external price source.
	for _, cfg := range configs {
		if _, err := s.resolver.Route(cfg.Market); err != nil {
			return fmt.Errorf("supervisor: %w", err)
		}
	}

	// Start from a clean slate: close anything left open by a prior run.
	if closed, err := s.liquidator.CloseAllOrders(ctx); err != nil {
		s.logger.Warn("startup order cleanup failed", slog.String("error", err.Error()))
	} else if closed > 0 {
		s.logger.Info("closed stale orders from previous run", slog.Int("count", closed))
	}

	g, gctx := errgroup.WithContext(ctx)

	// One feed per distinct market, shared by its workers.
	books := make(map[string]*feed.Book)
	for _, cfg := range configs {
		key := cfg.Market.String()
		if _, ok := books[key]; ok {
			continue
		}
		f := s.newFeed(cfg.Market)
		books[key] = f.Book()
		g.Go(func() error {
			return f.Run(gctx)
		})
	}

	s.logger.Info("awaiting order-book stream warm-up",
		slog.Duration("warmup", s.warmup),
		slog.Int("feeds", len(books)),
		slog.Int("bots", len(configs)),
	)
	select {
	case <-gctx.Done():
		return s.shutdown(gctx.Err())
	case <-time.After(s.warmup):
	}

	for i, cfg := range configs {
		w := NewWorker(
			i, cfg.Side, s.source, s.client, s.resolver,
			books[cfg.Market.String()], s.notifier, s.params, s.logger,
		)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	return s.shutdown(g.Wait())
}

// shutdown runs the liquidation pass and returns the group error. The pass
// iterates currently-known open orders once; failed cancellations are logged
// and not retried.
func (s *Supervisor) shutdown(cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), liquidateTimeout)
	defer cancel()

	s.logger.Info("shutting down, cancelling open orders")
	closed, err := s.liquidator.CloseAllOrders(ctx)
	if err != nil {
		s.logger.Error("liquidation failed, orders may remain open",
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.Info("liquidation finished", slog.Int("closed", closed))
	}

	return cause
}
