package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
	"github.com/cpleonardo/simple-market-maker/internal/platform/tauros"
)

// reconnectDelay is the pause before re-dialing a dropped stream.
const reconnectDelay = 2 * time.Second

// SnapshotSource primes the book before the stream delivers its first
// message, so the warm-up window is not starved of data.
type SnapshotSource interface {
	GetOrderBook(ctx context.Context, market domain.MarketPair) (*domain.OrderBookSnapshot, error)
}

// Mirror receives every published snapshot, e.g. to copy it into Redis for
// external dashboards. Mirror failures never affect the feed.
type Mirror interface {
	PublishSnapshot(ctx context.Context, snap *domain.OrderBookSnapshot) error
}

// Feed owns the streaming subscription for one market and keeps its Book
// current. Run reconnects indefinitely; a lost connection stalls the book at
// the last good snapshot rather than clearing it.
type Feed struct {
	book   *Book
	prod   bool
	wsURL  string
	rest   SnapshotSource
	mirror Mirror
	logger *slog.Logger
}

// New creates a feed for the given book. rest and mirror are optional.
func New(book *Book, prod bool, wsURL string, rest SnapshotSource, mirror Mirror, logger *slog.Logger) *Feed {
	return &Feed{
		book:   book,
		prod:   prod,
		wsURL:  wsURL,
		rest:   rest,
		mirror: mirror,
		logger: logger.With(
			slog.String("component", "orderbook_feed"),
			slog.String("market", book.Market().String()),
		),
	}
}

// Book returns the shared book handle workers read from.
func (f *Feed) Book() *Book { return f.book }

// Run primes the book from REST, then connects the stream and republishes
// every snapshot until ctx is cancelled. It reconnects with a short delay on
// any disconnect and never returns under normal operation.
func (f *Feed) Run(ctx context.Context) error {
	f.prime(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := f.runConnection(ctx); err != nil && ctx.Err() == nil {
			f.logger.Warn("stream disconnected, reconnecting",
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// prime fetches one REST snapshot so readers have data before the first
// stream message arrives. Failures are logged and tolerated.
func (f *Feed) prime(ctx context.Context) {
	if f.rest == nil {
		return
	}
	snap, err := f.rest.GetOrderBook(ctx, f.book.Market())
	if err != nil {
		f.logger.Warn("initial snapshot fetch failed",
			slog.String("error", err.Error()),
		)
		return
	}
	f.publish(ctx, snap)
}

func (f *Feed) runConnection(ctx context.Context) error {
	client := tauros.NewWSClient(f.book.Market(), f.prod, f.wsURL, func(snap *domain.OrderBookSnapshot) {
		f.publish(ctx, snap)
	})
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		return err
	}
	f.logger.Info("stream subscribed")

	readDone := make(chan error, 1)
	go func() { readDone <- client.ReadLoop() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-readDone:
		return err
	}
}

func (f *Feed) publish(ctx context.Context, snap *domain.OrderBookSnapshot) {
	f.book.Publish(snap)
	if f.mirror != nil {
		if err := f.mirror.PublishSnapshot(ctx, snap); err != nil {
			f.logger.Debug("snapshot mirror failed",
				slog.String("error", err.Error()),
			)
		}
	}
}
