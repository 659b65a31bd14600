// Package feed maintains live order-book snapshots for home-venue markets,
// sourced from the venue's streaming subscription.
package feed

import (
	"sync/atomic"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

// Book is the shared order-book handle for one market: a single writer (the
// feed) swaps in immutable snapshots, any number of workers read them. A
// reader always sees a fully-consistent snapshot, never a torn one.
type Book struct {
	market domain.MarketPair
	snap   atomic.Pointer[domain.OrderBookSnapshot]
}

// NewBook creates an empty book for a market.
func NewBook(market domain.MarketPair) *Book {
	return &Book{market: market}
}

// Market returns the market this book tracks.
func (b *Book) Market() domain.MarketPair { return b.market }

// Publish atomically replaces the current snapshot. Only the feed may call
// this; the snapshot must not be mutated afterwards.
func (b *Book) Publish(s *domain.OrderBookSnapshot) {
	b.snap.Store(s)
}

// Snapshot returns the latest published snapshot, or an empty snapshot when
// nothing has been received yet. The returned value is stale-but-valid: it
// may lag the venue by the feed's message interval.
func (b *Book) Snapshot() *domain.OrderBookSnapshot {
	if s := b.snap.Load(); s != nil {
		return s
	}
	return &domain.OrderBookSnapshot{Market: b.market}
}
