// Package pricesource resolves reference prices: it routes each market to
// its external venue and reads home-venue prices from the live snapshot,
// both filtered by a minimum-notional threshold.
package pricesource

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
	"github.com/cpleonardo/simple-market-maker/internal/feed"
)

// Quoter is the uniform best-ask/best-bid query every external venue adapter
// exposes.
type Quoter interface {
	BestAsk(ctx context.Context, market domain.MarketPair) (decimal.Decimal, error)
	BestBid(ctx context.Context, market domain.MarketPair) (decimal.Decimal, error)
}

// Resolver maps markets to external venues and answers price queries against
// both sides of the arbitrage.
type Resolver struct {
	routes          map[string]Quoter
	homeMinNotional decimal.Decimal
}

// NewResolver creates a Resolver with the given routing table, keyed by
// canonical market string. homeMinNotional filters thin home-book levels.
func NewResolver(routes map[string]Quoter, homeMinNotional decimal.Decimal) *Resolver {
	return &Resolver{routes: routes, homeMinNotional: homeMinNotional}
}

// Route returns the external venue for a market, or ErrUnroutableMarket.
// Resolving an unroutable market is a configuration error: the supervisor
// fails fast instead of retrying.
func (r *Resolver) Route(market domain.MarketPair) (Quoter, error) {
	q, ok := r.routes[market.String()]
	if !ok {
		return nil, fmt.Errorf("pricesource: %s: %w", market, domain.ErrUnroutableMarket)
	}
	return q, nil
}

// ExternalPrice returns the external venue's reference price for one side of
// a market: the ask when pricing a sell, the bid when pricing a buy.
func (r *Resolver) ExternalPrice(ctx context.Context, market domain.MarketPair, side domain.Side) (decimal.Decimal, error) {
	q, err := r.Route(market)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if side == domain.SideSell {
		return q.BestAsk(ctx, market)
	}
	return q.BestBid(ctx, market)
}

// HomePrice returns the home venue's reference price for one side, read from
// the live snapshot: the ask side for a sell, the bid side for a buy. Levels
// below the minimum notional are skipped; when none clears the threshold the
// query fails with ErrNoPrice and the caller backs off.
func (r *Resolver) HomePrice(book *feed.Book, side domain.Side) (decimal.Decimal, error) {
	return r.homePrice(book, side, r.homeMinNotional)
}

// HomeClampReference returns the home best price for the non-greedy clamp,
// with no thin-level filtering: the clamp must not cross even a tiny order.
// side is the order's own side, so a buy clamps against the ask side and a
// sell against the bid side.
func (r *Resolver) HomeClampReference(book *feed.Book, side domain.Side) (decimal.Decimal, error) {
	clampSide := domain.SideSell
	if side == domain.SideSell {
		clampSide = domain.SideBuy
	}
	return r.homePrice(book, clampSide, decimal.Decimal{})
}

func (r *Resolver) homePrice(book *feed.Book, side domain.Side, minNotional decimal.Decimal) (decimal.Decimal, error) {
	snap := book.Snapshot()
	levels := snap.Bids
	if side == domain.SideSell {
		levels = snap.Asks
	}
	price, ok := domain.FirstLevelAbove(levels, minNotional)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("pricesource: %s home %s: %w", book.Market(), side, domain.ErrNoPrice)
	}
	return price, nil
}
