package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookDepth is the fixed maximum number of price levels kept per side of an
// order-book snapshot.
const BookDepth = 20

// PriceLevel is a single price level of an order book. Value is the notional
// (price × amount) in quote currency.
type PriceLevel struct {
	Price  decimal.Decimal
	Amount decimal.Decimal
	Value  decimal.Decimal
}

// OrderBookSnapshot is an immutable fixed-depth view of one market's order
// book, best level first on both sides. Snapshots are published wholesale by
// the feed; readers must never mutate one.
type OrderBookSnapshot struct {
	Market    MarketPair
	Asks      []PriceLevel
	Bids      []PriceLevel
	Timestamp time.Time
}

// NormalizeLevels returns at most depth levels, cut at the first zero-price
// level (the feed's "no more levels" sentinel). Missing notional values are
// derived as price × amount. Normalizing an already-normalized slice yields
// an identical result.
func NormalizeLevels(levels []PriceLevel, depth int) []PriceLevel {
	if depth > len(levels) {
		depth = len(levels)
	}
	out := make([]PriceLevel, 0, depth)
	for _, lvl := range levels[:depth] {
		if lvl.Price.IsZero() {
			break
		}
		if lvl.Value.IsZero() && !lvl.Amount.IsZero() {
			lvl.Value = lvl.Price.Mul(lvl.Amount)
		}
		out = append(out, lvl)
	}
	return out
}

// FirstLevelAbove walks levels best-to-worst and returns the price of the
// first level whose notional value clears minNotional. The second return is
// false when no level qualifies.
func FirstLevelAbove(levels []PriceLevel, minNotional decimal.Decimal) (decimal.Decimal, bool) {
	for _, lvl := range levels {
		if lvl.Price.IsZero() {
			break
		}
		if lvl.Value.GreaterThanOrEqual(minNotional) {
			return lvl.Price, true
		}
	}
	return decimal.Decimal{}, false
}
