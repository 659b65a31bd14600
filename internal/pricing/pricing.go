// Package pricing computes competitive limit prices and order sizes. It is
// pure computation over exact decimals; no I/O happens here.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Params holds the knobs of the pricing algorithm.
type Params struct {
	// SpreadPercent is the minimum margin against the external price,
	// expressed as a percentage (1.5 means 1.5%).
	SpreadPercent decimal.Decimal
	// Greedy competes against the home book by PriceDelta instead of only
	// enforcing the spread limit.
	Greedy bool
	// PriceDelta is the greedy outbid tick in quote units.
	PriceDelta decimal.Decimal
}

// sign returns the spread direction for a side: a sell price floors above
// the external bid, a buy price ceilings below the external ask.
func sign(side domain.Side) decimal.Decimal {
	if side == domain.SideSell {
		return one
	}
	return one.Neg()
}

// OrderPrice computes the limit price for one side.
//
// The spread limit is externalPrice × (1 ± spread/100): a ceiling for buys,
// a floor for sells. When the home reference price is already beyond the
// limit, or greedy mode is off, the limit itself is quoted. Otherwise the
// home reference is outbid by PriceDelta, competing for priority on the home
// book.
func OrderPrice(side domain.Side, externalPrice, homeRef decimal.Decimal, p Params) decimal.Decimal {
	s := sign(side)

	factor := one.Add(s.Mul(p.SpreadPercent).Div(hundred))
	limit := externalPrice.Mul(factor)

	// Home reference beyond the limit: quoting it would give up the spread.
	beyond := s.Mul(homeRef.Sub(limit)).IsNegative()
	if beyond || !p.Greedy {
		return limit
	}
	return homeRef.Sub(s.Mul(p.PriceDelta))
}

// ClampToBook shifts price by tick so a non-greedy order does not instantly
// match the home book: a buy at or above the best ask moves to bestAsk−tick,
// a sell at or below the best bid moves to bestBid+tick. bound is the home
// best ask for buys and the home best bid for sells.
func ClampToBook(side domain.Side, price, bound, tick decimal.Decimal) decimal.Decimal {
	s := sign(side)
	if s.Mul(price.Sub(bound)).LessThanOrEqual(decimal.Decimal{}) {
		return bound.Add(s.Mul(tick))
	}
	return price
}

// OrderValue computes the quote-currency order amount. The balance is the
// available quote balance for buys and the available base balance for sells;
// maxOrderValue caps the notional in both cases.
func OrderValue(side domain.Side, balance, price, maxOrderValue decimal.Decimal) decimal.Decimal {
	value := balance
	if side == domain.SideSell {
		value = balance.Mul(price)
	}
	if value.GreaterThan(maxOrderValue) {
		return maxOrderValue
	}
	return value
}

// RealSpreadPercent reports the achieved margin of a placed order against
// the external reference, as an absolute percentage rounded to two decimals.
func RealSpreadPercent(externalPrice, orderPrice decimal.Decimal) decimal.Decimal {
	if externalPrice.IsZero() {
		return decimal.Decimal{}
	}
	return externalPrice.Sub(orderPrice).Div(externalPrice).Mul(hundred).Round(2).Abs()
}
