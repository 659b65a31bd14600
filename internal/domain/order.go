package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide parses "buy" or "sell" (any case).
func ParseSide(s string) (Side, bool) {
	switch {
	case s == "buy" || s == "BUY" || s == "Buy":
		return SideBuy, true
	case s == "sell" || s == "SELL" || s == "Sell":
		return SideSell, true
	}
	return "", false
}

// AmountKind tags how an order amount is denominated.
type AmountKind int

const (
	// AmountValue means the amount is a quote-currency notional value.
	AmountValue AmountKind = iota
	// AmountBase means the amount is a raw base-asset quantity.
	AmountBase
)

// OrderAmount is a tagged amount. The home venue accepts either a raw base
// quantity or a quote-currency value; the tag makes the denomination explicit
// instead of leaving it to caller convention.
type OrderAmount struct {
	Kind   AmountKind
	Amount decimal.Decimal
}

// QuoteValue returns an amount denominated in quote currency.
func QuoteValue(v decimal.Decimal) OrderAmount {
	return OrderAmount{Kind: AmountValue, Amount: v}
}

// BaseAmount returns an amount denominated in the base asset.
func BaseAmount(v decimal.Decimal) OrderAmount {
	return OrderAmount{Kind: AmountBase, Amount: v}
}

// IsValue reports whether the amount is a quote-currency notional.
func (a OrderAmount) IsValue() bool { return a.Kind == AmountValue }

// Order is a limit order to be placed on the home venue.
type Order struct {
	Market MarketPair
	Side   Side
	Price  decimal.Decimal
	Amount OrderAmount
}

// PlacedOrder is the venue's view of an order that was accepted.
type PlacedOrder struct {
	ID        string
	Price     decimal.Decimal
	Amount    decimal.Decimal
	Status    string
	CreatedAt time.Time
}

// OpenOrder is one entry of the venue's open-order listing.
type OpenOrder struct {
	ID     string
	Market string
	Side   Side
}

// WalletBalance is the available balance of one asset. Balances are fetched
// fresh every trading cycle and never cached across cycles.
type WalletBalance struct {
	Asset     string
	Available decimal.Decimal
}
