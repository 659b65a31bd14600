package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPrice means no price level cleared the minimum-notional filter.
	ErrNoPrice = errors.New("no price available")
	// ErrUnroutableMarket means no external venue is configured for a market.
	ErrUnroutableMarket = errors.New("no price source for market")
	// ErrConfigNotFound means a bot config document does not exist.
	ErrConfigNotFound = errors.New("bot config not found")
	// ErrWSDisconnect means the order-book stream connection dropped.
	ErrWSDisconnect = errors.New("websocket disconnected")
)

// RejectKind classifies a venue rejection. The raw upstream message
// vocabulary is mapped to kinds inside the trading client; the rest of the
// engine branches on kinds only.
type RejectKind int

const (
	// KindOther is any rejection not covered by a more specific kind.
	KindOther RejectKind = iota
	// KindMinOrderSize means the order is below the venue minimum size.
	KindMinOrderSize
	// KindInsufficientFunds means the wallet cannot cover the order.
	KindInsufficientFunds
	// KindAmountTooSmall means the amount field failed venue validation.
	KindAmountTooSmall
	// KindInvalidNonce means the request's authentication nonce was stale.
	KindInvalidNonce
)

// String returns a short identifier for logging.
func (k RejectKind) String() string {
	switch k {
	case KindMinOrderSize:
		return "min_order_size"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindAmountTooSmall:
		return "amount_too_small"
	case KindInvalidNonce:
		return "invalid_nonce"
	default:
		return "other"
	}
}

// OrderError is a structured venue rejection.
type OrderError struct {
	Kind RejectKind
	Msg  string
}

// Error implements the error interface.
func (e *OrderError) Error() string {
	return fmt.Sprintf("order rejected (%s): %s", e.Kind, e.Msg)
}

// IsFundsRelated reports whether the rejection should be treated as an
// insufficient-funds condition (notify + long backoff).
func (e *OrderError) IsFundsRelated() bool {
	switch e.Kind {
	case KindMinOrderSize, KindInsufficientFunds, KindAmountTooSmall:
		return true
	}
	return false
}

// RejectKindOf extracts the RejectKind from err, or KindOther when err is not
// an OrderError.
func RejectKindOf(err error) RejectKind {
	var oe *OrderError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindOther
}
