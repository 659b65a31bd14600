package tauros

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

// Base URLs for the production and staging deployments of the venue.
const (
	ProdBaseURL    = "https://api.tauros.io"
	StagingBaseURL = "https://api.staging.tauros.io"
	ProdWsURL      = "wss://ws.tauros.io"
	StagingWsURL   = "wss://ws.staging.tauros.io"
)

// Msg is the venue's error message field, which comes back either as a plain
// string or as a list of strings depending on the endpoint.
type Msg string

// UnmarshalJSON accepts both `"msg":"..."` and `"msg":["...", ...]`, keeping
// the first entry of a list.
func (m *Msg) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = Msg(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if len(list) > 0 {
		*m = Msg(list[0])
	}
	return nil
}

// envelope is the common response wrapper of the private API.
type envelope struct {
	Success bool            `json:"success"`
	Msg     Msg             `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// orderRequest is the wire form of a place-order call.
type orderRequest struct {
	Market        string `json:"market"`
	Amount        string `json:"amount"`
	IsAmountValue bool   `json:"is_amount_value"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         string `json:"price"`
}

// placedOrderData is the data section of a successful place-order response.
type placedOrderData struct {
	ID        json.Number     `json:"id"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// openOrderData is one entry of the open-orders listing.
type openOrderData struct {
	OrderID json.Number `json:"order_id"`
	Market  string      `json:"market"`
	Side    string      `json:"side"`
}

// balanceData is the data section of a wallet balance response.
type balanceData struct {
	Balances struct {
		Available decimal.Decimal `json:"available"`
	} `json:"balances"`
}

// bookLevel is one order-book level as delivered by both the public REST
// endpoint and the orderbook channel of the stream.
type bookLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
	Value  decimal.Decimal `json:"value"`
}

// bookPayload is the ask/bid body shared by REST and stream messages.
type bookPayload struct {
	Asks []bookLevel `json:"asks"`
	Bids []bookLevel `json:"bids"`
}

// toLevels converts wire levels into domain levels, deriving the notional
// when the venue omits it.
func toLevels(in []bookLevel) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(in))
	for _, l := range in {
		out = append(out, domain.PriceLevel{Price: l.Price, Amount: l.Amount, Value: l.Value})
	}
	return domain.NormalizeLevels(out, domain.BookDepth)
}

// rejectKind maps the venue's human-readable rejection vocabulary onto
// structured kinds. The exact strings are upstream API behavior; they are
// isolated here so the trading loop never matches on text.
func rejectKind(msg string) domain.RejectKind {
	switch {
	case msg == "Provided nonce it is not valid.":
		return domain.KindInvalidNonce
	case strings.Contains(msg, "The minimum order"):
		return domain.KindMinOrderSize
	case strings.Contains(msg, "has not enough"):
		return domain.KindInsufficientFunds
	case strings.Contains(msg, "'amount' field must be greater"):
		return domain.KindAmountTooSmall
	default:
		return domain.KindOther
	}
}
