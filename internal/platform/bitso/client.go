// Package bitso implements a public REST client for the Bitso exchange,
// used as an external price reference for MXN markets.
package bitso

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

// DefaultBaseURL is the public Bitso API root.
const DefaultBaseURL = "https://api.bitso.com"

// Client queries the Bitso public order book. Its BestAsk/BestBid methods
// skip levels whose notional is below the configured threshold, so the
// returned price always comes from a level with meaningful liquidity.
type Client struct {
	baseURL     string
	minNotional decimal.Decimal
	httpClient  *http.Client
}

// NewClient creates a Bitso client. minNotional filters thin levels; levels
// with price×amount below it are ignored.
func NewClient(baseURL string, minNotional decimal.Decimal) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		minNotional: minNotional,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// bookLevel is one wire-format order-book level.
type bookLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// bookResponse is the order-book endpoint envelope.
type bookResponse struct {
	Success bool `json:"success"`
	Payload struct {
		Asks []bookLevel `json:"asks"`
		Bids []bookLevel `json:"bids"`
	} `json:"payload"`
}

// BestAsk returns the best ask price whose notional clears the threshold.
func (c *Client) BestAsk(ctx context.Context, market domain.MarketPair) (decimal.Decimal, error) {
	book, err := c.orderBook(ctx, market)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return firstAbove(book.Payload.Asks, c.minNotional)
}

// BestBid returns the best bid price whose notional clears the threshold.
func (c *Client) BestBid(ctx context.Context, market domain.MarketPair) (decimal.Decimal, error) {
	book, err := c.orderBook(ctx, market)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return firstAbove(book.Payload.Bids, c.minNotional)
}

// orderBook fetches the full book for a market. Bitso book codes are
// lowercase underscore-separated, e.g. "btc_mxn".
func (c *Client) orderBook(ctx context.Context, market domain.MarketPair) (*bookResponse, error) {
	book := strings.ToLower(market.Base + "_" + market.Quote)
	reqURL := fmt.Sprintf("%s/v3/order_book/?book=%s", c.baseURL, book)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bitso: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bitso: get order book %s: %w", book, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("bitso: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bitso: get order book %s: status %d", book, resp.StatusCode)
	}

	var out bookResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("bitso: decode order book: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("bitso: get order book %s: success=false", book)
	}
	return &out, nil
}

// firstAbove walks levels best-to-worst and returns the first price whose
// notional clears minNotional, or domain.ErrNoPrice.
func firstAbove(levels []bookLevel, minNotional decimal.Decimal) (decimal.Decimal, error) {
	for _, lvl := range levels {
		if lvl.Price.Mul(lvl.Amount).GreaterThanOrEqual(minNotional) {
			return lvl.Price, nil
		}
	}
	return decimal.Decimal{}, domain.ErrNoPrice
}
