// Package okx implements a public REST client for the OKX exchange, used as
// an external price reference for USDC markets.
package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

// DefaultBaseURL is the public OKX API root.
const DefaultBaseURL = "https://www.okx.com"

// Client queries OKX public market data. Tickers already carry the venue's
// representative best ask/bid, so no notional filtering happens here.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an OKX client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Ticker is one entry of the market ticker endpoint.
type Ticker struct {
	InstID string          `json:"instId"`
	AskPx  decimal.Decimal `json:"askPx"`
	BidPx  decimal.Decimal `json:"bidPx"`
	Last   decimal.Decimal `json:"last"`
}

// Instrument is one entry of the instruments listing.
type Instrument struct {
	InstID   string `json:"instId"`
	InstType string `json:"instType"`
	BaseCcy  string `json:"baseCcy"`
	QuoteCcy string `json:"quoteCcy"`
	State    string `json:"state"`
}

// GetTicker returns the ticker for one instrument, e.g. "BTC-USDC".
func (c *Client) GetTicker(ctx context.Context, instID string) (Ticker, error) {
	params := url.Values{}
	params.Set("instId", strings.ToUpper(instID))

	var out []Ticker
	if err := c.get(ctx, "/api/v5/market/ticker", params, &out); err != nil {
		return Ticker{}, fmt.Errorf("okx: get ticker %s: %w", instID, err)
	}
	if len(out) == 0 {
		return Ticker{}, fmt.Errorf("okx: get ticker %s: %w", instID, domain.ErrNoPrice)
	}
	return out[0], nil
}

// GetTickers returns all tickers of an instrument type (default "SPOT").
func (c *Client) GetTickers(ctx context.Context, instType string) ([]Ticker, error) {
	if instType == "" {
		instType = "SPOT"
	}
	params := url.Values{}
	params.Set("instType", instType)

	var out []Ticker
	if err := c.get(ctx, "/api/v5/market/tickers", params, &out); err != nil {
		return nil, fmt.Errorf("okx: get tickers %s: %w", instType, err)
	}
	return out, nil
}

// GetInstruments lists instruments of a type (default "SPOT").
func (c *Client) GetInstruments(ctx context.Context, instType string) ([]Instrument, error) {
	if instType == "" {
		instType = "SPOT"
	}
	params := url.Values{}
	params.Set("instType", instType)

	var out []Instrument
	if err := c.get(ctx, "/api/v5/public/instruments", params, &out); err != nil {
		return nil, fmt.Errorf("okx: get instruments %s: %w", instType, err)
	}
	return out, nil
}

// BestAsk returns the ticker ask price for a market.
func (c *Client) BestAsk(ctx context.Context, market domain.MarketPair) (decimal.Decimal, error) {
	t, err := c.GetTicker(ctx, market.String())
	if err != nil {
		return decimal.Decimal{}, err
	}
	if t.AskPx.IsZero() {
		return decimal.Decimal{}, domain.ErrNoPrice
	}
	return t.AskPx, nil
}

// BestBid returns the ticker bid price for a market.
func (c *Client) BestBid(ctx context.Context, market domain.MarketPair) (decimal.Decimal, error) {
	t, err := c.GetTicker(ctx, market.String())
	if err != nil {
		return decimal.Decimal{}, err
	}
	if t.BidPx.IsZero() {
		return decimal.Decimal{}, domain.ErrNoPrice
	}
	return t.BidPx, nil
}

// get performs a GET request and decodes the standard OKX envelope
// `{"code":"0","msg":"","data":[...]}` into dst.
func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	var env struct {
		Code string          `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Code != "0" {
		return fmt.Errorf("api error %s: %s", env.Code, env.Msg)
	}
	return json.Unmarshal(env.Data, dst)
}
