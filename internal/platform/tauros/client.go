// Package tauros implements REST and WebSocket clients for the Tauros
// exchange, the bot's home trading venue.
package tauros

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/crypto"
	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

// Client is the authenticated REST client for the private trading API.
type Client struct {
	baseURL    string
	auth       *crypto.HMACAuth
	httpClient *http.Client
}

// NewClient creates a private API client. prod selects the production base
// URL; baseURL, when non-empty, overrides both.
func NewClient(key, secret string, prod bool, baseURL string) *Client {
	if baseURL == "" {
		baseURL = StagingBaseURL
		if prod {
			baseURL = ProdBaseURL
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    &crypto.HMACAuth{Key: key, Secret: secret},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PlaceOrder submits a limit order. Rejections come back as *domain.OrderError
// carrying a structured kind.
func (c *Client) PlaceOrder(ctx context.Context, order domain.Order) (domain.PlacedOrder, error) {
	req := orderRequest{
		Market:        order.Market.String(),
		Amount:        order.Amount.Amount.String(),
		IsAmountValue: order.Amount.IsValue(),
		Side:          string(order.Side),
		Type:          "LIMIT",
		Price:         order.Price.String(),
	}

	env, err := c.doSigned(ctx, http.MethodPost, "/api/v1/trading/placeorder/", req, nil)
	if err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("tauros: place order: %w", err)
	}
	if !env.Success {
		return domain.PlacedOrder{}, &domain.OrderError{Kind: rejectKind(string(env.Msg)), Msg: string(env.Msg)}
	}

	var data placedOrderData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("tauros: decode placed order: %w", err)
	}
	return domain.PlacedOrder{
		ID:        data.ID.String(),
		Price:     data.Price,
		Amount:    data.Amount,
		Status:    data.Status,
		CreatedAt: data.CreatedAt,
	}, nil
}

// CloseOrder cancels an open order by ID.
func (c *Client) CloseOrder(ctx context.Context, id string) error {
	body := map[string]string{"id": id}

	env, err := c.doSigned(ctx, http.MethodPost, "/api/v1/trading/closeorder/", body, nil)
	if err != nil {
		return fmt.Errorf("tauros: close order %s: %w", id, err)
	}
	if !env.Success {
		return &domain.OrderError{Kind: rejectKind(string(env.Msg)), Msg: string(env.Msg)}
	}
	return nil
}

// GetOpenOrders lists currently open orders, optionally filtered by market.
func (c *Client) GetOpenOrders(ctx context.Context, market string) ([]domain.OpenOrder, error) {
	params := url.Values{}
	if market != "" {
		params.Set("market", market)
	}

	env, err := c.doSigned(ctx, http.MethodGet, "/api/v1/trading/myopenorders/", nil, params)
	if err != nil {
		return nil, fmt.Errorf("tauros: get open orders: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("tauros: get open orders: %s", env.Msg)
	}

	var raw []openOrderData
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		return nil, fmt.Errorf("tauros: decode open orders: %w", err)
	}
	orders := make([]domain.OpenOrder, 0, len(raw))
	for _, o := range raw {
		side, _ := domain.ParseSide(o.Side)
		orders = append(orders, domain.OpenOrder{ID: o.OrderID.String(), Market: o.Market, Side: side})
	}
	return orders, nil
}

// GetBalance returns the available balance for one asset. Balances are never
// cached; every call hits the venue.
func (c *Client) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("coin", strings.ToLower(asset))

	env, err := c.doSigned(ctx, http.MethodGet, "/api/v1/data/getbalance/", nil, params)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("tauros: get balance %s: %w", asset, err)
	}
	if !env.Success {
		return decimal.Decimal{}, fmt.Errorf("tauros: get balance %s: %s", asset, env.Msg)
	}

	var data balanceData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return decimal.Decimal{}, fmt.Errorf("tauros: decode balance: %w", err)
	}
	return data.Balances.Available, nil
}

// CloseAllOrders cancels every open order, best-effort: it lists open orders
// once and does not retry failed cancellations. It returns the number of
// orders successfully closed.
func (c *Client) CloseAllOrders(ctx context.Context) (int, error) {
	orders, err := c.GetOpenOrders(ctx, "")
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, o := range orders {
		if err := c.CloseOrder(ctx, o.ID); err == nil {
			closed++
		}
	}
	return closed, nil
}

// doSigned performs an authenticated request. The signature covers the
// millisecond nonce, the HTTP method, the path, and the compact JSON body
// (query parameters are not part of the signed message).
func (c *Client) doSigned(ctx context.Context, method, path string, body any, params url.Values) (*envelope, error) {
	if body == nil {
		body = map[string]string{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.auth.Headers(method, path, string(payload)) {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return &env, nil
}
