package tauros

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

// PublicClient is the unauthenticated REST client for public market data. It
// serves as the fallback snapshot source while the stream warms up.
type PublicClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPublicClient creates a public API client. baseURL, when non-empty,
// overrides the environment-derived URL.
func NewPublicClient(prod bool, baseURL string) *PublicClient {
	if baseURL == "" {
		baseURL = StagingBaseURL
		if prod {
			baseURL = ProdBaseURL
		}
	}
	return &PublicClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetOrderBook fetches the current order book for a market, normalized to
// the fixed snapshot depth.
func (c *PublicClient) GetOrderBook(ctx context.Context, market domain.MarketPair) (*domain.OrderBookSnapshot, error) {
	path := fmt.Sprintf("/api/v2/trading/%s/orderbook/", market.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("tauros: create orderbook request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tauros: get orderbook %s: %w", market, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("tauros: read orderbook: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tauros: get orderbook %s: status %d", market, resp.StatusCode)
	}

	var book bookPayload
	if err := json.Unmarshal(raw, &book); err != nil {
		return nil, fmt.Errorf("tauros: decode orderbook: %w", err)
	}

	return &domain.OrderBookSnapshot{
		Market:    market,
		Asks:      toLevels(book.Asks),
		Bids:      toLevels(book.Bids),
		Timestamp: time.Now().UTC(),
	}, nil
}
