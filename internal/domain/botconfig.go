package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Default bot parameters applied when a config document omits a field.
// DefaultSpreadPercent may be overridden at startup from the engine config.
var (
	DefaultRefreshInterval = 3 * time.Minute
	DefaultMaxOrderValue   = decimal.NewFromInt(20_000)
	DefaultSpreadPercent   = decimal.RequireFromString("1.5")
)

// BotConfig is one bot definition: a market, a side, and its pricing knobs.
// Configs are re-fetched from their source on every trading cycle, so edits
// take effect without restarting the process.
type BotConfig struct {
	Market          MarketPair
	Side            Side
	SpreadPercent   decimal.Decimal
	RefreshInterval time.Duration
	IsActive        bool
	Greedy          bool
	MaxOrderValue   decimal.Decimal
}

// botConfigJSON is the wire form of a bot config document. Field names match
// the legacy robots.json / remote-store schema: spread is a percentage,
// refresh_rate is in minutes, order_value is a quote-currency notional.
type botConfigJSON struct {
	Market     string           `json:"market"`
	Side       string           `json:"side"`
	Spread     *decimal.Decimal `json:"spread"`
	Refresh    *float64         `json:"refresh_rate"`
	IsActive   bool             `json:"is_active"`
	GreedyMood *bool            `json:"greedy_mood"`
	OrderValue *decimal.Decimal `json:"order_value"`
}

// UnmarshalJSON decodes the wire form, applying defaults: greedy on,
// refresh interval DefaultRefreshInterval, order value DefaultMaxOrderValue.
func (c *BotConfig) UnmarshalJSON(data []byte) error {
	var raw botConfigJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	market, err := ParseMarketPair(raw.Market)
	if err != nil {
		return err
	}
	side, ok := ParseSide(raw.Side)
	if !ok {
		return fmt.Errorf("domain: invalid bot side %q", raw.Side)
	}

	c.Market = market
	c.Side = side
	c.IsActive = raw.IsActive

	c.SpreadPercent = DefaultSpreadPercent
	if raw.Spread != nil {
		c.SpreadPercent = *raw.Spread
	}

	c.RefreshInterval = DefaultRefreshInterval
	if raw.Refresh != nil && *raw.Refresh > 0 {
		c.RefreshInterval = time.Duration(*raw.Refresh * float64(time.Minute))
	}

	c.Greedy = true
	if raw.GreedyMood != nil {
		c.Greedy = *raw.GreedyMood
	}

	c.MaxOrderValue = DefaultMaxOrderValue
	if raw.OrderValue != nil && raw.OrderValue.IsPositive() {
		c.MaxOrderValue = *raw.OrderValue
	}

	return nil
}
