// Package redis mirrors order-book snapshots into Redis so external
// dashboards can observe the bot's view of the market. The mirror is
// write-only from the bot's perspective and entirely optional.
package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

// snapshotTTL expires stale mirrors when the bot stops publishing.
const snapshotTTL = 5 * time.Minute

// ClientConfig holds connection parameters for the Redis client.
type ClientConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	TLSEnabled bool
}

// BookMirror publishes the latest snapshot and best bid/offer per market.
//
// Key schema:
//
//	book:{MARKET}:snapshot - JSON-encoded snapshot (asks, bids, ts)
//	book:{MARKET}:bbo      - hash with fields "bid", "ask", "ts"
type BookMirror struct {
	rdb *redis.Client
}

// New connects to Redis, pings it to verify connectivity, and returns a
// BookMirror.
func New(ctx context.Context, cfg ClientConfig) (*BookMirror, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &BookMirror{rdb: rdb}, nil
}

func snapshotKey(market string) string { return "book:" + market + ":snapshot" }
func bboKey(market string) string      { return "book:" + market + ":bbo" }

// wireLevel is the JSON form of one mirrored price level.
type wireLevel struct {
	Price  string `json:"price"`
	Amount string `json:"amount"`
	Value  string `json:"value"`
}

// wireSnapshot is the JSON form of a mirrored snapshot.
type wireSnapshot struct {
	Market string      `json:"market"`
	Asks   []wireLevel `json:"asks"`
	Bids   []wireLevel `json:"bids"`
	Ts     int64       `json:"ts"`
}

func toWire(levels []domain.PriceLevel) []wireLevel {
	out := make([]wireLevel, 0, len(levels))
	for _, l := range levels {
		out = append(out, wireLevel{
			Price:  l.Price.String(),
			Amount: l.Amount.String(),
			Value:  l.Value.String(),
		})
	}
	return out
}

// PublishSnapshot replaces the mirrored snapshot and BBO for the snapshot's
// market in one pipeline round trip.
func (m *BookMirror) PublishSnapshot(ctx context.Context, snap *domain.OrderBookSnapshot) error {
	market := snap.Market.String()

	payload, err := json.Marshal(wireSnapshot{
		Market: market,
		Asks:   toWire(snap.Asks),
		Bids:   toWire(snap.Bids),
		Ts:     snap.Timestamp.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("redis: encode snapshot %s: %w", market, err)
	}

	pipe := m.rdb.TxPipeline()
	pipe.Set(ctx, snapshotKey(market), payload, snapshotTTL)

	bbo := map[string]string{
		"ts": strconv.FormatInt(snap.Timestamp.UnixMilli(), 10),
	}
	if len(snap.Bids) > 0 {
		bbo["bid"] = snap.Bids[0].Price.String()
	}
	if len(snap.Asks) > 0 {
		bbo["ask"] = snap.Asks[0].Price.String()
	}
	pipe.HSet(ctx, bboKey(market), bbo)
	pipe.Expire(ctx, bboKey(market), snapshotTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: publish snapshot %s: %w", market, err)
	}
	return nil
}

// Close closes the Redis connection.
func (m *BookMirror) Close() error {
	return m.rdb.Close()
}
