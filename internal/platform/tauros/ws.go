package tauros

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 10 * time.Second

	// pingPeriod is the heartbeat interval.
	pingPeriod = 20 * time.Second
)

// BookHandler is called with a normalized snapshot for every orderbook
// message received on the stream.
type BookHandler func(snap *domain.OrderBookSnapshot)

// WSClient is a WebSocket client for the venue's streaming market-data feed.
// One client serves one market's orderbook channel.
type WSClient struct {
	wsURL  string
	market domain.MarketPair
	onBook BookHandler

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	done chan struct{}
}

// subscribeCommand is the message sent after connecting.
type subscribeCommand struct {
	Action  string `json:"action"`
	Market  string `json:"market"`
	Channel string `json:"channel"`
}

// wsMessage is an inbound stream message. Only orderbook payloads carry the
// ask/bid arrays; everything else is ignored.
type wsMessage struct {
	Channel string      `json:"channel"`
	Market  string      `json:"market"`
	Data    bookPayload `json:"data"`
}

// NewWSClient creates a stream client for one market. prod selects the
// production endpoint; wsURL, when non-empty, overrides it.
func NewWSClient(market domain.MarketPair, prod bool, wsURL string, onBook BookHandler) *WSClient {
	if wsURL == "" {
		wsURL = StagingWsURL
		if prod {
			wsURL = ProdWsURL
		}
	}
	return &WSClient{
		wsURL:  wsURL,
		market: market,
		onBook: onBook,
		done:   make(chan struct{}),
	}
}

// Connect dials the stream, subscribes to the market's orderbook channel,
// and starts the read and heartbeat loops.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("tauros/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("tauros/ws: connect: %w", err)
	}
	w.conn = conn

	conn.SetReadDeadline(time.Now().Add(pingPeriod + pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pingPeriod + pongWait))
		return nil
	})

	cmd := subscribeCommand{Action: "subscribe", Market: w.market.String(), Channel: "orderbook"}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(cmd); err != nil {
		conn.Close()
		w.conn = nil
		return fmt.Errorf("tauros/ws: subscribe: %w", err)
	}

	go w.pingLoop(conn)
	return nil
}

// ReadLoop blocks reading stream messages and dispatching orderbook
// snapshots until the connection drops or the client is closed. Malformed
// messages are dropped; the feed is best-effort.
func (w *WSClient) ReadLoop() error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("tauros/ws: not connected")
	}

	for {
		select {
		case <-w.done:
			return nil
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("tauros/ws: read: %w", err)
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Channel != "" && msg.Channel != "orderbook" {
			continue
		}
		if len(msg.Data.Asks) == 0 && len(msg.Data.Bids) == 0 {
			continue
		}

		if w.onBook != nil {
			w.onBook(&domain.OrderBookSnapshot{
				Market:    w.market,
				Asks:      toLevels(msg.Data.Asks),
				Bids:      toLevels(msg.Data.Bids),
				Timestamp: time.Now().UTC(),
			})
		}
	}
}

// pingLoop sends a heartbeat ping every pingPeriod until the client closes
// or a write fails.
func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close shuts down the connection and stops the loops. Safe to call more
// than once.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	if w.conn != nil {
		w.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		err := w.conn.Close()
		w.conn = nil
		return err
	}
	return nil
}
