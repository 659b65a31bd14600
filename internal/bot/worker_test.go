package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
	"github.com/cpleonardo/simple-market-maker/internal/feed"
	"github.com/cpleonardo/simple-market-maker/internal/notify"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var btcmxn = domain.MarketPair{Base: "BTC", Quote: "MXN"}

// fakeSource serves a single bot config at index 0. listOnly makes the
// config visible to List but not Get, simulating a document deleted right
// after startup.
type fakeSource struct {
	cfg      domain.BotConfig
	found    bool
	listOnly bool
}

func (s *fakeSource) Get(_ context.Context, index int) (domain.BotConfig, error) {
	if !s.found || s.listOnly || index != 0 {
		return domain.BotConfig{}, domain.ErrConfigNotFound
	}
	return s.cfg, nil
}

func (s *fakeSource) List(_ context.Context) ([]domain.BotConfig, error) {
	if !s.found {
		return nil, domain.ErrConfigNotFound
	}
	return []domain.BotConfig{s.cfg}, nil
}

// fakeClient records trading calls and scripts their outcomes.
type fakeClient struct {
	balances map[string]decimal.Decimal

	placeErr   error
	placed     []domain.Order
	closeErrs  []error
	closeCalls []string
}

func (c *fakeClient) PlaceOrder(_ context.Context, order domain.Order) (domain.PlacedOrder, error) {
	c.placed = append(c.placed, order)
	if c.placeErr != nil {
		return domain.PlacedOrder{}, c.placeErr
	}
	return domain.PlacedOrder{
		ID:     "order-1",
		Price:  order.Price,
		Amount: order.Amount.Amount,
		Status: "open",
	}, nil
}

func (c *fakeClient) CloseOrder(_ context.Context, id string) error {
	c.closeCalls = append(c.closeCalls, id)
	if len(c.closeErrs) == 0 {
		return nil
	}
	err := c.closeErrs[0]
	c.closeErrs = c.closeErrs[1:]
	return err
}

func (c *fakeClient) GetBalance(_ context.Context, asset string) (decimal.Decimal, error) {
	b, ok := c.balances[asset]
	if !ok {
		return decimal.Decimal{}, errors.New("unknown asset")
	}
	return b, nil
}

// fakePrices serves fixed reference prices.
type fakePrices struct {
	external decimal.Decimal
	home     decimal.Decimal
	clamp    decimal.Decimal
	extErr   error
	homeErr  error
}

func (p *fakePrices) ExternalPrice(context.Context, domain.MarketPair, domain.Side) (decimal.Decimal, error) {
	return p.external, p.extErr
}

func (p *fakePrices) HomePrice(*feed.Book, domain.Side) (decimal.Decimal, error) {
	return p.home, p.homeErr
}

func (p *fakePrices) HomeClampReference(*feed.Book, domain.Side) (decimal.Decimal, error) {
	return p.clamp, nil
}

type recordingSender struct {
	sent []string
}

func (s *recordingSender) Send(_ context.Context, subject, _ string) error {
	s.sent = append(s.sent, subject)
	return nil
}

func (s *recordingSender) Name() string { return "test" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func activeConfig() domain.BotConfig {
	return domain.BotConfig{
		Market:          btcmxn,
		Side:            domain.SideSell,
		SpreadPercent:   dec("1.5"),
		RefreshInterval: time.Millisecond,
		IsActive:        true,
		Greedy:          false,
		MaxOrderValue:   dec("20000"),
	}
}

func fastParams() Params {
	return Params{
		PriceDelta:      dec("1"),
		Clamp:           false,
		ClampTick:       dec("0.01"),
		RetryDelay:      time.Millisecond,
		NotFundsBackoff: time.Millisecond,
	}
}

func newTestWorker(t *testing.T, side domain.Side, cfg domain.BotConfig, client *fakeClient, prices *fakePrices, sender notify.Sender) *Worker {
	t.Helper()
	var senders []notify.Sender
	if sender != nil {
		senders = append(senders, sender)
	}
	return NewWorker(
		0,
		side,
		&fakeSource{cfg: cfg, found: true},
		client,
		prices,
		feed.NewBook(btcmxn),
		notify.NewNotifier(senders, discardLogger()),
		fastParams(),
		discardLogger(),
	)
}

func TestCycleHappyPath(t *testing.T) {
	client := &fakeClient{balances: map[string]decimal.Decimal{
		"BTC": dec("0.5"),
		"MXN": dec("100000"),
	}}
	prices := &fakePrices{external: dec("100000"), home: dec("103000")}

	w := newTestWorker(t, domain.SideSell, activeConfig(), client, prices, nil)
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if len(client.placed) != 1 {
		t.Fatalf("placed %d orders, want 1", len(client.placed))
	}
	order := client.placed[0]
	// Non-greedy sell: externalAsk × 1.015.
	if !order.Price.Equal(dec("101500")) {
		t.Fatalf("price = %s, want 101500", order.Price)
	}
	// 0.5 BTC at 101500 is 50750, capped at 20000 and sent as a value amount.
	if !order.Amount.IsValue() || !order.Amount.Amount.Equal(dec("20000")) {
		t.Fatalf("amount = %+v, want value 20000", order.Amount)
	}
	// The order is closed after the monitoring window.
	if len(client.closeCalls) != 1 || client.closeCalls[0] != "order-1" {
		t.Fatalf("close calls = %v, want [order-1]", client.closeCalls)
	}
}

func TestCycleBuyUsesQuoteWallet(t *testing.T) {
	client := &fakeClient{balances: map[string]decimal.Decimal{
		"MXN": dec("50000"),
	}}
	prices := &fakePrices{external: dec("100"), home: dec("99")}

	cfg := activeConfig()
	cfg.Side = domain.SideBuy
	cfg.SpreadPercent = dec("1")

	w := newTestWorker(t, domain.SideBuy, cfg, client, prices, nil)
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if len(client.placed) != 1 {
		t.Fatalf("placed %d orders, want 1", len(client.placed))
	}
	order := client.placed[0]
	// Ceiling 100 × 0.99 with the home bid already at 99.
	if !order.Price.Equal(dec("99")) {
		t.Fatalf("price = %s, want 99", order.Price)
	}
	// 50000 MXN available, capped at the 20000 max order value.
	if !order.Amount.Amount.Equal(dec("20000")) {
		t.Fatalf("amount = %s, want 20000", order.Amount.Amount)
	}
}

func TestCycleEmptyWalletNotifiesAndSkipsOrder(t *testing.T) {
	client := &fakeClient{balances: map[string]decimal.Decimal{
		"BTC": decimal.Decimal{},
		"MXN": dec("8000"),
	}}
	prices := &fakePrices{external: dec("100000"), home: dec("103000")}
	sender := &recordingSender{}

	w := newTestWorker(t, domain.SideSell, activeConfig(), client, prices, sender)
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if len(client.placed) != 0 {
		t.Fatalf("placed %d orders with empty wallet", len(client.placed))
	}
	if len(sender.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(sender.sent))
	}
	// The base wallet is known empty; the quote side was fetched fresh.
	if sender.sent[0] != "0 BTC, 8000 MXN" {
		t.Fatalf("subject = %q", sender.sent[0])
	}
}

func TestCycleFundsRejectionNotifies(t *testing.T) {
	client := &fakeClient{
		balances: map[string]decimal.Decimal{
			"BTC": dec("0.001"),
			"MXN": dec("12"),
		},
		placeErr: &domain.OrderError{Kind: domain.KindMinOrderSize, Msg: "The minimum order value is 10 MXN"},
	}
	prices := &fakePrices{external: dec("100000"), home: dec("103000")}
	sender := &recordingSender{}

	w := newTestWorker(t, domain.SideSell, activeConfig(), client, prices, sender)
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(sender.sent))
	}
	if len(client.closeCalls) != 0 {
		t.Fatal("close attempted for a rejected order")
	}
}

func TestCycleOtherRejectionRetriesWithoutNotifying(t *testing.T) {
	client := &fakeClient{
		balances: map[string]decimal.Decimal{"BTC": dec("0.5")},
		placeErr: &domain.OrderError{Kind: domain.KindOther, Msg: "Internal server error"},
	}
	prices := &fakePrices{external: dec("100000"), home: dec("103000")}
	sender := &recordingSender{}

	w := newTestWorker(t, domain.SideSell, activeConfig(), client, prices, sender)
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if len(sender.sent) != 0 {
		t.Fatalf("notifications = %d, want 0", len(sender.sent))
	}
}

func TestCycleInvalidNonceCloseRetriedOnce(t *testing.T) {
	client := &fakeClient{
		balances: map[string]decimal.Decimal{"BTC": dec("0.5")},
		closeErrs: []error{
			&domain.OrderError{Kind: domain.KindInvalidNonce, Msg: "Provided nonce it is not valid."},
			&domain.OrderError{Kind: domain.KindInvalidNonce, Msg: "Provided nonce it is not valid."},
		},
	}
	prices := &fakePrices{external: dec("100000"), home: dec("103000")}

	w := newTestWorker(t, domain.SideSell, activeConfig(), client, prices, nil)
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	// One retry exactly, even when the second attempt also fails.
	if len(client.closeCalls) != 2 {
		t.Fatalf("close calls = %d, want 2", len(client.closeCalls))
	}
}

func TestCycleOtherCloseFailureNotRetried(t *testing.T) {
	client := &fakeClient{
		balances:  map[string]decimal.Decimal{"BTC": dec("0.5")},
		closeErrs: []error{errors.New("timeout")},
	}
	prices := &fakePrices{external: dec("100000"), home: dec("103000")}

	w := newTestWorker(t, domain.SideSell, activeConfig(), client, prices, nil)
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(client.closeCalls) != 1 {
		t.Fatalf("close calls = %d, want 1", len(client.closeCalls))
	}
}

func TestCycleInactiveConfigPlacesNothing(t *testing.T) {
	client := &fakeClient{balances: map[string]decimal.Decimal{"BTC": dec("0.5")}}
	prices := &fakePrices{external: dec("100000"), home: dec("103000")}

	cfg := activeConfig()
	cfg.IsActive = false

	w := newTestWorker(t, domain.SideSell, cfg, client, prices, nil)
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(client.placed) != 0 {
		t.Fatal("inactive bot placed an order")
	}
}

func TestCycleMissingConfigIsFatal(t *testing.T) {
	client := &fakeClient{balances: map[string]decimal.Decimal{"BTC": dec("0.5")}}
	prices := &fakePrices{external: dec("100000"), home: dec("103000")}

	w := NewWorker(
		0,
		domain.SideSell,
		&fakeSource{found: false},
		client,
		prices,
		feed.NewBook(btcmxn),
		notify.NewNotifier(nil, discardLogger()),
		fastParams(),
		discardLogger(),
	)

	err := w.cycle(context.Background())
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestCyclePriceFailureBacksOff(t *testing.T) {
	client := &fakeClient{balances: map[string]decimal.Decimal{"BTC": dec("0.5")}}
	prices := &fakePrices{extErr: domain.ErrNoPrice}

	w := newTestWorker(t, domain.SideSell, activeConfig(), client, prices, nil)
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(client.placed) != 0 {
		t.Fatal("order placed despite price failure")
	}
}

func TestCycleClampAppliesForNonGreedy(t *testing.T) {
	client := &fakeClient{balances: map[string]decimal.Decimal{"BTC": dec("0.5")}}
	// Floor 101500, but the home bid sits at 101800: the clamp lifts the
	// sell just above it.
	prices := &fakePrices{external: dec("100000"), home: dec("103000"), clamp: dec("101800")}

	cfg := activeConfig()
	params := fastParams()
	params.Clamp = true

	w := NewWorker(
		0,
		domain.SideSell,
		&fakeSource{cfg: cfg, found: true},
		client,
		prices,
		feed.NewBook(btcmxn),
		notify.NewNotifier(nil, discardLogger()),
		params,
		discardLogger(),
	)
	if err := w.cycle(context.Background()); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if len(client.placed) != 1 {
		t.Fatalf("placed %d orders, want 1", len(client.placed))
	}
	if !client.placed[0].Price.Equal(dec("101800.01")) {
		t.Fatalf("price = %s, want clamped 101800.01", client.placed[0].Price)
	}
}
