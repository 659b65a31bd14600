// Package bot contains the per-bot order lifecycle workers and the
// supervisor that runs them.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
	"github.com/cpleonardo/simple-market-maker/internal/feed"
	"github.com/cpleonardo/simple-market-maker/internal/notify"
	"github.com/cpleonardo/simple-market-maker/internal/pricing"
	"github.com/cpleonardo/simple-market-maker/internal/store"
)

// State is the worker's position in its order lifecycle. It is transient,
// single-writer, and only surfaced through logs.
type State string

const (
	StateEvaluating State = "evaluating"
	StatePlaced     State = "placed"
	StateMonitoring State = "monitoring"
	StateClosing    State = "closing"
)

// TradingClient is the home venue's private trading surface as the worker
// needs it. Rejections carry *domain.OrderError so the worker can branch on
// kinds instead of message text.
type TradingClient interface {
	PlaceOrder(ctx context.Context, order domain.Order) (domain.PlacedOrder, error)
	CloseOrder(ctx context.Context, id string) error
	GetBalance(ctx context.Context, asset string) (decimal.Decimal, error)
}

// PriceSource answers the worker's reference price queries.
type PriceSource interface {
	ExternalPrice(ctx context.Context, market domain.MarketPair, side domain.Side) (decimal.Decimal, error)
	HomePrice(book *feed.Book, side domain.Side) (decimal.Decimal, error)
	HomeClampReference(book *feed.Book, side domain.Side) (decimal.Decimal, error)
}

// Params holds the engine-wide worker knobs shared by every bot.
type Params struct {
	// PriceDelta is the greedy outbid tick in quote units.
	PriceDelta decimal.Decimal
	// Clamp enables the non-greedy anti-cross clamp.
	Clamp bool
	// ClampTick is the clamp shift in quote units.
	ClampTick decimal.Decimal
	// RetryDelay is the backoff after a transient price or balance failure.
	RetryDelay time.Duration
	// NotFundsBackoff is the backoff after an insufficient-funds condition.
	// It doubles as the notification cool-down: while the worker sleeps, no
	// further funds notifications can fire.
	NotFundsBackoff time.Duration
}

// Worker runs the evaluate → place → monitor → close loop for one bot
// config. It holds at most one open order at any time; a new price is never
// evaluated while a prior order is open.
type Worker struct {
	id      string
	index   int
	side    domain.Side
	configs store.Source
	client  TradingClient
	prices  PriceSource
	book    *feed.Book
	nf      *notify.Notifier
	params  Params
	logger  *slog.Logger

	state State
}

// NewWorker creates a worker for the bot config at index. side is fixed for
// the worker's lifetime; the remaining config fields are re-fetched every
// cycle.
func NewWorker(
	index int,
	side domain.Side,
	configs store.Source,
	client TradingClient,
	prices PriceSource,
	book *feed.Book,
	nf *notify.Notifier,
	params Params,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		id:      uuid.NewString(),
		index:   index,
		side:    side,
		configs: configs,
		client:  client,
		prices:  prices,
		book:    book,
		nf:      nf,
		params:  params,
		state:   StateEvaluating,
		logger: logger.With(
			slog.String("component", "worker"),
			slog.String("market", book.Market().String()),
			slog.String("side", string(side)),
			slog.Int("bot", index),
		),
	}
}

// Run loops trading cycles until ctx is cancelled or the worker's config
// document disappears from its source (a fatal configuration error).
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", slog.String("run_id", w.id))
	for {
		if err := w.cycle(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// cycle executes one pass of the state machine. A nil return means
// "re-evaluate"; a non-nil return stops the worker.
func (w *Worker) cycle(ctx context.Context) error {
	w.state = StateEvaluating

	cfg, err := w.configs.Get(ctx, w.index)
	if errors.Is(err, domain.ErrConfigNotFound) {
		w.logger.Error("bot config no longer exists", slog.String("error", err.Error()))
		return err
	}
	if err != nil {
		w.logger.Error("bot config fetch failed", slog.String("error", err.Error()))
		return w.sleep(ctx, w.params.RetryDelay)
	}

	if !cfg.IsActive {
		w.logger.Info("bot is not active",
			slog.Duration("sleep", cfg.RefreshInterval),
		)
		return w.sleep(ctx, cfg.RefreshInterval)
	}

	externalPrice, err := w.prices.ExternalPrice(ctx, cfg.Market, w.side)
	if err != nil {
		w.logger.Error("external price query failed", slog.String("error", err.Error()))
		return w.sleep(ctx, w.params.RetryDelay)
	}
	homePrice, err := w.prices.HomePrice(w.book, w.side)
	if err != nil {
		w.logger.Error("home price query failed", slog.String("error", err.Error()))
		return w.sleep(ctx, w.params.RetryDelay)
	}

	asset := cfg.Market.Quote
	if w.side == domain.SideSell {
		asset = cfg.Market.Base
	}
	balance, err := w.client.GetBalance(ctx, asset)
	if err != nil {
		w.logger.Error("wallet query failed",
			slog.String("asset", asset),
			slog.String("error", err.Error()),
		)
		return w.sleep(ctx, w.params.RetryDelay)
	}

	if balance.IsZero() {
		w.logger.Error("wallet is empty, order is impossible",
			slog.String("asset", asset),
		)
		w.notifyFunds(ctx, cfg.Market, emptySide(w.side))
		return w.sleep(ctx, w.params.NotFundsBackoff)
	}

	price := pricing.OrderPrice(w.side, externalPrice, homePrice, pricing.Params{
		SpreadPercent: cfg.SpreadPercent,
		Greedy:        cfg.Greedy,
		PriceDelta:    w.params.PriceDelta,
	})
	if !cfg.Greedy && w.params.Clamp {
		if bound, err := w.prices.HomeClampReference(w.book, w.side); err == nil {
			price = pricing.ClampToBook(w.side, price, bound, w.params.ClampTick)
		}
	}
	value := pricing.OrderValue(w.side, balance, price, cfg.MaxOrderValue)

	order := domain.Order{
		Market: cfg.Market,
		Side:   w.side,
		Price:  price,
		Amount: domain.QuoteValue(value),
	}

	w.state = StatePlaced
	placed, err := w.client.PlaceOrder(ctx, order)
	if err != nil {
		w.logger.Error("could not place order",
			slog.String("price", price.String()),
			slog.String("amount", value.String()),
			slog.String("error", err.Error()),
		)
		var oe *domain.OrderError
		if errors.As(err, &oe) && oe.IsFundsRelated() {
			w.notifyFunds(ctx, cfg.Market, nil)
			w.logger.Error("funds notification sent", slog.String("kind", oe.Kind.String()))
			return w.sleep(ctx, w.params.NotFundsBackoff)
		}
		// Any other rejection retries immediately.
		return nil
	}

	w.logger.Info("order placed",
		slog.String("order_id", placed.ID),
		slog.String("price", placed.Price.String()),
		slog.String("amount", placed.Amount.String()),
		slog.String("home_price", homePrice.String()),
		slog.String("external_price", externalPrice.String()),
		slog.String("real_spread", pricing.RealSpreadPercent(externalPrice, placed.Price).String()+"%"),
		slog.Duration("sleep", cfg.RefreshInterval),
	)

	w.state = StateMonitoring
	if err := w.sleep(ctx, cfg.RefreshInterval); err != nil {
		// Shutdown mid-monitor: the supervisor's liquidation pass picks up
		// the open order.
		return err
	}

	w.state = StateClosing
	if err := w.client.CloseOrder(ctx, placed.ID); err != nil {
		w.logger.Error("order close failed",
			slog.String("order_id", placed.ID),
			slog.String("error", err.Error()),
		)
		if domain.RejectKindOf(err) == domain.KindInvalidNonce {
			w.logger.Info("making a second close attempt", slog.String("order_id", placed.ID))
			if err := w.client.CloseOrder(ctx, placed.ID); err != nil {
				w.logger.Error("second close attempt failed",
					slog.String("order_id", placed.ID),
					slog.String("error", err.Error()),
				)
			}
		}
		// The order may remain open on the venue; logged, not retried again.
	}
	return nil
}

// emptySide marks which wallet of the pair is known to be empty: the quote
// wallet for a buy bot, the base wallet for a sell bot.
func emptySide(side domain.Side) *domain.Side {
	s := side
	return &s
}

// notifyFunds sends the balance-status notification. known, when non-nil,
// names the side whose wallet is already known to be empty; the other
// side's balance is fetched fresh. Delivery is fire-and-forget: failures
// are logged by the notifier and never reach the trading loop.
func (w *Worker) notifyFunds(ctx context.Context, market domain.MarketPair, known *domain.Side) {
	if w.nf == nil {
		return
	}

	baseBalance := decimal.Decimal{}
	quoteBalance := decimal.Decimal{}

	if known == nil || *known != domain.SideSell {
		if b, err := w.client.GetBalance(ctx, market.Base); err == nil {
			baseBalance = b
		}
	}
	if known == nil || *known != domain.SideBuy {
		if b, err := w.client.GetBalance(ctx, market.Quote); err == nil {
			quoteBalance = b
		}
	}

	subject, body := notify.FundsStatus(market, baseBalance, quoteBalance)
	_ = w.nf.Notify(ctx, subject, body)
}

// sleep blocks for d or until ctx is cancelled.
func (w *Worker) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
