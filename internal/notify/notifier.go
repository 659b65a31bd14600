// Package notify delivers operator notifications. Messages are dispatched to
// every registered sender (e-mail, Telegram); delivery is fire-and-forget
// from the trading loop's point of view.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given subject and message body.
	Send(ctx context.Context, subject, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "smtp").
	Name() string
}

// Notifier dispatches notifications to one or more Senders.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders.
func NewNotifier(senders []Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification to all senders. Errors from individual senders
// are collected and returned as a combined error; a single sender failure
// does not prevent delivery to the remaining senders.
func (n *Notifier) Notify(ctx context.Context, subject, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, subject, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("subject", subject),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// FundsStatus renders the balance-status notification for a market: one line
// per side of the pair. It is sent when a wallet runs empty or the venue
// rejects an order for lack of funds.
func FundsStatus(market domain.MarketPair, baseBalance, quoteBalance decimal.Decimal) (subject, body string) {
	subject = fmt.Sprintf("%s %s, %s %s", baseBalance, market.Base, quoteBalance, market.Quote)
	body = fmt.Sprintf(
		"Balance status report for the %s market\n• %s %s\n• %s %s",
		market, baseBalance, market.Base, quoteBalance, market.Quote,
	)
	return subject, body
}
