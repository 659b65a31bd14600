package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func params(spread string, greedy bool) Params {
	return Params{
		SpreadPercent: dec(spread),
		Greedy:        greedy,
		PriceDelta:    dec("1"),
	}
}

func TestBuyPriceNonGreedy(t *testing.T) {
	// externalAsk=100, homeBid=99, spread=1% => ceiling 99.0 and the home
	// bid does not beat it, so the ceiling is quoted.
	got := OrderPrice(domain.SideBuy, dec("100"), dec("99"), params("1", false))
	if !got.Equal(dec("99")) {
		t.Fatalf("buy price = %s, want 99", got)
	}
}

func TestBuyPriceGreedyOutbidsHomeBook(t *testing.T) {
	// Home bid 95 is under the 99.0 ceiling: greedy mode outbids it by the
	// price delta.
	got := OrderPrice(domain.SideBuy, dec("100"), dec("95"), params("1", true))
	if !got.Equal(dec("96")) {
		t.Fatalf("greedy buy price = %s, want 96", got)
	}
}

func TestBuyPriceGreedyRespectsCeiling(t *testing.T) {
	// Home bid above the ceiling: greedy mode still quotes the ceiling.
	got := OrderPrice(domain.SideBuy, dec("100"), dec("99.5"), params("1", true))
	if !got.Equal(dec("99")) {
		t.Fatalf("greedy buy price = %s, want 99 (ceiling)", got)
	}
}

func TestSellPriceFloor(t *testing.T) {
	tests := []struct {
		name    string
		extBid  string
		homeAsk string
		spread  string
		greedy  bool
		want    string
	}{
		{"non-greedy quotes floor", "100", "103", "1.5", false, "101.5"},
		{"home ask below floor quotes floor", "100", "100.5", "1.5", true, "101.5"},
		{"greedy undercuts home ask", "100", "103", "1.5", true, "102"},
		{"zero spread matches reference", "100", "99", "0", false, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrderPrice(domain.SideSell, dec(tt.extBid), dec(tt.homeAsk), params(tt.spread, tt.greedy))
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("sell price = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSellPriceNeverBelowSpreadFloor(t *testing.T) {
	// For any spread >= 0 the sell price must stay at or above
	// externalBid*(1+s/100) unless greedy pulls it toward a higher home ask.
	spreads := []string{"0", "0.5", "1", "1.5", "3", "10"}
	extBid := dec("250000")
	for _, s := range spreads {
		floor := extBid.Mul(dec("1").Add(dec(s).Div(dec("100"))))

		// Non-greedy: always the floor itself.
		got := OrderPrice(domain.SideSell, extBid, dec("1"), params(s, false))
		if got.LessThan(floor) {
			t.Fatalf("spread %s: non-greedy sell price %s below floor %s", s, got, floor)
		}

		// Greedy with a home ask below the floor: floor wins.
		got = OrderPrice(domain.SideSell, extBid, floor.Sub(dec("10")), params(s, true))
		if got.LessThan(floor) {
			t.Fatalf("spread %s: greedy sell price %s below floor %s", s, got, floor)
		}
	}
}

func TestClampToBook(t *testing.T) {
	tick := dec("0.01")

	// Buy at or above the home best ask shifts below it.
	got := ClampToBook(domain.SideBuy, dec("99.5"), dec("99.5"), tick)
	if !got.Equal(dec("99.49")) {
		t.Fatalf("clamped buy = %s, want 99.49", got)
	}

	// Buy below the best ask is untouched: 99.0 < 99.5.
	got = ClampToBook(domain.SideBuy, dec("99"), dec("99.5"), tick)
	if !got.Equal(dec("99")) {
		t.Fatalf("unclamped buy = %s, want 99", got)
	}

	// Sell at or below the home best bid shifts above it.
	got = ClampToBook(domain.SideSell, dec("101"), dec("101.2"), tick)
	if !got.Equal(dec("101.21")) {
		t.Fatalf("clamped sell = %s, want 101.21", got)
	}

	// Sell above the best bid is untouched.
	got = ClampToBook(domain.SideSell, dec("101.5"), dec("101.2"), tick)
	if !got.Equal(dec("101.5")) {
		t.Fatalf("unclamped sell = %s, want 101.5", got)
	}
}

func TestOrderValueCapsNotional(t *testing.T) {
	maxValue := dec("20000")

	// Buy: balance 50,000 quote units capped at 20,000 exactly.
	got := OrderValue(domain.SideBuy, dec("50000"), dec("99"), maxValue)
	if !got.Equal(dec("20000")) {
		t.Fatalf("buy value = %s, want 20000", got)
	}

	// Buy: balance under the cap is spent in full.
	got = OrderValue(domain.SideBuy, dec("1500"), dec("99"), maxValue)
	if !got.Equal(dec("1500")) {
		t.Fatalf("buy value = %s, want 1500", got)
	}

	// Sell: 0.01 base at price 1,000,000 => 10,000, under the cap.
	got = OrderValue(domain.SideSell, dec("0.01"), dec("1000000"), maxValue)
	if !got.Equal(dec("10000")) {
		t.Fatalf("sell value = %s, want 10000", got)
	}

	// Sell: notional beyond the cap is cut to the cap for any balance.
	got = OrderValue(domain.SideSell, dec("5"), dec("1000000"), maxValue)
	if !got.Equal(dec("20000")) {
		t.Fatalf("sell value = %s, want 20000", got)
	}
}

func TestRealSpreadPercent(t *testing.T) {
	// ext 100, placed 98.5 => 1.5%.
	got := RealSpreadPercent(dec("100"), dec("98.5"))
	if !got.Equal(dec("1.5")) {
		t.Fatalf("real spread = %s, want 1.5", got)
	}

	// Sign is dropped: placed above the reference reports the same margin.
	got = RealSpreadPercent(dec("100"), dec("101.5"))
	if !got.Equal(dec("1.5")) {
		t.Fatalf("real spread = %s, want 1.5", got)
	}

	// Zero reference does not divide.
	got = RealSpreadPercent(decimal.Decimal{}, dec("101.5"))
	if !got.IsZero() {
		t.Fatalf("real spread = %s, want 0", got)
	}
}
