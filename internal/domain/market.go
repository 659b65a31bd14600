package domain

import (
	"fmt"
	"strings"
)

// MarketPair is an ordered (base, quote) asset pair. The canonical string
// form is "BASE-QUOTE", e.g. "BTC-MXN". Pairs are immutable once a bot
// config has been loaded.
type MarketPair struct {
	Base  string
	Quote string
}

// ParseMarketPair parses a canonical "BASE-QUOTE" market string. Both legs
// are uppercased.
func ParseMarketPair(s string) (MarketPair, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return MarketPair{}, fmt.Errorf("domain: invalid market pair %q", s)
	}
	return MarketPair{
		Base:  strings.ToUpper(parts[0]),
		Quote: strings.ToUpper(parts[1]),
	}, nil
}

// String returns the canonical "BASE-QUOTE" form.
func (m MarketPair) String() string {
	return m.Base + "-" + m.Quote
}

// IsZero reports whether the pair is unset.
func (m MarketPair) IsZero() bool {
	return m.Base == "" && m.Quote == ""
}
