package pricesource

// DefaultRoutes is the static table assigning each supported market to its
// external pricing venue. Markets absent from the table cannot be traded.
func DefaultRoutes(bitso, okx Quoter) map[string]Quoter {
	return map[string]Quoter{
		"BTC-MXN":  bitso,
		"LTC-MXN":  bitso,
		"ETH-MXN":  bitso,
		"BCH-MXN":  bitso,
		"BTC-USDC": okx,
	}
}
