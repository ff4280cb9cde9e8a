package models

import (
	"strings"
	"time"
)

// FlatFileAgg is one row of the vendor's day-aggregates flat file
// (us_options_opra/day_aggs_v1). One row per option ticker per day.
type FlatFileAgg struct {
	Ticker       string  `csv:"ticker"`
	Volume       int64   `csv:"volume"`
	Open         float64 `csv:"open"`
	Close        float64 `csv:"close"`
	High         float64 `csv:"high"`
	Low          float64 `csv:"low"`
	WindowStart  int64   `csv:"window_start"`
	Transactions int64   `csv:"transactions"`
}

func (a *FlatFileAgg) WindowStartTime() time.Time {
	return time.Unix(0, a.WindowStart).UTC()
}

// MatchesContractPrefix reports whether the row belongs to the given
// underlying and YYMMDD expiration.
func (a *FlatFileAgg) MatchesContractPrefix(symbol StockSymbol, expiration time.Time) bool {
	prefix := "O:" + symbol.String() + expiration.Format("060102")
	return strings.HasPrefix(a.Ticker, prefix)
}

// MatchesUnderlying reports whether the row's ticker belongs to the given
// underlying. The expiration digits directly after the root prevent prefix
// collisions between roots such as SPY and SPYG.
func (a *FlatFileAgg) MatchesUnderlying(symbol StockSymbol) bool {
	prefix := "O:" + symbol.String()
	if !strings.HasPrefix(a.Ticker, prefix) {
		return false
	}

	rest := a.Ticker[len(prefix):]

	return len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9'
}
