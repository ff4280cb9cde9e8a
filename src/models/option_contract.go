package models

import "time"

// DataSource reports where a contract row came from.
type DataSource string

const (
	DataSourceFlatFiles DataSource = "flatfiles"
	DataSourceRestAPI   DataSource = "rest_api"
	DataSourceSkeleton  DataSource = "skeleton"
)

// OptionContract is one row of an option chain. Quote fields may be
// vendor-reported or estimated; Greeks are derived.
type OptionContract struct {
	Symbol           OptionSymbol `json:"symbol"`
	UnderlyingSymbol StockSymbol  `json:"underlying_symbol"`
	OptionType       OptionType   `json:"option_type"`
	Strike           float64      `json:"strike"`
	Expiration       time.Time    `json:"expiration"`
	ExpirationDate   string       `json:"expiration_date"`
	Bid              float64      `json:"bid"`
	Ask              float64      `json:"ask"`
	Last             float64      `json:"last"`
	Volume           int64        `json:"volume"`
	OpenInterest     int64        `json:"open_interest"`
	High             float64      `json:"high,omitempty"`
	Low              float64      `json:"low,omitempty"`
	VWAP             float64      `json:"vwap,omitempty"`
	Delta            float64      `json:"delta"`
	Gamma            float64      `json:"gamma"`
	Theta            float64      `json:"theta"`
	Vega             float64      `json:"vega"`
	Rho              float64      `json:"rho"`
	ImpliedVol       float64      `json:"implied_volatility"`
	HasGreeks        bool         `json:"has_greeks"`
	DataSource       DataSource   `json:"data_source"`
}

func (c *OptionContract) TimeUntilExpiration(now time.Time) time.Duration {
	return c.Expiration.Sub(now)
}

// Mid returns the quote midpoint, falling back to the last trade when
// either side of the quote is missing.
func (c *OptionContract) Mid() float64 {
	if c.Bid > 0 && c.Ask > 0 {
		return (c.Bid + c.Ask) / 2
	}

	return c.Last
}
