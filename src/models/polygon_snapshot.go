package models

// PolygonSnapshotResponse is the envelope of the v3 options snapshot
// endpoint.
type PolygonSnapshotResponse struct {
	Results   []PolygonSnapshotContract `json:"results"`
	Status    string                    `json:"status"`
	RequestId string                    `json:"request_id"`
	NextURL   *string                   `json:"next_url"`
}

type PolygonSnapshotContract struct {
	Details         PolygonSnapshotDetails    `json:"details"`
	Day             PolygonSnapshotDay        `json:"day"`
	LastQuote       PolygonSnapshotQuote      `json:"last_quote"`
	LastTrade       PolygonSnapshotTrade      `json:"last_trade"`
	Greeks          PolygonSnapshotGreeks     `json:"greeks"`
	OpenInterest    float64                   `json:"open_interest"`
	ImpliedVol      float64                   `json:"implied_volatility"`
	UnderlyingAsset PolygonSnapshotUnderlying `json:"underlying_asset"`
}

type PolygonSnapshotDetails struct {
	Ticker            OptionSymbol `json:"ticker"`
	ContractType      OptionType   `json:"contract_type"`
	StrikePrice       float64      `json:"strike_price"`
	ExpirationDate    string       `json:"expiration_date"`
	SharesPerContract int          `json:"shares_per_contract"`
	ExerciseStyle     string       `json:"exercise_style"`
}

type PolygonSnapshotDay struct {
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
	VWAP        float64 `json:"vwap"`
	LastUpdated int64   `json:"last_updated"`
}

type PolygonSnapshotQuote struct {
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	Midpoint    float64 `json:"midpoint"`
	LastUpdated int64   `json:"last_updated"`
}

type PolygonSnapshotTrade struct {
	Price     float64 `json:"price"`
	Size      int64   `json:"size"`
	Timestamp int64   `json:"sip_timestamp"`
}

type PolygonSnapshotGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

type PolygonSnapshotUnderlying struct {
	Ticker StockSymbol `json:"ticker"`
	Price  float64     `json:"price"`
}
