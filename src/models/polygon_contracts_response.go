package models

// PolygonContractsResponse is the envelope of the v3 reference options
// contracts endpoint.
type PolygonContractsResponse[T any] struct {
	Results   []T     `json:"results"`
	Status    string  `json:"status"`
	RequestId string  `json:"request_id"`
	NextURL   *string `json:"next_url"`
}

type PolygonContractDTO struct {
	ContractType      OptionType   `json:"contract_type"`
	ExerciseStyle     string       `json:"exercise_style"`
	ExpirationDate    string       `json:"expiration_date"`
	SharesPerContract int          `json:"shares_per_contract"`
	StrikePrice       float64      `json:"strike_price"`
	Ticker            OptionSymbol `json:"ticker"`
	UnderlyingTicker  StockSymbol  `json:"underlying_ticker"`
}
