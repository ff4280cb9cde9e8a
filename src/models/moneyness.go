package models

// Moneyness describes where a strike sits relative to spot. The ATM band
// is half a percent either side of spot.
type Moneyness struct {
	PctFromSpot    float64 `json:"pct_from_spot"`
	IsITM          bool    `json:"is_itm"`
	IsATM          bool    `json:"is_atm"`
	IsOTM          bool    `json:"is_otm"`
	IntrinsicValue float64 `json:"intrinsic_value"`
}
