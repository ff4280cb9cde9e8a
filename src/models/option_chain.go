package models

import (
	"math"
	"sort"
	"time"
)

// OptionChain is a built chain for one underlying and expiration as of a
// historical date.
type OptionChain struct {
	Symbol     StockSymbol      `json:"symbol"`
	AsOfDate   time.Time        `json:"as_of_date"`
	Expiration time.Time        `json:"expiration"`
	SpotPrice  float64          `json:"spot_price"`
	Contracts  []OptionContract `json:"contracts"`
	DataSource DataSource       `json:"data_source"`
}

func (c *OptionChain) Calls() []OptionContract {
	return c.filter(OptionTypeCall)
}

func (c *OptionChain) Puts() []OptionContract {
	return c.filter(OptionTypePut)
}

func (c *OptionChain) filter(optionType OptionType) []OptionContract {
	var out []OptionContract
	for _, contract := range c.Contracts {
		if contract.OptionType == optionType {
			out = append(out, contract)
		}
	}

	return out
}

// Strikes returns the distinct strikes in the chain, ascending.
func (c *OptionChain) Strikes() []float64 {
	seen := make(map[float64]bool)
	var strikes []float64
	for _, contract := range c.Contracts {
		if !seen[contract.Strike] {
			seen[contract.Strike] = true
			strikes = append(strikes, contract.Strike)
		}
	}

	sort.Float64s(strikes)

	return strikes
}

// ATMStrike returns the strike closest to the spot price, or 0 for an
// empty chain.
func (c *OptionChain) ATMStrike() float64 {
	var atm float64
	minDistance := math.MaxFloat64
	for _, strike := range c.Strikes() {
		distance := math.Abs(strike - c.SpotPrice)
		if distance < minDistance {
			minDistance = distance
			atm = strike
		}
	}

	return atm
}

// MostActive returns the n highest-volume contracts of the given type,
// descending by volume.
func (c *OptionChain) MostActive(optionType OptionType, n int) []OptionContract {
	contracts := c.filter(optionType)

	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].Volume > contracts[j].Volume
	})

	if len(contracts) > n {
		contracts = contracts[:n]
	}

	return contracts
}

// DaysToExpiration is the whole-day count from the as-of date to expiration.
func (c *OptionChain) DaysToExpiration() int {
	return int(c.Expiration.Sub(c.AsOfDate).Hours() / 24)
}
