package pricing

import (
	"math"

	"github.com/kshitijsingla/chain-viewer/src/models"
)

// Estimators for fields the flat files do not carry. Day-aggregate rows
// have trades but no quotes, open interest or volatility, so the chain
// builder fills those in with the documented approximations here.

// EstimateBidAsk builds a synthetic quote around the last trade using the
// volume-tiered spread fractions from the viewer config. The bid is
// floored at one cent and both sides are rounded to cents.
func EstimateBidAsk(last float64, volume int64, config *models.ViewerConfigYAML) (bid float64, ask float64) {
	if last <= 0 {
		return 0, 0
	}

	half := last * config.SpreadPctForVolume(volume) / 2

	bid = math.Max(0.01, last-half)
	ask = last + half

	return roundCents(bid), roundCents(ask)
}

// EstimateIV assumes a volatility by distance from spot: 20% near the
// money, 25% within twenty percent, 30% beyond.
func EstimateIV(strike, spot float64) float64 {
	if spot <= 0 {
		return 0.30
	}

	moneyness := math.Abs(strike-spot) / spot

	switch {
	case moneyness < 0.05:
		return 0.20
	case moneyness < 0.20:
		return 0.25
	default:
		return 0.30
	}
}

// ComputeMoneyness classifies a strike against spot. The ATM band is half
// a percent either side of spot; ITM/OTM are mutually exclusive with it.
func ComputeMoneyness(spot, strike float64, optionType models.OptionType) models.Moneyness {
	if spot <= 0 {
		return models.Moneyness{}
	}

	pct := (strike - spot) / spot * 100

	m := models.Moneyness{
		PctFromSpot:    pct,
		IntrinsicValue: IntrinsicValue(spot, strike, optionType),
	}

	if math.Abs(strike-spot)/spot <= 0.005 {
		m.IsATM = true
		return m
	}

	if optionType == models.OptionTypeCall {
		m.IsITM = strike < spot
	} else {
		m.IsITM = strike > spot
	}

	m.IsOTM = !m.IsITM

	return m
}

// EstimateOpenInterest approximates open interest from the day's opening
// price when the vendor feed does not carry it. A rough proxy, surfaced
// to the user as an estimate.
func EstimateOpenInterest(open float64) int64 {
	if open <= 0 {
		return 0
	}

	return int64(open * 100)
}

func roundCents(x float64) float64 {
	return math.Round(x*100) / 100
}
