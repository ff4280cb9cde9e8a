package pricing

import (
	"math"

	"github.com/kshitijsingla/chain-viewer/src/models"
)

// Black-Scholes pricing for European options. Pure math, no I/O: the
// chain builder feeds it spot, strike, year-fraction expiry and a
// volatility estimate per contract.

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

func d1(s, k, t, r, sigma float64) float64 {
	return (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
}

// IntrinsicValue is the exercise value of an option at the given spot.
func IntrinsicValue(s, k float64, optionType models.OptionType) float64 {
	if optionType == models.OptionTypeCall {
		return math.Max(0, s-k)
	}

	return math.Max(0, k-s)
}

// Price returns the Black-Scholes price. Expired or zero-volatility
// options price at intrinsic value.
func Price(s, k, t, r, sigma float64, optionType models.OptionType) float64 {
	if t <= 0 || sigma <= 0 || s <= 0 || k <= 0 {
		return IntrinsicValue(s, k, optionType)
	}

	dOne := d1(s, k, t, r, sigma)
	dTwo := dOne - sigma*math.Sqrt(t)
	discount := math.Exp(-r * t)

	if optionType == models.OptionTypeCall {
		return s*normCDF(dOne) - k*discount*normCDF(dTwo)
	}

	return k*discount*normCDF(-dTwo) - s*normCDF(-dOne)
}

// Greeks holds per-contract sensitivities: theta is per calendar day,
// vega per volatility point, rho per rate point.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// ComputeGreeks returns the Black-Scholes Greeks rounded to four decimal
// places. Expired or zero-volatility inputs yield zero Greeks.
func ComputeGreeks(s, k, t, r, sigma float64, optionType models.OptionType) Greeks {
	if t <= 0 || sigma <= 0 || s <= 0 || k <= 0 {
		return Greeks{}
	}

	dOne := d1(s, k, t, r, sigma)
	dTwo := dOne - sigma*math.Sqrt(t)
	discount := math.Exp(-r * t)
	pdfD1 := normPDF(dOne)

	var delta, theta, rho float64
	if optionType == models.OptionTypeCall {
		delta = normCDF(dOne)
		theta = (-s*pdfD1*sigma/(2*math.Sqrt(t)) - r*k*discount*normCDF(dTwo)) / 365
		rho = k * t * discount * normCDF(dTwo) / 100
	} else {
		delta = normCDF(dOne) - 1
		theta = (-s*pdfD1*sigma/(2*math.Sqrt(t)) + r*k*discount*normCDF(-dTwo)) / 365
		rho = -k * t * discount * normCDF(-dTwo) / 100
	}

	gamma := pdfD1 / (s * sigma * math.Sqrt(t))
	vega := s * pdfD1 * math.Sqrt(t) / 100

	return Greeks{
		Delta: round4(delta),
		Gamma: round4(gamma),
		Theta: round4(theta),
		Vega:  round4(vega),
		Rho:   round4(rho),
	}
}

// rawVega is the unscaled dPrice/dSigma used by the implied-volatility
// solver.
func rawVega(s, k, t, r, sigma float64) float64 {
	if t <= 0 || sigma <= 0 || s <= 0 || k <= 0 {
		return 0
	}

	return s * normPDF(d1(s, k, t, r, sigma)) * math.Sqrt(t)
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
