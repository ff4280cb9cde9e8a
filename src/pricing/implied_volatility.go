package pricing

import (
	"fmt"
	"math"

	"github.com/kshitijsingla/chain-viewer/src/models"
)

const (
	ivMaxIterations = 100
	ivTolerance     = 1e-6
	ivMinSigma      = 1e-4
	ivMaxSigma      = 10.0
	ivMinVega       = 1e-8
)

// ImpliedVolatility solves for the volatility that reproduces the given
// market price, using Newton-Raphson on vega with a 0.5 initial guess.
func ImpliedVolatility(marketPrice, s, k, t, r float64, optionType models.OptionType) (float64, error) {
	if marketPrice <= 0 {
		return 0, fmt.Errorf("ImpliedVolatility: market price must be positive, got %v", marketPrice)
	}

	if t <= 0 {
		return 0, fmt.Errorf("ImpliedVolatility: option is expired")
	}

	if marketPrice < IntrinsicValue(s, k, optionType) {
		return 0, fmt.Errorf("ImpliedVolatility: market price %v below intrinsic value", marketPrice)
	}

	sigma := 0.5

	for i := 0; i < ivMaxIterations; i++ {
		diff := Price(s, k, t, r, sigma, optionType) - marketPrice
		if math.Abs(diff) < ivTolerance {
			return sigma, nil
		}

		vega := rawVega(s, k, t, r, sigma)
		if math.Abs(vega) < ivMinVega {
			return 0, fmt.Errorf("ImpliedVolatility: vega too small, solver unstable")
		}

		sigma -= diff / vega

		if sigma < ivMinSigma {
			sigma = ivMinSigma
		} else if sigma > ivMaxSigma {
			sigma = ivMaxSigma
		}
	}

	return 0, fmt.Errorf("ImpliedVolatility: did not converge after %d iterations", ivMaxIterations)
}
