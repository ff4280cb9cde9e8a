package models

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
)

const contractMultiplier = 100.0

// SpreadLeg is one side of a two-leg vertical spread.
type SpreadLeg struct {
	OptionType OptionType `json:"option_type"`
	Strike     float64    `json:"strike"`
	Premium    float64    `json:"premium"`
}

// CreditSpreadRequest is the calculator input: a short leg, a long leg and
// a contract count.
type CreditSpreadRequest struct {
	Sell      SpreadLeg `json:"sell"`
	Buy       SpreadLeg `json:"buy"`
	Contracts int       `json:"contracts"`
}

func (r *CreditSpreadRequest) ParseHTTPRequest(req *http.Request) error {
	jsonDecoder := json.NewDecoder(req.Body)
	if err := jsonDecoder.Decode(r); err != nil {
		return fmt.Errorf("CreditSpreadRequest: ParseHTTPRequest: decode: %w", err)
	}

	if r.Contracts == 0 {
		r.Contracts = 1
	}

	return nil
}

func (r *CreditSpreadRequest) Validate(req *http.Request) error {
	if err := r.Sell.OptionType.Validate(); err != nil {
		return fmt.Errorf("CreditSpreadRequest: Validate: sell leg: %w", err)
	}

	if err := r.Buy.OptionType.Validate(); err != nil {
		return fmt.Errorf("CreditSpreadRequest: Validate: buy leg: %w", err)
	}

	if r.Sell.OptionType != r.Buy.OptionType {
		return fmt.Errorf("CreditSpreadRequest: Validate: both legs must be the same option type")
	}

	if r.Sell.Strike <= 0 || r.Buy.Strike <= 0 {
		return fmt.Errorf("CreditSpreadRequest: Validate: strikes must be positive")
	}

	if r.Sell.Strike == r.Buy.Strike {
		return fmt.Errorf("CreditSpreadRequest: Validate: legs must have different strikes")
	}

	if r.Contracts < 1 {
		return fmt.Errorf("CreditSpreadRequest: Validate: contracts must be at least 1")
	}

	if r.Sell.OptionType == OptionTypeCall && r.Sell.Strike > r.Buy.Strike {
		return fmt.Errorf("CreditSpreadRequest: Validate: call credit spread sells the lower strike")
	}

	if r.Sell.OptionType == OptionTypePut && r.Sell.Strike < r.Buy.Strike {
		return fmt.Errorf("CreditSpreadRequest: Validate: put credit spread sells the higher strike")
	}

	if r.NetCredit() <= 0 {
		return fmt.Errorf("CreditSpreadRequest: Validate: sell premium must exceed buy premium for a credit spread")
	}

	return nil
}

// NetCredit is the per-share premium collected when the spread is opened.
func (r *CreditSpreadRequest) NetCredit() float64 {
	return r.Sell.Premium - r.Buy.Premium
}

// PnLPoint is one sample of the expiry P&L curve.
type PnLPoint struct {
	Price  float64 `json:"price"`
	Profit float64 `json:"profit"`
}

// CreditSpreadAnalysis is the calculator output.
type CreditSpreadAnalysis struct {
	Name       string     `json:"name"`
	NetCredit  float64    `json:"net_credit"`
	Width      float64    `json:"width"`
	MaxProfit  float64    `json:"max_profit"`
	MaxLoss    float64    `json:"max_loss"`
	Breakeven  float64    `json:"breakeven"`
	RiskReward float64    `json:"risk_reward"`
	PnL        []PnLPoint `json:"pnl"`
}

// Analyze computes the spread economics and an expiry P&L curve sampled at
// 100 underlying prices spanning 90% of the lower strike to 110% of the
// higher strike.
func (r *CreditSpreadRequest) Analyze() *CreditSpreadAnalysis {
	netCredit := r.NetCredit()
	width := math.Abs(r.Buy.Strike - r.Sell.Strike)
	multiplier := contractMultiplier * float64(r.Contracts)

	maxProfit := netCredit * multiplier
	maxLoss := (width - netCredit) * multiplier

	var name string
	var breakeven float64
	if r.Sell.OptionType == OptionTypeCall {
		name = "Bear Call Spread"
		breakeven = r.Sell.Strike + netCredit
	} else {
		name = "Bull Put Spread"
		breakeven = r.Sell.Strike - netCredit
	}

	var riskReward float64
	if maxLoss > 0 {
		riskReward = maxProfit / maxLoss
	}

	minStrike := math.Min(r.Sell.Strike, r.Buy.Strike)
	maxStrike := math.Max(r.Sell.Strike, r.Buy.Strike)
	low := minStrike * 0.9
	high := maxStrike * 1.1

	const samples = 100
	step := (high - low) / float64(samples-1)

	pnl := make([]PnLPoint, 0, samples)
	for i := 0; i < samples; i++ {
		price := low + float64(i)*step
		pnl = append(pnl, PnLPoint{
			Price:  price,
			Profit: r.profitAt(price, netCredit, multiplier),
		})
	}

	return &CreditSpreadAnalysis{
		Name:       name,
		NetCredit:  netCredit,
		Width:      width,
		MaxProfit:  maxProfit,
		MaxLoss:    maxLoss,
		Breakeven:  breakeven,
		RiskReward: riskReward,
		PnL:        pnl,
	}
}

func (r *CreditSpreadRequest) profitAt(price, netCredit, multiplier float64) float64 {
	var shortPayoff, longPayoff float64
	if r.Sell.OptionType == OptionTypeCall {
		shortPayoff = math.Max(0, price-r.Sell.Strike)
		longPayoff = math.Max(0, price-r.Buy.Strike)
	} else {
		shortPayoff = math.Max(0, r.Sell.Strike-price)
		longPayoff = math.Max(0, r.Buy.Strike-price)
	}

	return (netCredit - shortPayoff + longPayoff) * multiplier
}
