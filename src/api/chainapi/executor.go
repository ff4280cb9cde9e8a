package chainapi

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/kshitijsingla/chain-viewer/src/api"
	"github.com/kshitijsingla/chain-viewer/src/models"
	"github.com/kshitijsingla/chain-viewer/src/pricing"
	"github.com/kshitijsingla/chain-viewer/src/services"
	"github.com/kshitijsingla/chain-viewer/src/utils"
)

const (
	minStrikeWindow = 5
	maxStrikeWindow = 30

	shortDatedDays = 2
	longDatedDays  = 90

	mostActiveCount = 5

	// atmDistanceLimit is how far the closest strike may sit from spot
	// before the window is abandoned and all strikes are shown.
	atmDistanceLimit = 0.20
)

type ExpirationDTO struct {
	Date             string `json:"date"`
	DaysToExpiration int    `json:"days_to_expiration"`
	ShortDated       bool   `json:"short_dated"`
	LongDated        bool   `json:"long_dated"`
	IsDefault        bool   `json:"is_default"`
}

// ChainRow pairs the call and put at one strike for side-by-side display.
type ChainRow struct {
	Strike        float64                `json:"strike"`
	IsATM         bool                   `json:"is_atm"`
	Call          *models.OptionContract `json:"call,omitempty"`
	CallMoneyness *models.Moneyness      `json:"call_moneyness,omitempty"`
	Put           *models.OptionContract `json:"put,omitempty"`
	PutMoneyness  *models.Moneyness      `json:"put_moneyness,omitempty"`
}

// ChainService is what the executor needs from the chain builder.
type ChainService interface {
	Underlying(ctx context.Context, symbol models.StockSymbol, asOf time.Time) (float64, string, error)
	ListExpirations(ctx context.Context, symbol models.StockSymbol, asOf time.Time) ([]time.Time, error)
	BuildChain(ctx context.Context, symbol models.StockSymbol, expiration, asOf time.Time, refresh bool) (*services.ChainResult, error)
	Config() *models.ViewerConfigYAML
}

type ChainRequestExecutor struct {
	Builder ChainService
}

func (s *ChainRequestExecutor) Serve(r *http.Request, request api.ApiRequest) (chan interface{}, chan error) {
	resultCh := make(chan interface{}, 1)
	errorCh := make(chan error, 1)

	switch req := request.(type) {
	case *UnderlyingRequest:
		go s.serveUnderlying(r.Context(), req, resultCh, errorCh)
	case *ExpirationsRequest:
		go s.serveExpirations(r.Context(), req, resultCh, errorCh)
	case *ChainRequest:
		go s.serveChain(r.Context(), req, resultCh, errorCh)
	default:
		errorCh <- models.ErrInvalidRequestType
	}

	return resultCh, errorCh
}

func (s *ChainRequestExecutor) serveUnderlying(ctx context.Context, req *UnderlyingRequest, resultCh chan interface{}, errorCh chan error) {
	price, source, err := s.Builder.Underlying(ctx, req.StockSymbol, req.AsOf)
	if err != nil {
		errorCh <- err
		return
	}

	resultCh <- map[string]interface{}{
		"symbol": req.StockSymbol,
		"date":   req.AsOf.Format(utils.DateLayout),
		"price":  price,
		"source": source,
	}
}

func (s *ChainRequestExecutor) serveExpirations(ctx context.Context, req *ExpirationsRequest, resultCh chan interface{}, errorCh chan error) {
	expirations, err := s.Builder.ListExpirations(ctx, req.StockSymbol, req.AsOf)
	if err != nil {
		errorCh <- err
		return
	}

	target := s.Builder.Config().TargetDaysToExpiry

	defaultIdx := -1
	bestDistance := math.MaxInt32
	rows := make([]ExpirationDTO, 0, len(expirations))
	for _, expiration := range expirations {
		dte := utils.DaysBetween(req.AsOf, expiration)

		// Same-day expirations stop trading before the as-of close and
		// rarely carry usable data, so they are not offered.
		if dte <= 0 {
			continue
		}

		rows = append(rows, ExpirationDTO{
			Date:             expiration.Format(utils.DateLayout),
			DaysToExpiration: dte,
			ShortDated:       dte <= shortDatedDays,
			LongDated:        dte >= longDatedDays,
		})

		distance := dte - target
		if distance < 0 {
			distance = -distance
		}

		if distance < bestDistance {
			bestDistance = distance
			defaultIdx = len(rows) - 1
		}
	}

	if defaultIdx >= 0 {
		rows[defaultIdx].IsDefault = true
	}

	resultCh <- map[string]interface{}{
		"symbol":      req.StockSymbol,
		"date":        req.AsOf.Format(utils.DateLayout),
		"count":       len(rows),
		"expirations": rows,
	}
}

func (s *ChainRequestExecutor) serveChain(ctx context.Context, req *ChainRequest, resultCh chan interface{}, errorCh chan error) {
	result, err := s.Builder.BuildChain(ctx, req.StockSymbol, req.Expiry, req.AsOf, req.Refresh)
	if err != nil {
		errorCh <- err
		return
	}

	chain := result.Chain
	warnings := append([]string{}, result.Warnings...)

	summary := services.Summarize(chain)

	atm := chain.ATMStrike()
	allStrikes := chain.Strikes()
	strikes := allStrikes

	atmDistancePct := 0.0
	if chain.SpotPrice > 0 && atm > 0 {
		atmDistancePct = math.Abs(atm-chain.SpotPrice) / chain.SpotPrice * 100
	}

	if atmDistancePct > atmDistanceLimit*100 {
		warnings = append(warnings, "at-the-money strike is more than 20% from spot: showing all strikes")
	} else if len(strikes) > 0 {
		strikes = windowStrikes(strikes, atm, clampStrikeWindow(req.Strikes, s.Builder.Config().StrikesAroundATM))
	}

	resultCh <- map[string]interface{}{
		"symbol":             chain.Symbol,
		"as_of_date":         chain.AsOfDate.Format(utils.DateLayout),
		"expiration":         chain.Expiration.Format(utils.DateLayout),
		"days_to_expiration": chain.DaysToExpiration(),
		"spot_price":         chain.SpotPrice,
		"atm_strike":         atm,
		"atm_distance_pct":   math.Round(atmDistancePct*10) / 10,
		"strike_range":       strikeRange(allStrikes),
		"displayed_range":    strikeRange(strikes),
		"data_source":        chain.DataSource,
		"summary":            summary,
		"rows":               buildRows(chain, strikes, atm),
		"most_active": map[string]interface{}{
			"calls": chain.MostActive(models.OptionTypeCall, mostActiveCount),
			"puts":  chain.MostActive(models.OptionTypePut, mostActiveCount),
		},
		"warnings": warnings,
	}
}

// strikeRange summarizes a strike list for the dashboard's strike info
// panel. Strikes arrive sorted ascending.
func strikeRange(strikes []float64) map[string]interface{} {
	if len(strikes) == 0 {
		return map[string]interface{}{"count": 0, "min": 0.0, "max": 0.0}
	}

	return map[string]interface{}{
		"count": len(strikes),
		"min":   strikes[0],
		"max":   strikes[len(strikes)-1],
	}
}

func clampStrikeWindow(requested, fallback int) int {
	window := requested
	if window == 0 {
		window = fallback
	}

	if window < minStrikeWindow {
		return minStrikeWindow
	}

	if window > maxStrikeWindow {
		return maxStrikeWindow
	}

	return window
}

// windowStrikes returns up to n strikes on each side of the ATM strike.
func windowStrikes(strikes []float64, atm float64, n int) []float64 {
	idx := 0
	for i, strike := range strikes {
		if strike == atm {
			idx = i
			break
		}
	}

	lo := idx - n
	if lo < 0 {
		lo = 0
	}

	hi := idx + n
	if hi > len(strikes)-1 {
		hi = len(strikes) - 1
	}

	return strikes[lo : hi+1]
}

func buildRows(chain *models.OptionChain, strikes []float64, atm float64) []ChainRow {
	type sides struct {
		call *models.OptionContract
		put  *models.OptionContract
	}

	index := make(map[float64]*sides)
	for i := range chain.Contracts {
		contract := &chain.Contracts[i]

		entry, ok := index[contract.Strike]
		if !ok {
			entry = &sides{}
			index[contract.Strike] = entry
		}

		switch contract.OptionType {
		case models.OptionTypeCall:
			entry.call = contract
		case models.OptionTypePut:
			entry.put = contract
		}
	}

	rows := make([]ChainRow, 0, len(strikes))
	for _, strike := range strikes {
		row := ChainRow{
			Strike: strike,
			IsATM:  strike == atm,
		}

		if entry, ok := index[strike]; ok {
			if entry.call != nil {
				row.Call = entry.call
				if chain.SpotPrice > 0 {
					moneyness := pricing.ComputeMoneyness(chain.SpotPrice, strike, models.OptionTypeCall)
					row.CallMoneyness = &moneyness
				}
			}

			if entry.put != nil {
				row.Put = entry.put
				if chain.SpotPrice > 0 {
					moneyness := pricing.ComputeMoneyness(chain.SpotPrice, strike, models.OptionTypePut)
					row.PutMoneyness = &moneyness
				}
			}
		}

		rows = append(rows, row)
	}

	return rows
}
