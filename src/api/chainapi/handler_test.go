package chainapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kshitijsingla/chain-viewer/src/models"
	"github.com/kshitijsingla/chain-viewer/src/services"
)

type stubChainService struct {
	price          float64
	priceSource    string
	priceErr       error
	expirations    []time.Time
	expirationsErr error
	result         *services.ChainResult
	buildErr       error
	config         *models.ViewerConfigYAML
	lastRefresh    bool
}

func (s *stubChainService) Underlying(ctx context.Context, symbol models.StockSymbol, asOf time.Time) (float64, string, error) {
	return s.price, s.priceSource, s.priceErr
}

func (s *stubChainService) ListExpirations(ctx context.Context, symbol models.StockSymbol, asOf time.Time) ([]time.Time, error) {
	return s.expirations, s.expirationsErr
}

func (s *stubChainService) BuildChain(ctx context.Context, symbol models.StockSymbol, expiration, asOf time.Time, refresh bool) (*services.ChainResult, error) {
	s.lastRefresh = refresh
	return s.result, s.buildErr
}

func (s *stubChainService) Config() *models.ViewerConfigYAML {
	if s.config == nil {
		s.config = &models.ViewerConfigYAML{}
		s.config.ApplyDefaults()
	}

	return s.config
}

func newChainRouter(service ChainService) *mux.Router {
	router := mux.NewRouter()
	SetupHandler(router.PathPrefix("/api").Subrouter(), &ChainRequestExecutor{Builder: service})
	return router
}

func doRequest(router *mux.Router, method, target string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, target, nil))
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) (errType string) {
	t.Helper()

	var resp struct {
		Type string `json:"type"`
		Msg  string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

	return resp.Type
}

func TestUnderlyingHandler(t *testing.T) {
	t.Run("returns the spot price", func(t *testing.T) {
		router := newChainRouter(&stubChainService{price: 474.2, priceSource: "close"})

		recorder := doRequest(router, "GET", "/api/underlying?symbol=spy&date=2024-01-10")
		require.Equal(t, 200, recorder.Code)

		var resp struct {
			Symbol string  `json:"symbol"`
			Date   string  `json:"date"`
			Price  float64 `json:"price"`
			Source string  `json:"source"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

		assert.Equal(t, "SPY", resp.Symbol)
		assert.Equal(t, "2024-01-10", resp.Date)
		assert.Equal(t, 474.2, resp.Price)
		assert.Equal(t, "close", resp.Source)
	})

	t.Run("requires a symbol", func(t *testing.T) {
		router := newChainRouter(&stubChainService{})

		recorder := doRequest(router, "GET", "/api/underlying?date=2024-01-10")
		assert.Equal(t, 400, recorder.Code)
		assert.Equal(t, "validation", decodeError(t, recorder))
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		router := newChainRouter(&stubChainService{})

		recorder := doRequest(router, "GET", "/api/underlying?symbol=SPY&date=01%2F10%2F2024")
		assert.Equal(t, 400, recorder.Code)
		assert.Equal(t, "validation", decodeError(t, recorder))
	})

	t.Run("rejects a future date", func(t *testing.T) {
		router := newChainRouter(&stubChainService{})

		future := time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02")
		recorder := doRequest(router, "GET", "/api/underlying?symbol=SPY&date="+future)
		assert.Equal(t, 400, recorder.Code)
		assert.Equal(t, "validation", decodeError(t, recorder))
	})

	t.Run("maps vendor failures to 502", func(t *testing.T) {
		router := newChainRouter(&stubChainService{priceErr: errors.New("connection refused")})

		recorder := doRequest(router, "GET", "/api/underlying?symbol=SPY&date=2024-01-10")
		assert.Equal(t, 502, recorder.Code)
		assert.Equal(t, "vendor", decodeError(t, recorder))
	})

	t.Run("maps missing data to 404", func(t *testing.T) {
		router := newChainRouter(&stubChainService{priceErr: fmt.Errorf("no bar: %w", models.ErrNoData)})

		recorder := doRequest(router, "GET", "/api/underlying?symbol=SPY&date=2024-01-10")
		assert.Equal(t, 404, recorder.Code)
		assert.Equal(t, "no_data", decodeError(t, recorder))
	})

	t.Run("rejects non-GET methods", func(t *testing.T) {
		router := newChainRouter(&stubChainService{})

		recorder := doRequest(router, "POST", "/api/underlying?symbol=SPY")
		assert.Equal(t, 405, recorder.Code)
	})
}

func TestExpirationsHandler(t *testing.T) {
	type expirationsResponse struct {
		Count       int             `json:"count"`
		Expirations []ExpirationDTO `json:"expirations"`
	}

	t.Run("lists and flags expirations", func(t *testing.T) {
		router := newChainRouter(&stubChainService{
			expirations: []time.Time{
				time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 4, 19, 0, 0, 0, 0, time.UTC),
			},
		})

		recorder := doRequest(router, "GET", "/api/expirations?symbol=SPY&date=2024-01-10")
		require.Equal(t, 200, recorder.Code)

		var resp expirationsResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

		require.Equal(t, 3, resp.Count)

		assert.Equal(t, "2024-01-12", resp.Expirations[0].Date)
		assert.Equal(t, 2, resp.Expirations[0].DaysToExpiration)
		assert.True(t, resp.Expirations[0].ShortDated)
		assert.False(t, resp.Expirations[0].IsDefault)

		assert.Equal(t, 9, resp.Expirations[1].DaysToExpiration)
		assert.True(t, resp.Expirations[1].IsDefault)
		assert.False(t, resp.Expirations[1].ShortDated)
		assert.False(t, resp.Expirations[1].LongDated)

		assert.Equal(t, 100, resp.Expirations[2].DaysToExpiration)
		assert.True(t, resp.Expirations[2].LongDated)
	})

	t.Run("filters out same-day expirations", func(t *testing.T) {
		router := newChainRouter(&stubChainService{
			expirations: []time.Time{
				time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC),
			},
		})

		recorder := doRequest(router, "GET", "/api/expirations?symbol=SPY&date=2024-01-10")
		require.Equal(t, 200, recorder.Code)

		var resp expirationsResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

		require.Equal(t, 2, resp.Count)
		assert.Equal(t, "2024-01-12", resp.Expirations[0].Date)
		assert.Equal(t, "2024-01-19", resp.Expirations[1].Date)
		assert.True(t, resp.Expirations[1].IsDefault)
	})
}

func buildTestChainResult(spot float64, warnings ...string) *services.ChainResult {
	asOf := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	expiration := time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC)

	var contracts []models.OptionContract
	for strike := 440.0; strike <= 500.0; strike += 5 {
		contracts = append(contracts,
			models.OptionContract{
				OptionType: models.OptionTypeCall,
				Strike:     strike,
				Volume:     int64(strike * 10),
				ImpliedVol: 0.2,
			},
			models.OptionContract{
				OptionType: models.OptionTypePut,
				Strike:     strike,
				Volume:     int64(strike * 5),
				ImpliedVol: 0.25,
			},
		)
	}

	return &services.ChainResult{
		Chain: &models.OptionChain{
			Symbol:     models.StockSymbol("SPY"),
			AsOfDate:   asOf,
			Expiration: expiration,
			SpotPrice:  spot,
			Contracts:  contracts,
			DataSource: models.DataSourceFlatFiles,
		},
		Warnings: warnings,
	}
}

func TestChainHandler(t *testing.T) {
	type rangeInfo struct {
		Count int     `json:"count"`
		Min   float64 `json:"min"`
		Max   float64 `json:"max"`
	}

	type chainResponse struct {
		Symbol         string              `json:"symbol"`
		AsOfDate       string              `json:"as_of_date"`
		Expiration     string              `json:"expiration"`
		DTE            int                 `json:"days_to_expiration"`
		SpotPrice      float64             `json:"spot_price"`
		ATMStrike      float64             `json:"atm_strike"`
		ATMDistancePct float64             `json:"atm_distance_pct"`
		StrikeRange    rangeInfo           `json:"strike_range"`
		DisplayedRange rangeInfo           `json:"displayed_range"`
		DataSource     string              `json:"data_source"`
		Summary        models.ChainSummary `json:"summary"`
		Rows           []ChainRow          `json:"rows"`
		MostActive     struct {
			Calls []models.OptionContract `json:"calls"`
			Puts  []models.OptionContract `json:"puts"`
		} `json:"most_active"`
		Warnings []string `json:"warnings"`
	}

	t.Run("returns a windowed chain around the ATM strike", func(t *testing.T) {
		service := &stubChainService{result: buildTestChainResult(474.2)}
		router := newChainRouter(service)

		recorder := doRequest(router, "GET", "/api/chain?symbol=SPY&date=2024-01-10&expiration=2024-01-19&strikes=6")
		require.Equal(t, 200, recorder.Code)

		var resp chainResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

		assert.Equal(t, "SPY", resp.Symbol)
		assert.Equal(t, "2024-01-10", resp.AsOfDate)
		assert.Equal(t, "2024-01-19", resp.Expiration)
		assert.Equal(t, 9, resp.DTE)
		assert.Equal(t, 475.0, resp.ATMStrike)
		assert.Equal(t, "flatfiles", resp.DataSource)

		assert.Equal(t, 0.2, resp.ATMDistancePct)
		assert.Equal(t, rangeInfo{Count: 13, Min: 440, Max: 500}, resp.StrikeRange)
		assert.Equal(t, rangeInfo{Count: 12, Min: 445, Max: 500}, resp.DisplayedRange)

		require.Len(t, resp.Rows, 12)
		assert.Equal(t, 445.0, resp.Rows[0].Strike)
		assert.Equal(t, 500.0, resp.Rows[len(resp.Rows)-1].Strike)

		for _, row := range resp.Rows {
			assert.NotNil(t, row.Call)
			assert.NotNil(t, row.Put)
			if row.Strike == 475.0 {
				assert.True(t, row.IsATM)
			} else {
				assert.False(t, row.IsATM)
			}
		}

		assert.Len(t, resp.MostActive.Calls, 5)
		assert.Equal(t, 500.0, resp.MostActive.Calls[0].Strike)
		assert.NotNil(t, resp.Warnings)
		assert.Empty(t, resp.Warnings)
	})

	t.Run("shows all strikes when the ATM strike is too far from spot", func(t *testing.T) {
		service := &stubChainService{result: buildTestChainResult(1000)}
		router := newChainRouter(service)

		recorder := doRequest(router, "GET", "/api/chain?symbol=SPY&date=2024-01-10&expiration=2024-01-19")
		require.Equal(t, 200, recorder.Code)

		var resp chainResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

		assert.Len(t, resp.Rows, 13)
		assert.Equal(t, 50.0, resp.ATMDistancePct)
		assert.Equal(t, resp.StrikeRange, resp.DisplayedRange)
		require.NotEmpty(t, resp.Warnings)
		assert.Contains(t, resp.Warnings[0], "more than 20% from spot")
	})

	t.Run("passes builder warnings through", func(t *testing.T) {
		service := &stubChainService{result: buildTestChainResult(474.2, "no flat file published for 2024-01-10: falling back to the live snapshot")}
		router := newChainRouter(service)

		recorder := doRequest(router, "GET", "/api/chain?symbol=SPY&date=2024-01-10&expiration=2024-01-19")
		require.Equal(t, 200, recorder.Code)

		var resp chainResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], "no flat file published")
	})

	t.Run("forwards the refresh flag", func(t *testing.T) {
		service := &stubChainService{result: buildTestChainResult(474.2)}
		router := newChainRouter(service)

		recorder := doRequest(router, "GET", "/api/chain?symbol=SPY&date=2024-01-10&expiration=2024-01-19&refresh=true")
		require.Equal(t, 200, recorder.Code)
		assert.True(t, service.lastRefresh)
	})

	t.Run("requires an expiration", func(t *testing.T) {
		router := newChainRouter(&stubChainService{})

		recorder := doRequest(router, "GET", "/api/chain?symbol=SPY&date=2024-01-10")
		assert.Equal(t, 400, recorder.Code)
		assert.Equal(t, "validation", decodeError(t, recorder))
	})

	t.Run("rejects an expiration before the as-of date", func(t *testing.T) {
		router := newChainRouter(&stubChainService{})

		recorder := doRequest(router, "GET", "/api/chain?symbol=SPY&date=2024-01-10&expiration=2024-01-05")
		assert.Equal(t, 400, recorder.Code)
		assert.Equal(t, "validation", decodeError(t, recorder))
	})

	t.Run("maps build failures to 502", func(t *testing.T) {
		router := newChainRouter(&stubChainService{buildErr: errors.New("all data sources failed")})

		recorder := doRequest(router, "GET", "/api/chain?symbol=SPY&date=2024-01-10&expiration=2024-01-19")
		assert.Equal(t, 502, recorder.Code)
		assert.Equal(t, "vendor", decodeError(t, recorder))
	})
}

func TestClampStrikeWindow(t *testing.T) {
	assert.Equal(t, 10, clampStrikeWindow(0, 10))
	assert.Equal(t, 6, clampStrikeWindow(6, 10))
	assert.Equal(t, 5, clampStrikeWindow(2, 10))
	assert.Equal(t, 30, clampStrikeWindow(100, 10))
	assert.Equal(t, 5, clampStrikeWindow(0, 3))
}

func TestWindowStrikes(t *testing.T) {
	strikes := []float64{440, 445, 450, 455, 460, 465, 470, 475, 480, 485, 490, 495, 500}

	t.Run("centers on the ATM strike", func(t *testing.T) {
		window := windowStrikes(strikes, 470, 2)
		assert.Equal(t, []float64{460, 465, 470, 475, 480}, window)
	})

	t.Run("clamps at the low edge", func(t *testing.T) {
		window := windowStrikes(strikes, 445, 3)
		assert.Equal(t, []float64{440, 445, 450, 455, 460}, window)
	})

	t.Run("clamps at the high edge", func(t *testing.T) {
		window := windowStrikes(strikes, 495, 3)
		assert.Equal(t, []float64{480, 485, 490, 495, 500}, window)
	})
}
