package spreadapi

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kshitijsingla/chain-viewer/src/models"
)

func newSpreadRouter() *mux.Router {
	router := mux.NewRouter()
	SetupHandler(router.PathPrefix("/api/spread").Subrouter(), &SpreadRequestExecutor{})
	return router
}

func postSpread(router *mux.Router, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/spread", strings.NewReader(body)))
	return recorder
}

func TestSpreadHandler(t *testing.T) {
	router := newSpreadRouter()

	t.Run("analyzes a bear call spread", func(t *testing.T) {
		recorder := postSpread(router, `{
			"sell": {"option_type": "call", "strike": 480, "premium": 2.10},
			"buy":  {"option_type": "call", "strike": 485, "premium": 0.80},
			"contracts": 1
		}`)
		require.Equal(t, 200, recorder.Code)

		var resp models.CreditSpreadAnalysis
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

		assert.Equal(t, "Bear Call Spread", resp.Name)
		assert.InDelta(t, 1.30, resp.NetCredit, 1e-9)
		assert.Equal(t, 5.0, resp.Width)
		assert.InDelta(t, 130.0, resp.MaxProfit, 1e-9)
		assert.InDelta(t, 370.0, resp.MaxLoss, 1e-9)
		assert.InDelta(t, 481.30, resp.Breakeven, 1e-9)
		require.Len(t, resp.PnL, 100)
		assert.InDelta(t, 130.0, resp.PnL[0].Profit, 1e-9)
		assert.InDelta(t, -370.0, resp.PnL[len(resp.PnL)-1].Profit, 1e-9)
	})

	t.Run("defaults to one contract", func(t *testing.T) {
		recorder := postSpread(router, `{
			"sell": {"option_type": "put", "strike": 470, "premium": 1.80},
			"buy":  {"option_type": "put", "strike": 465, "premium": 0.60}
		}`)
		require.Equal(t, 200, recorder.Code)

		var resp models.CreditSpreadAnalysis
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

		assert.Equal(t, "Bull Put Spread", resp.Name)
		assert.InDelta(t, 120.0, resp.MaxProfit, 1e-9)
		assert.InDelta(t, 468.80, resp.Breakeven, 1e-9)
	})

	t.Run("rejects a net debit", func(t *testing.T) {
		recorder := postSpread(router, `{
			"sell": {"option_type": "call", "strike": 480, "premium": 0.50},
			"buy":  {"option_type": "call", "strike": 485, "premium": 0.80}
		}`)
		assert.Equal(t, 400, recorder.Code)

		var resp struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, "validation", resp.Type)
	})

	t.Run("rejects mixed leg types", func(t *testing.T) {
		recorder := postSpread(router, `{
			"sell": {"option_type": "call", "strike": 480, "premium": 2.10},
			"buy":  {"option_type": "put", "strike": 470, "premium": 0.80}
		}`)
		assert.Equal(t, 400, recorder.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		recorder := postSpread(router, `{"sell": `)
		assert.Equal(t, 400, recorder.Code)

		var resp struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, "parser", resp.Type)
	})

	t.Run("rejects non-POST methods", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/spread", nil))
		assert.Equal(t, 405, recorder.Code)
	})
}
