package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kshitijsingla/chain-viewer/src/models"
)

func TestDayAggsKey(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "us_options_opra/day_aggs_v1/2024/01/2024-01-10.csv.gz", DayAggsKey(date))

	december := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "us_options_opra/day_aggs_v1/2023/12/2023-12-29.csv.gz", DayAggsKey(december))
}

func TestFlatFileStoreEnabled(t *testing.T) {
	var store *FlatFileStore
	assert.False(t, store.Enabled())
}

func TestFilterContractRows(t *testing.T) {
	symbol := models.StockSymbol("SPY")
	expiration := time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC)

	rows := []*models.FlatFileAgg{
		{Ticker: "O:SPY240119C00470000"},
		{Ticker: "O:SPY240119P00470000"},
		{Ticker: "O:SPY240216C00470000"},
		{Ticker: "O:SPYG240119C00470000"},
		{Ticker: "O:AAPL240119C00190000"},
	}

	matched := FilterContractRows(rows, symbol, expiration)
	require.Len(t, matched, 2)
	assert.Equal(t, "O:SPY240119C00470000", matched[0].Ticker)
	assert.Equal(t, "O:SPY240119P00470000", matched[1].Ticker)
}

func TestDistinctExpirations(t *testing.T) {
	symbol := models.StockSymbol("SPY")
	asOf := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	rows := []*models.FlatFileAgg{
		{Ticker: "O:SPY240119C00470000"},
		{Ticker: "O:SPY240119P00480000"},
		{Ticker: "O:SPY240112C00470000"},
		{Ticker: "O:SPY240105C00470000"},
		{Ticker: "O:SPYG240126C00470000"},
		{Ticker: "not-an-option"},
	}

	t.Run("returns sorted future expirations for the underlying", func(t *testing.T) {
		expirations := DistinctExpirations(rows, symbol, asOf)
		require.Len(t, expirations, 2)
		assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), expirations[0])
		assert.Equal(t, time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC), expirations[1])
	})

	t.Run("keeps the as-of date itself", func(t *testing.T) {
		expirations := DistinctExpirations(rows, symbol, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC))
		require.Len(t, expirations, 2)
		assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), expirations[0])
	})

	t.Run("returns nothing for an unlisted underlying", func(t *testing.T) {
		expirations := DistinctExpirations(rows, models.StockSymbol("QQQ"), asOf)
		assert.Empty(t, expirations)
	})
}
