package chainapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/schema"

	"github.com/kshitijsingla/chain-viewer/src/models"
	"github.com/kshitijsingla/chain-viewer/src/utils"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}

func validateSymbol(symbol string) (models.StockSymbol, error) {
	trimmed := strings.TrimSpace(symbol)
	if trimmed == "" {
		return "", fmt.Errorf("symbol is required")
	}

	if len(trimmed) > 10 || strings.ContainsAny(trimmed, " \t") {
		return "", fmt.Errorf("invalid symbol %q", symbol)
	}

	return models.NewStockSymbol(trimmed), nil
}

// resolveAsOfDate parses an optional YYYY-MM-DD date, defaulting to the
// previous business day. Future dates are rejected; weekends and holidays
// are allowed and resolve through the data-source fallbacks.
func resolveAsOfDate(date string) (time.Time, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if date == "" {
		return utils.PreviousBusinessDay(today), nil
	}

	asOf, err := utils.ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be formatted %s: %w", utils.DateLayout, err)
	}

	if asOf.After(today) {
		return time.Time{}, fmt.Errorf("date %s is in the future", date)
	}

	return asOf, nil
}
