package chainapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kshitijsingla/chain-viewer/src/api"
	"github.com/kshitijsingla/chain-viewer/src/models"
)

type ExpirationsRequest struct {
	api.BaseRequest
	Symbol string `schema:"symbol"`
	Date   string `schema:"date"`

	StockSymbol models.StockSymbol `schema:"-"`
	AsOf        time.Time          `schema:"-"`
}

func (req *ExpirationsRequest) ParseHTTPRequest(r *http.Request) error {
	if err := queryDecoder.Decode(req, r.URL.Query()); err != nil {
		return fmt.Errorf("ExpirationsRequest: ParseHTTPRequest: decode: %w", err)
	}

	return nil
}

func (req *ExpirationsRequest) Validate(r *http.Request) error {
	symbol, err := validateSymbol(req.Symbol)
	if err != nil {
		return fmt.Errorf("ExpirationsRequest: Validate: %w", err)
	}

	asOf, err := resolveAsOfDate(req.Date)
	if err != nil {
		return fmt.Errorf("ExpirationsRequest: Validate: %w", err)
	}

	req.StockSymbol = symbol
	req.AsOf = asOf

	return nil
}
