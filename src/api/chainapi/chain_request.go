package chainapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kshitijsingla/chain-viewer/src/api"
	"github.com/kshitijsingla/chain-viewer/src/models"
	"github.com/kshitijsingla/chain-viewer/src/utils"
)

type ChainRequest struct {
	api.BaseRequest
	Symbol     string `schema:"symbol"`
	Date       string `schema:"date"`
	Expiration string `schema:"expiration"`
	Strikes    int    `schema:"strikes"`
	Refresh    bool   `schema:"refresh"`

	StockSymbol models.StockSymbol `schema:"-"`
	AsOf        time.Time          `schema:"-"`
	Expiry      time.Time          `schema:"-"`
}

func (req *ChainRequest) ParseHTTPRequest(r *http.Request) error {
	if err := queryDecoder.Decode(req, r.URL.Query()); err != nil {
		return fmt.Errorf("ChainRequest: ParseHTTPRequest: decode: %w", err)
	}

	return nil
}

func (req *ChainRequest) Validate(r *http.Request) error {
	symbol, err := validateSymbol(req.Symbol)
	if err != nil {
		return fmt.Errorf("ChainRequest: Validate: %w", err)
	}

	asOf, err := resolveAsOfDate(req.Date)
	if err != nil {
		return fmt.Errorf("ChainRequest: Validate: %w", err)
	}

	if req.Expiration == "" {
		return fmt.Errorf("ChainRequest: Validate: expiration is required")
	}

	expiry, err := utils.ParseDate(req.Expiration)
	if err != nil {
		return fmt.Errorf("ChainRequest: Validate: expiration must be formatted %s: %w", utils.DateLayout, err)
	}

	if expiry.Before(asOf) {
		return fmt.Errorf("ChainRequest: Validate: expiration %s is before the as-of date %s", req.Expiration, asOf.Format(utils.DateLayout))
	}

	if req.Strikes < 0 {
		return fmt.Errorf("ChainRequest: Validate: strikes must be positive, got %d", req.Strikes)
	}

	req.StockSymbol = symbol
	req.AsOf = asOf
	req.Expiry = expiry

	return nil
}
