package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	polygon "github.com/polygon-io/client-go/rest"
	polygonmodels "github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/kshitijsingla/chain-viewer/src/models"
)

const (
	SpotSourceClose     = "close"
	SpotSourcePrevClose = "prev_close"
)

// PolygonClient wraps the official REST client for stock prices and adds
// hand-rolled fetchers for the reference and snapshot endpoints the chain
// builder needs raw control over. Results are held in a short TTL cache.
type PolygonClient struct {
	client  *polygon.Client
	apiKey  string
	baseURL string
	cache   *cache.Cache
}

func NewPolygonClient(apiKey string) *PolygonClient {
	return &PolygonClient{
		client:  polygon.New(apiKey),
		apiKey:  apiKey,
		baseURL: "https://api.polygon.io",
		cache:   cache.New(5*time.Minute, 10*time.Minute),
	}
}

// GetStockPrice returns the daily close for the symbol on the given date.
func (c *PolygonClient) GetStockPrice(ctx context.Context, symbol models.StockSymbol, date time.Time) (float64, error) {
	tracer := otel.Tracer("PolygonClient")
	ctx, span := tracer.Start(ctx, "PolygonClient.GetStockPrice")
	defer span.End()

	cacheKey := fmt.Sprintf("stock:%s:%s", symbol, date.Format("2006-01-02"))
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(float64), nil
	}

	params := polygonmodels.ListAggsParams{
		Ticker:     symbol.String(),
		Multiplier: 1,
		Timespan:   polygonmodels.Day,
		From:       polygonmodels.Millis(date),
		To:         polygonmodels.Millis(date),
	}.WithOrder(polygonmodels.Asc).WithAdjusted(true)

	iter := c.client.ListAggs(ctx, params)

	var closePrice float64
	var found bool
	for iter.Next() {
		closePrice = iter.Item().Close
		found = true
	}

	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("PolygonClient.GetStockPrice: failed to fetch day aggregate for %s: %w", symbol, err)
	}

	if !found {
		return 0, fmt.Errorf("PolygonClient.GetStockPrice: %s on %s: %w", symbol, date.Format("2006-01-02"), models.ErrNoData)
	}

	c.cache.Set(cacheKey, closePrice, cache.DefaultExpiration)

	return closePrice, nil
}

// GetPreviousClose returns the most recent close relative to now.
func (c *PolygonClient) GetPreviousClose(ctx context.Context, symbol models.StockSymbol) (float64, error) {
	tracer := otel.Tracer("PolygonClient")
	ctx, span := tracer.Start(ctx, "PolygonClient.GetPreviousClose")
	defer span.End()

	params := polygonmodels.GetPreviousCloseAggParams{
		Ticker: symbol.String(),
	}.WithAdjusted(true)

	resp, err := c.client.GetPreviousCloseAgg(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("PolygonClient.GetPreviousClose: failed to fetch previous close for %s: %w", symbol, err)
	}

	if len(resp.Results) == 0 {
		return 0, fmt.Errorf("PolygonClient.GetPreviousClose: %s: %w", symbol, models.ErrNoData)
	}

	return resp.Results[len(resp.Results)-1].Close, nil
}

// SpotPrice resolves the underlying price for a date, falling back to the
// previous close when the date itself has no bar (holiday, very recent
// date before the daily file lands).
func (c *PolygonClient) SpotPrice(ctx context.Context, symbol models.StockSymbol, date time.Time) (float64, string, error) {
	price, err := c.GetStockPrice(ctx, symbol, date)
	if err == nil {
		return price, SpotSourceClose, nil
	}

	if !errors.Is(err, models.ErrNoData) {
		return 0, "", fmt.Errorf("PolygonClient.SpotPrice: %w", err)
	}

	log.WithContext(ctx).Warnf("PolygonClient.SpotPrice: no close for %s on %s, falling back to previous close", symbol, date.Format("2006-01-02"))

	price, err = c.GetPreviousClose(ctx, symbol)
	if err != nil {
		return 0, "", fmt.Errorf("PolygonClient.SpotPrice: %w", err)
	}

	return price, SpotSourcePrevClose, nil
}
