package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/kshitijsingla/chain-viewer/src/models"
	"github.com/kshitijsingla/chain-viewer/src/utils"
)

// maxExpirations caps how many expiration dates a single listing returns.
// Weekly chains on index ETFs go out years; the UI only needs the near end.
const maxExpirations = 50

func fetchContractsPage(url, apiKey string) (*models.AggregateResult[models.PolygonContractDTO], error) {
	client := http.Client{
		Timeout: time.Duration(10) * time.Second,
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetchContractsPage: failed to create request: %w", err)
	}

	req.Header.Add("Accept", "application/json")
	q := req.URL.Query()
	q.Add("apiKey", apiKey)
	req.URL.RawQuery = q.Encode()

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetchContractsPage: failed to fetch contracts: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != 200 {
		return nil, fmt.Errorf("fetchContractsPage: received %d response", res.StatusCode)
	}

	var dto models.PolygonContractsResponse[models.PolygonContractDTO]
	if err := json.NewDecoder(res.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("fetchContractsPage: failed to decode response: %w", err)
	}

	return &models.AggregateResult[models.PolygonContractDTO]{
		QueryCount:   len(dto.Results),
		ResultsCount: len(dto.Results),
		Results:      dto.Results,
		GetNextURL: func() *string {
			return dto.NextURL
		},
	}, nil
}

func fetchSnapshotPage(url, apiKey string) (*models.AggregateResult[models.PolygonSnapshotContract], error) {
	client := http.Client{
		Timeout: time.Duration(10) * time.Second,
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetchSnapshotPage: failed to create request: %w", err)
	}

	req.Header.Add("Accept", "application/json")
	q := req.URL.Query()
	q.Add("apiKey", apiKey)
	req.URL.RawQuery = q.Encode()

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetchSnapshotPage: failed to fetch snapshot: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != 200 {
		return nil, fmt.Errorf("fetchSnapshotPage: received %d response", res.StatusCode)
	}

	var dto models.PolygonSnapshotResponse
	if err := json.NewDecoder(res.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("fetchSnapshotPage: failed to decode response: %w", err)
	}

	return &models.AggregateResult[models.PolygonSnapshotContract]{
		QueryCount:   len(dto.Results),
		ResultsCount: len(dto.Results),
		Results:      dto.Results,
		GetNextURL: func() *string {
			return dto.NextURL
		},
	}, nil
}

// ListExpirations returns the distinct expiration dates with unexpired
// contracts on the underlying, sorted ascending and capped at
// maxExpirations.
func (c *PolygonClient) ListExpirations(ctx context.Context, symbol models.StockSymbol, asOf time.Time) ([]time.Time, error) {
	tracer := otel.Tracer("PolygonClient")
	ctx, span := tracer.Start(ctx, "PolygonClient.ListExpirations")
	defer span.End()

	cacheKey := fmt.Sprintf("expirations:%s:%s", symbol, asOf.Format("2006-01-02"))
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.([]time.Time), nil
	}

	url := fmt.Sprintf("%s/v3/reference/options/contracts?underlying_ticker=%s&expiration_date.gte=%s&expired=false&limit=1000&order=asc&sort=expiration_date", c.baseURL, symbol, asOf.Format("2006-01-02"))

	result, err := utils.FetchRecursively(url, c.apiKey, fetchContractsPage)
	if err != nil {
		return nil, fmt.Errorf("PolygonClient.ListExpirations: failed to fetch contracts for %s: %w", symbol, err)
	}

	seen := make(map[string]struct{})
	var expirations []time.Time
	for _, contract := range result.Results {
		if _, ok := seen[contract.ExpirationDate]; ok {
			continue
		}

		seen[contract.ExpirationDate] = struct{}{}

		expiration, err := time.Parse(utils.DateLayout, contract.ExpirationDate)
		if err != nil {
			log.WithContext(ctx).Warnf("PolygonClient.ListExpirations: skipping unparseable expiration %q: %v", contract.ExpirationDate, err)
			continue
		}

		expirations = append(expirations, expiration)
	}

	sort.Slice(expirations, func(i, j int) bool {
		return expirations[i].Before(expirations[j])
	})

	if len(expirations) > maxExpirations {
		expirations = expirations[:maxExpirations]
	}

	c.cache.Set(cacheKey, expirations, cache.DefaultExpiration)

	return expirations, nil
}

// ListContracts returns the reference listing for one expiration. Polygon
// hides contracts past expiry unless expired=true is set, so the flag
// follows the requested date.
func (c *PolygonClient) ListContracts(ctx context.Context, symbol models.StockSymbol, expiration time.Time) ([]models.PolygonContractDTO, error) {
	tracer := otel.Tracer("PolygonClient")
	ctx, span := tracer.Start(ctx, "PolygonClient.ListContracts")
	defer span.End()

	cacheKey := fmt.Sprintf("contracts:%s:%s", symbol, expiration.Format("2006-01-02"))
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.([]models.PolygonContractDTO), nil
	}

	expired := expiration.Before(time.Now().UTC().Truncate(24 * time.Hour))

	url := fmt.Sprintf("%s/v3/reference/options/contracts?underlying_ticker=%s&expiration_date=%s&expired=%t&limit=1000&order=asc&sort=strike_price", c.baseURL, symbol, expiration.Format("2006-01-02"), expired)

	result, err := utils.FetchRecursively(url, c.apiKey, fetchContractsPage)
	if err != nil {
		return nil, fmt.Errorf("PolygonClient.ListContracts: failed to fetch contracts for %s %s: %w", symbol, expiration.Format("2006-01-02"), err)
	}

	c.cache.Set(cacheKey, result.Results, cache.DefaultExpiration)

	return result.Results, nil
}

// GetOptionsSnapshot returns the live option snapshot for one expiration.
// The endpoint reflects the current market: for a historical as-of date it
// is only a fallback, and the caller is expected to surface that.
func (c *PolygonClient) GetOptionsSnapshot(ctx context.Context, symbol models.StockSymbol, expiration time.Time) ([]models.PolygonSnapshotContract, error) {
	tracer := otel.Tracer("PolygonClient")
	ctx, span := tracer.Start(ctx, "PolygonClient.GetOptionsSnapshot")
	defer span.End()

	cacheKey := fmt.Sprintf("snapshot:%s:%s", symbol, expiration.Format("2006-01-02"))
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.([]models.PolygonSnapshotContract), nil
	}

	url := fmt.Sprintf("%s/v3/snapshot/options/%s?expiration_date=%s&limit=250&order=asc&sort=strike_price", c.baseURL, symbol, expiration.Format("2006-01-02"))

	result, err := utils.FetchRecursively(url, c.apiKey, fetchSnapshotPage)
	if err != nil {
		return nil, fmt.Errorf("PolygonClient.GetOptionsSnapshot: failed to fetch snapshot for %s %s: %w", symbol, expiration.Format("2006-01-02"), err)
	}

	c.cache.Set(cacheKey, result.Results, cache.DefaultExpiration)

	return result.Results, nil
}
