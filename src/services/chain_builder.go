package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/kshitijsingla/chain-viewer/src/models"
	"github.com/kshitijsingla/chain-viewer/src/pricing"
	"github.com/kshitijsingla/chain-viewer/src/utils"
)

// greeksMoneynessLimit bounds how far from spot a strike can sit and still
// get Greeks. Beyond it the assumed volatilities are too crude to price on.
const greeksMoneynessLimit = 0.20

type marketDataProvider interface {
	SpotPrice(ctx context.Context, symbol models.StockSymbol, date time.Time) (float64, string, error)
	GetOptionsSnapshot(ctx context.Context, symbol models.StockSymbol, expiration time.Time) ([]models.PolygonSnapshotContract, error)
	ListContracts(ctx context.Context, symbol models.StockSymbol, expiration time.Time) ([]models.PolygonContractDTO, error)
	ListExpirations(ctx context.Context, symbol models.StockSymbol, asOf time.Time) ([]time.Time, error)
}

type flatFileProvider interface {
	Enabled() bool
	FetchDayAggs(ctx context.Context, date time.Time) ([]*models.FlatFileAgg, error)
}

// ChainResult is a built chain plus the data-quality notes accumulated
// while building it.
type ChainResult struct {
	Chain    *models.OptionChain `json:"chain"`
	Warnings []string            `json:"warnings"`
}

// ChainBuilder assembles option chains from the cheapest usable source:
// the daily flat file first, the live snapshot second, and the bare
// contract listing last.
type ChainBuilder struct {
	polygon   marketDataProvider
	flatFiles flatFileProvider
	config    *models.ViewerConfigYAML
	cache     *cache.Cache
}

func NewChainBuilder(polygonClient *PolygonClient, flatFiles *FlatFileStore, config *models.ViewerConfigYAML) *ChainBuilder {
	return &ChainBuilder{
		polygon:   polygonClient,
		flatFiles: flatFiles,
		config:    config,
		cache:     cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (b *ChainBuilder) Config() *models.ViewerConfigYAML {
	return b.config
}

// Underlying resolves the spot price for a symbol on a date.
func (b *ChainBuilder) Underlying(ctx context.Context, symbol models.StockSymbol, asOf time.Time) (float64, string, error) {
	return b.polygon.SpotPrice(ctx, symbol, asOf)
}

// ListExpirations prefers the flat file already on hand for the as-of date
// and falls back to the reference endpoint.
func (b *ChainBuilder) ListExpirations(ctx context.Context, symbol models.StockSymbol, asOf time.Time) ([]time.Time, error) {
	tracer := otel.Tracer("ChainBuilder")
	ctx, span := tracer.Start(ctx, "ChainBuilder.ListExpirations")
	defer span.End()

	if b.flatFiles != nil && b.flatFiles.Enabled() {
		rows, err := b.flatFiles.FetchDayAggs(ctx, asOf)
		if err != nil {
			log.WithContext(ctx).Warnf("ChainBuilder.ListExpirations: flat file unavailable, using reference endpoint: %v", err)
		} else if expirations := DistinctExpirations(rows, symbol, asOf); len(expirations) > 0 {
			return expirations, nil
		}
	}

	expirations, err := b.polygon.ListExpirations(ctx, symbol, asOf)
	if err != nil {
		return nil, fmt.Errorf("ChainBuilder.ListExpirations: %w", err)
	}

	return expirations, nil
}

// BuildChain assembles the chain for one underlying and expiration as of a
// date. Missing data degrades through the fallback sources and is reported
// in the result's warnings rather than failing the build; only a vendor
// failure on every source is an error.
func (b *ChainBuilder) BuildChain(ctx context.Context, symbol models.StockSymbol, expiration, asOf time.Time, refresh bool) (*ChainResult, error) {
	tracer := otel.Tracer("ChainBuilder")
	ctx, span := tracer.Start(ctx, "ChainBuilder.BuildChain")
	defer span.End()

	cacheKey := fmt.Sprintf("chain:%s:%s:%s", symbol, expiration.Format(utils.DateLayout), asOf.Format(utils.DateLayout))
	if !refresh {
		if cached, found := b.cache.Get(cacheKey); found {
			return cached.(*ChainResult), nil
		}
	}

	spot, spotSource, err := b.polygon.SpotPrice(ctx, symbol, asOf)
	if err != nil {
		return nil, fmt.Errorf("ChainBuilder.BuildChain: failed to resolve spot price: %w", err)
	}

	var warnings []string
	if spotSource == SpotSourcePrevClose {
		warnings = append(warnings, fmt.Sprintf("no close for %s on %s: spot price is the previous close", symbol, asOf.Format(utils.DateLayout)))
	}

	var contracts []models.OptionContract
	source := models.DataSourceFlatFiles

	if b.flatFiles != nil && b.flatFiles.Enabled() {
		rows, err := b.flatFiles.FetchDayAggs(ctx, asOf)
		switch {
		case err == nil:
			matched := FilterContractRows(rows, symbol, expiration)
			if len(matched) == 0 {
				warnings = append(warnings, fmt.Sprintf("flat file for %s has no %s contracts expiring %s", asOf.Format(utils.DateLayout), symbol, expiration.Format(utils.DateLayout)))
			} else {
				contracts = b.contractsFromFlatFiles(ctx, matched, symbol, expiration, asOf, spot)
			}
		case errors.Is(err, models.ErrNotInSubscription):
			warnings = append(warnings, "flat files are not in the current subscription: falling back to the live snapshot")
			log.WithContext(ctx).Warnf("ChainBuilder.BuildChain: %v", err)
		case errors.Is(err, models.ErrNoData):
			warnings = append(warnings, fmt.Sprintf("no flat file published for %s: falling back to the live snapshot", asOf.Format(utils.DateLayout)))
		default:
			warnings = append(warnings, "flat file download failed: falling back to the live snapshot")
			log.WithContext(ctx).Errorf("ChainBuilder.BuildChain: %v", err)
		}
	}

	if len(contracts) == 0 {
		snapshots, err := b.polygon.GetOptionsSnapshot(ctx, symbol, expiration)
		if err != nil {
			warnings = append(warnings, "live snapshot unavailable: building a skeleton chain from the contract listing")
			log.WithContext(ctx).Errorf("ChainBuilder.BuildChain: snapshot fetch failed: %v", err)
		} else if len(snapshots) > 0 {
			contracts = b.contractsFromSnapshot(snapshots, symbol, expiration, asOf, spot)
			source = models.DataSourceRestAPI
			if utils.DaysBetween(asOf, time.Now().UTC()) > 0 {
				warnings = append(warnings, fmt.Sprintf("snapshot data reflects the current market, not %s", asOf.Format(utils.DateLayout)))
			}
		}
	}

	if len(contracts) == 0 {
		refs, err := b.polygon.ListContracts(ctx, symbol, expiration)
		if err != nil && !errors.Is(err, models.ErrNoData) {
			return nil, fmt.Errorf("ChainBuilder.BuildChain: all data sources failed for %s %s: %w", symbol, expiration.Format(utils.DateLayout), err)
		}

		if len(refs) == 0 {
			warnings = append(warnings, fmt.Sprintf("no contracts listed for %s expiring %s", symbol, expiration.Format(utils.DateLayout)))
		} else {
			contracts = skeletonContracts(refs, symbol, expiration)
			warnings = append(warnings, "no market data available: showing the contract listing without quotes")
		}

		source = models.DataSourceSkeleton
	}

	sort.Slice(contracts, func(i, j int) bool {
		if contracts[i].Strike != contracts[j].Strike {
			return contracts[i].Strike < contracts[j].Strike
		}

		return contracts[i].OptionType < contracts[j].OptionType
	})

	result := &ChainResult{
		Chain: &models.OptionChain{
			Symbol:     symbol,
			AsOfDate:   asOf,
			Expiration: expiration,
			SpotPrice:  spot,
			Contracts:  contracts,
			DataSource: source,
		},
		Warnings: warnings,
	}

	b.cache.Set(cacheKey, result, cache.DefaultExpiration)

	return result, nil
}

// contractsFromFlatFiles prices a chain off daily aggregate rows. The file
// carries last/volume only, so quotes, open interest and volatility are
// estimated.
func (b *ChainBuilder) contractsFromFlatFiles(ctx context.Context, rows []*models.FlatFileAgg, symbol models.StockSymbol, expiration, asOf time.Time, spot float64) []models.OptionContract {
	t := yearFraction(asOf, expiration)

	var contracts []models.OptionContract
	for _, row := range rows {
		components, err := models.NewOptionSymbolComponents(models.OptionSymbol(row.Ticker))
		if err != nil {
			log.WithContext(ctx).Warnf("ChainBuilder.contractsFromFlatFiles: skipping %s: %v", row.Ticker, err)
			continue
		}

		bid, ask := pricing.EstimateBidAsk(row.Close, row.Volume, b.config)

		contract := models.OptionContract{
			Symbol:           components.Symbol,
			UnderlyingSymbol: symbol,
			OptionType:       components.OptionType,
			Strike:           components.StrikePrice,
			Expiration:       components.Expiration,
			ExpirationDate:   components.Expiration.Format(utils.DateLayout),
			Bid:              bid,
			Ask:              ask,
			Last:             row.Close,
			Volume:           row.Volume,
			OpenInterest:     pricing.EstimateOpenInterest(row.Open),
			High:             row.High,
			Low:              row.Low,
			DataSource:       models.DataSourceFlatFiles,
		}

		b.attachGreeks(&contract, spot, t, pricing.EstimateIV(contract.Strike, spot))

		contracts = append(contracts, contract)
	}

	return contracts
}

// contractsFromSnapshot converts live snapshot rows, preferring vendor
// quotes and volatility and estimating only what the vendor omits.
func (b *ChainBuilder) contractsFromSnapshot(snapshots []models.PolygonSnapshotContract, symbol models.StockSymbol, expiration, asOf time.Time, spot float64) []models.OptionContract {
	t := yearFraction(asOf, expiration)

	var contracts []models.OptionContract
	for _, snapshot := range snapshots {
		if snapshot.Details.ExpirationDate != expiration.Format(utils.DateLayout) {
			continue
		}

		bid := snapshot.LastQuote.Bid
		ask := snapshot.LastQuote.Ask

		last := snapshot.Day.Close
		if last == 0 {
			last = snapshot.LastTrade.Price
		}

		if bid == 0 && ask == 0 && last > 0 {
			bid, ask = pricing.EstimateBidAsk(last, int64(snapshot.Day.Volume), b.config)
		}

		contract := models.OptionContract{
			Symbol:           snapshot.Details.Ticker,
			UnderlyingSymbol: symbol,
			OptionType:       snapshot.Details.ContractType,
			Strike:           snapshot.Details.StrikePrice,
			Expiration:       expiration,
			ExpirationDate:   snapshot.Details.ExpirationDate,
			Bid:              bid,
			Ask:              ask,
			Last:             last,
			Volume:           int64(snapshot.Day.Volume),
			OpenInterest:     int64(snapshot.OpenInterest),
			High:             snapshot.Day.High,
			Low:              snapshot.Day.Low,
			VWAP:             snapshot.Day.VWAP,
			DataSource:       models.DataSourceRestAPI,
		}

		b.attachGreeks(&contract, spot, t, b.resolveSnapshotIV(&contract, spot, t, snapshot.ImpliedVol))

		contracts = append(contracts, contract)
	}

	return contracts
}

func skeletonContracts(refs []models.PolygonContractDTO, symbol models.StockSymbol, expiration time.Time) []models.OptionContract {
	var contracts []models.OptionContract
	for _, ref := range refs {
		contracts = append(contracts, models.OptionContract{
			Symbol:           ref.Ticker,
			UnderlyingSymbol: symbol,
			OptionType:       ref.ContractType,
			Strike:           ref.StrikePrice,
			Expiration:       expiration,
			ExpirationDate:   ref.ExpirationDate,
			DataSource:       models.DataSourceSkeleton,
		})
	}

	return contracts
}

// resolveSnapshotIV picks the vendor volatility when present, solves from
// the quote midpoint when not, and falls back to the assumed bands when the
// solver has nothing to work with.
func (b *ChainBuilder) resolveSnapshotIV(contract *models.OptionContract, spot, t, vendorIV float64) float64 {
	if vendorIV > 0 {
		return vendorIV
	}

	if mid := contract.Mid(); mid > 0 && t > 0 {
		iv, err := pricing.ImpliedVolatility(mid, spot, contract.Strike, t, b.config.RiskFreeRate, contract.OptionType)
		if err == nil {
			return iv
		}
	}

	return pricing.EstimateIV(contract.Strike, spot)
}

// attachGreeks records the volatility and, for strikes within the
// moneyness limit, the Greeks computed from it.
func (b *ChainBuilder) attachGreeks(contract *models.OptionContract, spot, t, iv float64) {
	contract.ImpliedVol = iv

	if spot <= 0 || iv <= 0 || t <= 0 {
		return
	}

	if math.Abs(contract.Strike-spot)/spot > greeksMoneynessLimit {
		return
	}

	greeks := pricing.ComputeGreeks(spot, contract.Strike, t, b.config.RiskFreeRate, iv, contract.OptionType)
	contract.Delta = greeks.Delta
	contract.Gamma = greeks.Gamma
	contract.Theta = greeks.Theta
	contract.Vega = greeks.Vega
	contract.Rho = greeks.Rho
	contract.HasGreeks = true
}

// Summarize aggregates volume, open interest and volatility across a chain
// and derives the put/call sentiment read.
func Summarize(chain *models.OptionChain) models.ChainSummary {
	summary := models.ChainSummary{
		Contracts: len(chain.Contracts),
		Sentiment: models.SentimentUnknown,
	}

	var callIVs, putIVs []float64
	for _, contract := range chain.Contracts {
		switch contract.OptionType {
		case models.OptionTypeCall:
			summary.TotalCallVolume += contract.Volume
			summary.TotalCallOI += contract.OpenInterest
			if contract.ImpliedVol > 0 {
				callIVs = append(callIVs, contract.ImpliedVol)
			}
		case models.OptionTypePut:
			summary.TotalPutVolume += contract.Volume
			summary.TotalPutOI += contract.OpenInterest
			if contract.ImpliedVol > 0 {
				putIVs = append(putIVs, contract.ImpliedVol)
			}
		}
	}

	var ratios []float64
	if summary.TotalCallVolume > 0 {
		summary.PutCallVolumeRatio = round2(float64(summary.TotalPutVolume) / float64(summary.TotalCallVolume))
		ratios = append(ratios, summary.PutCallVolumeRatio)
	}

	if summary.TotalCallOI > 0 {
		summary.PutCallOIRatio = round2(float64(summary.TotalPutOI) / float64(summary.TotalCallOI))
		ratios = append(ratios, summary.PutCallOIRatio)
	}

	summary.AvgCallIV = meanOrZero(callIVs)
	summary.AvgPutIV = meanOrZero(putIVs)

	if len(ratios) > 0 {
		average, err := stats.Mean(ratios)
		if err == nil {
			summary.Sentiment = models.SentimentFromPutCallRatio(average)
		}
	}

	return summary
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}

	return math.Round(mean*10000) / 10000
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func yearFraction(from, to time.Time) float64 {
	return float64(utils.DaysBetween(from, to)) / 365.0
}
