package services

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gocarina/gocsv"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/kshitijsingla/chain-viewer/src/models"
	"github.com/kshitijsingla/chain-viewer/src/utils"
)

const (
	flatFileEndpoint = "https://files.polygon.io"
	flatFileBucket   = "flatfiles"
	flatFileRegion   = "us-east-1"
)

// FlatFileStore reads the vendor's daily OPRA aggregate files over their
// S3-compatible endpoint. A nil store means flat file credentials were not
// configured and callers should go straight to the REST fallbacks.
type FlatFileStore struct {
	client *s3.Client
	cache  *cache.Cache
}

func NewFlatFileStore(ctx context.Context, accessKeyID, secretAccessKey string) (*FlatFileStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(flatFileRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("NewFlatFileStore: failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(flatFileEndpoint)
		o.UsePathStyle = true
	})

	return &FlatFileStore{
		client: client,
		cache:  cache.New(30*time.Minute, time.Hour),
	}, nil
}

func (s *FlatFileStore) Enabled() bool {
	return s != nil
}

// DayAggsKey returns the object key of the day-aggregates file for a date.
func DayAggsKey(date time.Time) string {
	return fmt.Sprintf("us_options_opra/day_aggs_v1/%04d/%02d/%s.csv.gz", date.Year(), int(date.Month()), date.Format(utils.DateLayout))
}

// FetchDayAggs downloads and parses the day-aggregates file for a date.
// Returns ErrNoData when the file does not exist (weekend, holiday, date
// too recent) and ErrNotInSubscription when the vendor denies access.
func (s *FlatFileStore) FetchDayAggs(ctx context.Context, date time.Time) ([]*models.FlatFileAgg, error) {
	tracer := otel.Tracer("FlatFileStore")
	ctx, span := tracer.Start(ctx, "FlatFileStore.FetchDayAggs")
	defer span.End()

	key := DayAggsKey(date)
	if cached, found := s.cache.Get(key); found {
		return cached.([]*models.FlatFileAgg), nil
	}

	log.WithContext(ctx).Infof("FlatFileStore.FetchDayAggs: downloading %s", key)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(flatFileBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("FlatFileStore.FetchDayAggs: no file for %s: %w", date.Format(utils.DateLayout), models.ErrNoData)
		}

		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NoSuchKey":
				return nil, fmt.Errorf("FlatFileStore.FetchDayAggs: no file for %s: %w", date.Format(utils.DateLayout), models.ErrNoData)
			case "AccessDenied", "Forbidden":
				return nil, fmt.Errorf("FlatFileStore.FetchDayAggs: %s: %w", apiErr.ErrorMessage(), models.ErrNotInSubscription)
			}
		}

		return nil, fmt.Errorf("FlatFileStore.FetchDayAggs: failed to fetch %s: %w", key, err)
	}

	defer out.Body.Close()

	gz, err := gzip.NewReader(out.Body)
	if err != nil {
		return nil, fmt.Errorf("FlatFileStore.FetchDayAggs: failed to open gzip stream for %s: %w", key, err)
	}

	defer gz.Close()

	var rows []*models.FlatFileAgg
	if err := gocsv.Unmarshal(gz, &rows); err != nil {
		return nil, fmt.Errorf("FlatFileStore.FetchDayAggs: failed to parse csv for %s: %w", key, err)
	}

	log.WithContext(ctx).Infof("FlatFileStore.FetchDayAggs: parsed %d rows from %s", len(rows), key)

	s.cache.Set(key, rows, cache.DefaultExpiration)

	return rows, nil
}

// FilterContractRows keeps the rows belonging to one underlying and
// expiration.
func FilterContractRows(rows []*models.FlatFileAgg, symbol models.StockSymbol, expiration time.Time) []*models.FlatFileAgg {
	var matched []*models.FlatFileAgg
	for _, row := range rows {
		if row.MatchesContractPrefix(symbol, expiration) {
			matched = append(matched, row)
		}
	}

	return matched
}

// DistinctExpirations extracts the expiration dates present for an
// underlying in a day-aggregates file, sorted ascending, dropping dates
// before asOf and capping the list at maxExpirations.
func DistinctExpirations(rows []*models.FlatFileAgg, symbol models.StockSymbol, asOf time.Time) []time.Time {
	cutoff := asOf.Truncate(24 * time.Hour)

	seen := make(map[string]struct{})
	var expirations []time.Time
	for _, row := range rows {
		if !row.MatchesUnderlying(symbol) {
			continue
		}

		components, err := models.NewOptionSymbolComponents(models.OptionSymbol(row.Ticker))
		if err != nil {
			continue
		}

		key := components.Expiration.Format(utils.DateLayout)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		if components.Expiration.Before(cutoff) {
			continue
		}

		expirations = append(expirations, components.Expiration)
	}

	sort.Slice(expirations, func(i, j int) bool {
		return expirations[i].Before(expirations[j])
	})

	if len(expirations) > maxExpirations {
		expirations = expirations[:maxExpirations]
	}

	return expirations
}
