package utils

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kshitijsingla/chain-viewer/src/models"
)

// FetchRecursively pulls every page of a paginated vendor endpoint,
// following next_url links with a short pause between pages. Failed
// rounds are retried on an exponential backoff schedule until the
// schedule is exhausted.
func FetchRecursively[T any](url, apiKey string, fetchDataFn models.FetchDataFunc[T]) (*models.AggregateResult[T], error) {
	backOff := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second, 64 * time.Second, 128 * time.Second}

	var aggregateResult models.AggregateResult[T]
	var lastErr error

	for attempt := 0; attempt <= len(backOff); attempt++ {
		if attempt > 0 {
			log.Warnf("FetchRecursively: backoff %v", backOff[attempt-1])
			time.Sleep(backOff[attempt-1])
		}

		aggregateResult = models.AggregateResult[T]{}
		pageURL := url
		lastErr = nil

		for {
			resp, err := fetchDataFn(pageURL, apiKey)
			if err != nil {
				lastErr = fmt.Errorf("FetchRecursively: failed to fetch page: %w", err)
				log.Errorf("%v", lastErr)
				break
			}

			aggregateResult.QueryCount += resp.QueryCount
			aggregateResult.ResultsCount += resp.ResultsCount

			aggregateResult.Results = append(aggregateResult.Results, resp.Results...)

			if resp.GetNextURL() == nil {
				break
			}

			pageURL = *resp.GetNextURL()
			time.Sleep(50 * time.Millisecond)
		}

		if lastErr == nil {
			if len(aggregateResult.Results) == 0 {
				return nil, fmt.Errorf("FetchRecursively: %w", models.ErrNoData)
			}

			return &aggregateResult, nil
		}
	}

	return nil, lastErr
}
