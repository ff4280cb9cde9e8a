package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kshitijsingla/chain-viewer/src/models"
)

func TestFetchRecursively(t *testing.T) {
	t.Run("follows next_url across pages", func(t *testing.T) {
		var urls []string
		next := "https://example.test/page2"

		fetchPage := func(url, apiKey string) (*models.AggregateResult[int], error) {
			urls = append(urls, url)

			if url == "https://example.test/page1" {
				return &models.AggregateResult[int]{
					ResultsCount: 2,
					Results:      []int{1, 2},
					GetNextURL:   func() *string { return &next },
				}, nil
			}

			return &models.AggregateResult[int]{
				ResultsCount: 1,
				Results:      []int{3},
				GetNextURL:   func() *string { return nil },
			}, nil
		}

		result, err := FetchRecursively("https://example.test/page1", "key", fetchPage)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 3}, result.Results)
		assert.Equal(t, 3, result.ResultsCount)
		assert.Equal(t, []string{"https://example.test/page1", "https://example.test/page2"}, urls)
	})

	t.Run("maps an empty result to ErrNoData", func(t *testing.T) {
		fetchPage := func(url, apiKey string) (*models.AggregateResult[int], error) {
			return &models.AggregateResult[int]{
				GetNextURL: func() *string { return nil },
			}, nil
		}

		_, err := FetchRecursively("https://example.test/empty", "key", fetchPage)
		assert.True(t, errors.Is(err, models.ErrNoData))
	})
}
