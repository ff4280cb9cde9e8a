package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentimentFromPutCallRatio(t *testing.T) {
	t.Run("heavy put flow is bearish", func(t *testing.T) {
		assert.Equal(t, SentimentBearish, SentimentFromPutCallRatio(1.5))
	})

	t.Run("above parity is slightly bearish", func(t *testing.T) {
		assert.Equal(t, SentimentSlightlyBearish, SentimentFromPutCallRatio(1.1))
	})

	t.Run("near parity is neutral", func(t *testing.T) {
		assert.Equal(t, SentimentNeutral, SentimentFromPutCallRatio(0.95))
		assert.Equal(t, SentimentNeutral, SentimentFromPutCallRatio(1.0))
	})

	t.Run("below parity is slightly bullish", func(t *testing.T) {
		assert.Equal(t, SentimentSlightlyBullish, SentimentFromPutCallRatio(0.8))
	})

	t.Run("light put flow is bullish", func(t *testing.T) {
		assert.Equal(t, SentimentBullish, SentimentFromPutCallRatio(0.5))
	})

	t.Run("boundaries", func(t *testing.T) {
		assert.Equal(t, SentimentNeutral, SentimentFromPutCallRatio(0.9))
		assert.Equal(t, SentimentSlightlyBullish, SentimentFromPutCallRatio(0.7))
		assert.Equal(t, SentimentSlightlyBearish, SentimentFromPutCallRatio(1.2))
	})
}

func TestSentimentLabel(t *testing.T) {
	assert.Equal(t, "Slightly Bearish", SentimentSlightlyBearish.Label())
	assert.Equal(t, "Unknown", SentimentUnknown.Label())
}
