package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("valid date", func(t *testing.T) {
		parsed, err := ParseDate("2024-01-19")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC), parsed)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := ParseDate("01/19/2024")
		assert.NotNil(t, err)
	})
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, 1, 12, 15, 30, 0, 0, time.UTC)
	to := time.Date(2024, 1, 19, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, 7, DaysBetween(from, to))
	assert.Equal(t, -7, DaysBetween(to, from))
	assert.Equal(t, 0, DaysBetween(from, from))
}

func TestLastFriday(t *testing.T) {
	t.Run("saturday points back one day", func(t *testing.T) {
		saturday := time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), LastFriday(saturday))
	})

	t.Run("sunday points back two days", func(t *testing.T) {
		sunday := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), LastFriday(sunday))
	})

	t.Run("friday stays put", func(t *testing.T) {
		friday := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, friday, LastFriday(friday))
	})
}

func TestPreviousBusinessDay(t *testing.T) {
	t.Run("monday steps back to friday", func(t *testing.T) {
		monday := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), PreviousBusinessDay(monday))
	})

	t.Run("wednesday steps back to tuesday", func(t *testing.T) {
		wednesday := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), PreviousBusinessDay(wednesday))
	})
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsWeekend(time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsWeekend(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
}
