package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "42", FormatNumber(42))
	assert.Equal(t, "-", FormatNumber(0))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$2.50", FormatPrice(2.5))
	assert.Equal(t, "-", FormatPrice(0))
	assert.Equal(t, "-", FormatPrice(-1))
}

func TestFormatGreek(t *testing.T) {
	assert.Equal(t, "0.637", FormatGreek(0.6368, true))
	assert.Equal(t, "-", FormatGreek(0.6368, false))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.3%", FormatPercent(12.34))
}
