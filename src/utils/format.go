package utils

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatNumber renders a count with comma grouping, "-" when missing.
func FormatNumber(value int64) string {
	if value == 0 {
		return "-"
	}

	return printer.Sprintf("%d", value)
}

// FormatPrice renders a dollar price to cents, "-" when missing.
func FormatPrice(value float64) string {
	if value <= 0 {
		return "-"
	}

	return fmt.Sprintf("$%.2f", value)
}

// FormatGreek renders a sensitivity to three decimals, "-" when the
// contract carries no Greeks.
func FormatGreek(value float64, hasGreeks bool) string {
	if !hasGreeks {
		return "-"
	}

	return fmt.Sprintf("%.3f", value)
}

func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}
