package models

import (
	"fmt"
	"strings"
)

// OptionSymbol is an OCC-style option ticker, with or without the vendor's
// "O:" prefix, e.g. O:SPY240119C00475000.
type OptionSymbol string

func (s OptionSymbol) NoPrefix() string {
	if strings.HasPrefix(string(s), "O:") {
		return string(s)[2:]
	}

	return string(s)
}

func (s OptionSymbol) Description() (string, error) {
	components, err := NewOptionSymbolComponents(s)
	if err != nil {
		return "", fmt.Errorf("OptionSymbol.Description: failed to parse option symbol: %w", err)
	}

	expiration := components.Expiration.Format("Jan 2 2006")

	strikePrice := fmt.Sprintf("%.2f", components.StrikePrice)

	optionType := "Call"
	if components.OptionType == OptionTypePut {
		optionType = "Put"
	}

	formatted := fmt.Sprintf("%s %s $%s %s", components.Underlying, expiration, strikePrice, optionType)

	return formatted, nil
}

func NewOptionSymbol(option OptionSymbolComponents) (OptionSymbol, error) {
	if err := option.OptionType.Validate(); err != nil {
		return "", fmt.Errorf("NewOptionSymbol: %w", err)
	}

	year := option.Expiration.Year() % 100
	month := int(option.Expiration.Month())
	day := option.Expiration.Day()

	// Strike price encodes as 8 digits, price x 1000
	strikePrice := fmt.Sprintf("%08d", int(option.StrikePrice*1000))

	ticker := fmt.Sprintf("O:%s%02d%02d%02d%s%s",
		option.Underlying, year, month, day, option.OptionType.OCCCode(), strikePrice)

	return OptionSymbol(ticker), nil
}
