package models

import (
	"fmt"
	"strconv"
	"time"
)

// OptionSymbolComponents holds the parsed fields of an OCC option ticker.
type OptionSymbolComponents struct {
	Underlying  string
	Expiration  time.Time
	OptionType  OptionType
	StrikePrice float64
	Symbol      OptionSymbol
}

// NewOptionSymbolComponents parses an OCC ticker of the form
// {UNDERLYING}{YYMMDD}{C|P}{8-digit strike x1000}, with an optional O: prefix.
func NewOptionSymbolComponents(symbol OptionSymbol) (*OptionSymbolComponents, error) {
	ticker := symbol.NoPrefix()

	i := 0
	for i < len(ticker) && ticker[i] >= 'A' && ticker[i] <= 'Z' {
		i++
	}

	if i == 0 {
		return nil, fmt.Errorf("NewOptionSymbolComponents: no underlying in ticker %s", symbol)
	}

	rest := ticker[i:]
	if len(rest) != 15 {
		return nil, fmt.Errorf("NewOptionSymbolComponents: unexpected ticker length for %s", symbol)
	}

	expiration, err := time.Parse("060102", rest[:6])
	if err != nil {
		return nil, fmt.Errorf("NewOptionSymbolComponents: failed to parse expiration of %s: %w", symbol, err)
	}

	var optionType OptionType
	switch rest[6] {
	case 'C':
		optionType = OptionTypeCall
	case 'P':
		optionType = OptionTypePut
	default:
		return nil, fmt.Errorf("NewOptionSymbolComponents: invalid option type code %q in %s", rest[6], symbol)
	}

	strikeRaw, err := strconv.Atoi(rest[7:])
	if err != nil {
		return nil, fmt.Errorf("NewOptionSymbolComponents: failed to parse strike of %s: %w", symbol, err)
	}

	return &OptionSymbolComponents{
		Underlying:  ticker[:i],
		Expiration:  expiration,
		OptionType:  optionType,
		StrikePrice: float64(strikeRaw) / 1000.0,
		Symbol:      symbol,
	}, nil
}
