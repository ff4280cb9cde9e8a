package models

import "fmt"

type OptionType string

const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
)

func (o OptionType) Validate() error {
	if o != OptionTypeCall && o != OptionTypePut {
		return fmt.Errorf("OptionType: Validate: invalid option type: %s", o)
	}

	return nil
}

// OCCCode returns the single-letter code used in OCC option tickers.
func (o OptionType) OCCCode() string {
	if o == OptionTypePut {
		return "P"
	}

	return "C"
}
