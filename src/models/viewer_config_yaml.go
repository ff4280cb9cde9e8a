package models

import (
	"fmt"
	"sort"
)

// SpreadTier maps a minimum daily volume to the spread fraction applied
// around the last trade when quotes have to be estimated.
type SpreadTier struct {
	MinVolume int64   `yaml:"minVolume" json:"min_volume"`
	SpreadPct float64 `yaml:"spreadPct" json:"spread_pct"`
}

// ViewerConfigYAML holds the dashboard tuning defaults loaded from
// viewer.yaml.
type ViewerConfigYAML struct {
	DefaultSymbol      string       `yaml:"defaultSymbol"`
	RiskFreeRate       float64      `yaml:"riskFreeRate"`
	StrikesAroundATM   int          `yaml:"strikesAroundAtm"`
	TargetDaysToExpiry int          `yaml:"targetDaysToExpiry"`
	SpreadTiers        []SpreadTier `yaml:"spreadTiers"`
}

// DefaultSpreadTiers mirrors the liquidity bands used for estimated
// quotes: heavily traded contracts get a tight spread, illiquid ones a
// wide one.
func DefaultSpreadTiers() []SpreadTier {
	return []SpreadTier{
		{MinVolume: 10000, SpreadPct: 0.02},
		{MinVolume: 1000, SpreadPct: 0.04},
		{MinVolume: 100, SpreadPct: 0.08},
		{MinVolume: 10, SpreadPct: 0.15},
		{MinVolume: 0, SpreadPct: 0.25},
	}
}

func DefaultViewerConfig() *ViewerConfigYAML {
	return &ViewerConfigYAML{
		DefaultSymbol:      "SPY",
		RiskFreeRate:       0.05,
		StrikesAroundATM:   10,
		TargetDaysToExpiry: 7,
		SpreadTiers:        DefaultSpreadTiers(),
	}
}

// ApplyDefaults fills zero-valued fields so a partial viewer.yaml still
// yields a usable config.
func (c *ViewerConfigYAML) ApplyDefaults() {
	defaults := DefaultViewerConfig()

	if c.DefaultSymbol == "" {
		c.DefaultSymbol = defaults.DefaultSymbol
	}

	if c.RiskFreeRate == 0 {
		c.RiskFreeRate = defaults.RiskFreeRate
	}

	if c.StrikesAroundATM == 0 {
		c.StrikesAroundATM = defaults.StrikesAroundATM
	}

	if c.TargetDaysToExpiry == 0 {
		c.TargetDaysToExpiry = defaults.TargetDaysToExpiry
	}

	if len(c.SpreadTiers) == 0 {
		c.SpreadTiers = defaults.SpreadTiers
	}

	sort.Slice(c.SpreadTiers, func(i, j int) bool {
		return c.SpreadTiers[i].MinVolume > c.SpreadTiers[j].MinVolume
	})
}

func (c *ViewerConfigYAML) Validate() error {
	if c.RiskFreeRate < 0 || c.RiskFreeRate > 1 {
		return fmt.Errorf("ViewerConfigYAML: Validate: riskFreeRate %v out of range", c.RiskFreeRate)
	}

	if c.StrikesAroundATM < 1 {
		return fmt.Errorf("ViewerConfigYAML: Validate: strikesAroundAtm must be positive")
	}

	for _, tier := range c.SpreadTiers {
		if tier.SpreadPct <= 0 || tier.SpreadPct >= 1 {
			return fmt.Errorf("ViewerConfigYAML: Validate: spreadPct %v out of range", tier.SpreadPct)
		}
	}

	return nil
}

// SpreadPctForVolume returns the spread fraction of the first tier whose
// minimum volume the given volume meets. Tiers are kept sorted descending
// by ApplyDefaults.
func (c *ViewerConfigYAML) SpreadPctForVolume(volume int64) float64 {
	for _, tier := range c.SpreadTiers {
		if volume >= tier.MinVolume {
			return tier.SpreadPct
		}
	}

	return DefaultSpreadTiers()[len(DefaultSpreadTiers())-1].SpreadPct
}
