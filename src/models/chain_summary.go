package models

// Sentiment is a coarse positioning read derived from put/call ratios.
type Sentiment string

const (
	SentimentBearish         Sentiment = "bearish"
	SentimentSlightlyBearish Sentiment = "slightly_bearish"
	SentimentNeutral         Sentiment = "neutral"
	SentimentSlightlyBullish Sentiment = "slightly_bullish"
	SentimentBullish         Sentiment = "bullish"
	SentimentUnknown         Sentiment = "unknown"
)

// SentimentFromPutCallRatio maps an average put/call ratio onto a
// five-level read. High put activity reads bearish, low reads bullish.
func SentimentFromPutCallRatio(ratio float64) Sentiment {
	switch {
	case ratio > 1.2:
		return SentimentBearish
	case ratio > 1.0:
		return SentimentSlightlyBearish
	case ratio < 0.7:
		return SentimentBullish
	case ratio < 0.9:
		return SentimentSlightlyBullish
	default:
		return SentimentNeutral
	}
}

func (s Sentiment) Label() string {
	switch s {
	case SentimentBearish:
		return "Bearish"
	case SentimentSlightlyBearish:
		return "Slightly Bearish"
	case SentimentSlightlyBullish:
		return "Slightly Bullish"
	case SentimentBullish:
		return "Bullish"
	case SentimentNeutral:
		return "Neutral"
	default:
		return "Unknown"
	}
}

// ChainSummary aggregates volume, open interest and implied volatility
// across a chain.
type ChainSummary struct {
	Contracts          int       `json:"contracts"`
	TotalCallVolume    int64     `json:"total_call_volume"`
	TotalPutVolume     int64     `json:"total_put_volume"`
	TotalCallOI        int64     `json:"total_call_oi"`
	TotalPutOI         int64     `json:"total_put_oi"`
	PutCallVolumeRatio float64   `json:"put_call_volume_ratio"`
	PutCallOIRatio     float64   `json:"put_call_oi_ratio"`
	AvgCallIV          float64   `json:"avg_call_iv"`
	AvgPutIV           float64   `json:"avg_put_iv"`
	Sentiment          Sentiment `json:"sentiment"`
}
