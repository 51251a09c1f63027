package models

import "time"

// Signal is the direction a scored opportunity asserts.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalNeutral Signal = "NEUTRAL"
)

// Strength buckets how decisive the supporting evidence is.
type Strength string

const (
	StrengthWeak     Strength = "WEAK"
	StrengthModerate Strength = "MODERATE"
	StrengthStrong   Strength = "STRONG"
)

// Severity grades an ML anomaly.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Weight returns the severity weight used when averaging anomaly confidence.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// TechnicalIndicators is the derived indicator set for one analysis cycle.
// Requires at least 200 samples (EMA200 is the longest lookback).
type TechnicalIndicators struct {
	RSI           float64 `json:"rsi"`
	MACD          float64 `json:"macd"`
	MACDSignal    float64 `json:"macdSignal"`
	MACDHistogram float64 `json:"macdHistogram"`
	EMA20         float64 `json:"ema20"`
	EMA50         float64 `json:"ema50"`
	EMA200        float64 `json:"ema200"`
	BBUpper       float64 `json:"bbUpper"`
	BBMiddle      float64 `json:"bbMiddle"`
	BBLower       float64 `json:"bbLower"`
	StochK        float64 `json:"stochK"`
	StochD        float64 `json:"stochD"`
	ATR           float64 `json:"atr"`
	ADX           float64 `json:"adx"`
}

// MomentumMetrics captures short-horizon price/volume dynamics.
type MomentumMetrics struct {
	PriceChange1m  float64 `json:"priceChange1m"`
	PriceChange5m  float64 `json:"priceChange5m"`
	PriceChange15m float64 `json:"priceChange15m"`
	VolumeSpike    float64 `json:"volumeSpike"` // ratio to 20-sample average
	Acceleration   float64 `json:"acceleration"`
	Volatility     float64 `json:"volatility"`
}

// MLAnomaly is one anomaly reported by the external ML service.
type MLAnomaly struct {
	Type        string   `json:"type"`
	Confidence  float64  `json:"confidence"` // 0..100
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// OpportunityScore is the weighted fusion of the component scores.
// All score fields are clamped to [0,100].
type OpportunityScore struct {
	Total        float64  `json:"total"`
	Technical    float64  `json:"technical"`
	Momentum     float64  `json:"momentum"`
	MLConfidence float64  `json:"mlConfidence"`
	Signal       Signal   `json:"signal"`
	Strength     Strength `json:"strength"`
	Confidence   float64  `json:"confidence"`
}

// TradingOpportunity is a point-in-time fact: created by one analysis cycle
// when the admission filter passes, then persisted and published, never
// mutated.
type TradingOpportunity struct {
	Timestamp  time.Time           `json:"timestamp"`
	Symbol     string              `json:"symbol"`
	Exchange   string              `json:"exchange"`
	Signal     Signal              `json:"signal"`
	Score      OpportunityScore    `json:"score"`
	Price      float64             `json:"price"`
	Volume24h  float64             `json:"volume24h"`
	Indicators TechnicalIndicators `json:"indicators"`
	Momentum   MomentumMetrics     `json:"momentum"`
	Anomalies  []MLAnomaly         `json:"anomalies,omitempty"`
	Metadata   map[string]string   `json:"metadata,omitempty"`
}

// OpportunityStats aggregates opportunities over the recent window.
type OpportunityStats struct {
	Total      int64            `json:"total"`
	BySignal   map[string]int64 `json:"bySignal"`
	ByStrength map[string]int64 `json:"byStrength"`
	Window     string           `json:"window"`
}
