package analytics

import (
	"math"

	"OppRadar/internal/domain/models"
	"OppRadar/internal/services/features"
)

// MinMomentumSamples is the history needed for momentum metrics.
const MinMomentumSamples = 15

// Fixed sample-index lookbacks for the 1m/5m/15m deltas. These assume the
// nominal tick cadence rather than wall-clock alignment; see DESIGN.md.
const (
	lookback1m  = 2
	lookback5m  = 6
	lookback15m = 16
)

// ComputeMomentum derives short-horizon momentum metrics from a buffer
// snapshot.
func ComputeMomentum(samples []models.PriceSample) (models.MomentumMetrics, error) {
	if len(samples) < MinMomentumSamples {
		return models.MomentumMetrics{}, ErrInsufficientData
	}

	var m models.MomentumMetrics
	m.PriceChange1m = pctChange(samples, lookback1m)
	m.PriceChange5m = pctChange(samples, lookback5m)
	m.PriceChange15m = pctChange(samples, lookback15m)
	m.VolumeSpike = volumeSpike(samples, 20)
	m.Acceleration = m.PriceChange1m - m.PriceChange5m/5
	m.Volatility = volatility(samples, 20)
	return m, nil
}

// pctChange is the percent move from the sample `back` positions before the
// latest one, clamped to the oldest sample when the buffer is still short.
func pctChange(samples []models.PriceSample, back int) float64 {
	idx := len(samples) - 1 - back
	if idx < 0 {
		idx = 0
	}
	ref := samples[idx].Price
	if ref == 0 {
		return 0
	}
	last := samples[len(samples)-1].Price
	return (last - ref) / ref * 100
}

// volumeSpike is the latest volume relative to the window-sample average.
func volumeSpike(samples []models.PriceSample, window int) float64 {
	vols := features.Volumes(samples)
	if len(vols) > window {
		vols = vols[len(vols)-window:]
	}
	avg := features.Mean(vols)
	if avg == 0 {
		return 1
	}
	return vols[len(vols)-1] / avg
}

// volatility is the coefficient of variation of the last window closes, in
// percent.
func volatility(samples []models.PriceSample, window int) float64 {
	closes := features.Closes(samples)
	if len(closes) > window {
		closes = closes[len(closes)-window:]
	}
	m := features.Mean(closes)
	if m == 0 {
		return 0
	}
	return features.StdDev(closes) / m * 100
}

// MomentumScore folds momentum metrics into a directional 0-100 heuristic:
// magnitude bonuses accumulate above 50, then the scale is inverted when the
// 5-minute move is negative, so high means bullish and low means bearish.
func MomentumScore(m models.MomentumMetrics) float64 {
	score := 50.0

	switch abs5 := math.Abs(m.PriceChange5m); {
	case abs5 >= 5:
		score += 20
	case abs5 >= 2:
		score += 10
	case abs5 >= 1:
		score += 5
	}

	switch abs1 := math.Abs(m.PriceChange1m); {
	case abs1 >= 1:
		score += 10
	case abs1 >= 0.5:
		score += 5
	}

	switch {
	case m.VolumeSpike >= 3:
		score += 15
	case m.VolumeSpike >= 2:
		score += 10
	case m.VolumeSpike >= 1.5:
		score += 5
	}

	if math.Abs(m.Acceleration) >= 0.5 {
		score += 5
	}
	if m.Volatility >= 2 {
		score += 5
	}

	score = clamp(score, 0, 100)
	if m.PriceChange5m < 0 {
		score = 100 - score
	}
	return score
}
