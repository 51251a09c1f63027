package analytics

import (
	"errors"
	"math"

	"OppRadar/internal/domain/models"
	"OppRadar/internal/services/features"
)

// ErrInsufficientData means the buffer does not yet hold enough samples for
// the requested computation. Callers skip the cycle; it is not a failure.
var ErrInsufficientData = errors.New("insufficient samples")

// MinIndicatorSamples is the history needed for the full indicator set;
// EMA200 is the longest lookback.
const MinIndicatorSamples = 200

// ComputeIndicators derives the full indicator set from a buffer snapshot.
func ComputeIndicators(samples []models.PriceSample) (models.TechnicalIndicators, error) {
	if len(samples) < MinIndicatorSamples {
		return models.TechnicalIndicators{}, ErrInsufficientData
	}

	closes := features.Closes(samples)

	var ind models.TechnicalIndicators
	ind.RSI = rsi(closes, 14)
	ind.MACD, ind.MACDSignal, ind.MACDHistogram = macd(closes, 12, 26, 9)
	ind.EMA20 = features.EMA(closes, 20)
	ind.EMA50 = features.EMA(closes, 50)
	ind.EMA200 = features.EMA(closes, 200)
	ind.BBUpper, ind.BBMiddle, ind.BBLower = bollinger(closes, 20, 2)
	ind.StochK, ind.StochD = stochastic(samples, 14, 3)
	ind.ATR = atr(samples, 14)
	ind.ADX = adx(samples, 14)
	return ind, nil
}

// rsi is Wilder's RSI: gain and loss averages are seeded with the simple
// average of the first period deltas, then smoothed across the rest of the
// series. A flat series (no gains and no losses) reads 50; zero smoothed loss
// with gains reads 100.
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		var gain, loss float64
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgGain == 0 && avgLoss == 0 {
		return 50
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func macd(closes []float64, fast, slow, signalP int) (line, signal, hist float64) {
	if len(closes) < slow+signalP {
		return 0, 0, 0
	}
	emaFast := features.EMASeries(closes, fast)
	emaSlow := features.EMASeries(closes, slow)
	series := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		series = append(series, emaFast[i]-emaSlow[i])
	}
	line = series[len(series)-1]
	signal = features.EMA(series, signalP)
	hist = line - signal
	return line, signal, hist
}

func bollinger(closes []float64, period int, mult float64) (upper, middle, lower float64) {
	if len(closes) < period {
		return 0, 0, 0
	}
	window := closes[len(closes)-period:]
	middle = features.Mean(window)
	sd := features.StdDev(window)
	upper = middle + mult*sd
	lower = middle - mult*sd
	return upper, middle, lower
}

// stochastic computes %K over the range of the last period samples and %D as
// a 3-sample SMA of %K. A zero range reads 50.
func stochastic(samples []models.PriceSample, period, smooth int) (k, d float64) {
	if len(samples) < period+smooth-1 {
		return 50, 50
	}
	ks := make([]float64, 0, smooth)
	for off := smooth - 1; off >= 0; off-- {
		end := len(samples) - off
		ks = append(ks, stochK(samples[:end], period))
	}
	return ks[len(ks)-1], features.Mean(ks)
}

func stochK(samples []models.PriceSample, period int) float64 {
	window := samples[len(samples)-period:]
	highest := window[0].High
	lowest := window[0].Low
	for _, s := range window {
		if s.High > highest {
			highest = s.High
		}
		if s.Low < lowest {
			lowest = s.Low
		}
	}
	closePrice := window[len(window)-1].Price
	if highest == lowest {
		return 50
	}
	return (closePrice - lowest) / (highest - lowest) * 100
}

// atr is an EMA of the true range.
func atr(samples []models.PriceSample, period int) float64 {
	trs := trueRanges(samples)
	if len(trs) < period {
		return 0
	}
	return features.EMA(trs, period)
}

func trueRanges(samples []models.PriceSample) []float64 {
	if len(samples) < 2 {
		return nil
	}
	out := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		prevClose := samples[i-1].Price
		hl := samples[i].High - samples[i].Low
		hc := math.Abs(samples[i].High - prevClose)
		lc := math.Abs(samples[i].Low - prevClose)
		out = append(out, math.Max(hl, math.Max(hc, lc)))
	}
	return out
}

// adx uses Wilder smoothing of +DM/-DM against true range. A flat series
// has no directional movement and reads 0.
func adx(samples []models.PriceSample, period int) float64 {
	if len(samples) < 2*period+1 {
		return 0
	}
	var trs, plusDMs, minusDMs []float64
	for i := 1; i < len(samples); i++ {
		upMove := samples[i].High - samples[i-1].High
		downMove := samples[i-1].Low - samples[i].Low
		var plus, minus float64
		if upMove > downMove && upMove > 0 {
			plus = upMove
		}
		if downMove > upMove && downMove > 0 {
			minus = downMove
		}
		plusDMs = append(plusDMs, plus)
		minusDMs = append(minusDMs, minus)
	}
	trs = trueRanges(samples)

	smTR := sum(trs[:period])
	smPlus := sum(plusDMs[:period])
	smMinus := sum(minusDMs[:period])

	var adxVal float64
	var dxCount int
	for i := period; i < len(trs); i++ {
		smTR = smTR - smTR/float64(period) + trs[i]
		smPlus = smPlus - smPlus/float64(period) + plusDMs[i]
		smMinus = smMinus - smMinus/float64(period) + minusDMs[i]

		var plusDI, minusDI float64
		if smTR > 0 {
			plusDI = 100 * smPlus / smTR
			minusDI = 100 * smMinus / smTR
		}
		var dx float64
		if plusDI+minusDI > 0 {
			dx = math.Abs(plusDI-minusDI) / (plusDI + minusDI) * 100
		}
		dxCount++
		if dxCount <= period {
			adxVal += dx
			if dxCount == period {
				adxVal /= float64(period)
			}
		} else {
			adxVal = (adxVal*float64(period-1) + dx) / float64(period)
		}
	}
	if dxCount < period {
		return 0
	}
	return adxVal
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

// TechnicalScore folds the indicator set into a 0-100 heuristic, 50 being
// neutral. Oversold and bullish alignment push up, overbought and bearish
// alignment push down; an ADX above 25 amplifies the move away from 50.
func TechnicalScore(ind models.TechnicalIndicators, lastPrice float64) float64 {
	score := 50.0

	switch {
	case ind.RSI <= 30:
		score += 10
	case ind.RSI >= 70:
		score -= 10
	}

	if ind.MACDHistogram > 0 {
		score += 10
	} else if ind.MACDHistogram < 0 {
		score -= 10
	}

	switch {
	case lastPrice > ind.EMA20 && ind.EMA20 > ind.EMA50 && ind.EMA50 > ind.EMA200:
		score += 15
	case lastPrice < ind.EMA20 && ind.EMA20 < ind.EMA50 && ind.EMA50 < ind.EMA200:
		score -= 15
	case ind.EMA20 > ind.EMA50:
		score += 5
	case ind.EMA20 < ind.EMA50:
		score -= 5
	}

	if ind.BBUpper > ind.BBLower {
		if lastPrice <= ind.BBLower {
			score += 10
		} else if lastPrice >= ind.BBUpper {
			score -= 10
		}
	}

	switch {
	case ind.StochK <= 20:
		score += 5
	case ind.StochK >= 80:
		score -= 5
	}

	if ind.ADX > 25 {
		score = 50 + (score-50)*1.2
	}

	return clamp(score, 0, 100)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
