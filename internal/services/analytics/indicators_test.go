package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"OppRadar/internal/domain/models"
)

func flatSamples(n int, price, volume float64) []models.PriceSample {
	out := make([]models.PriceSample, n)
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := range out {
		out[i] = models.PriceSample{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Price:     price,
			Volume:    volume,
			High:      price,
			Low:       price,
		}
	}
	return out
}

func trendingSamples(n int, start, step float64) []models.PriceSample {
	out := make([]models.PriceSample, n)
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := range out {
		p := start + float64(i)*step
		out[i] = models.PriceSample{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Price:     p,
			Volume:    100,
			High:      p + 0.5,
			Low:       p - 0.5,
		}
	}
	return out
}

func TestComputeIndicatorsInsufficientData(t *testing.T) {
	_, err := ComputeIndicators(flatSamples(MinIndicatorSamples-1, 100, 100))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestFlatMarketIsNeutral(t *testing.T) {
	ind, err := ComputeIndicators(flatSamples(250, 100, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ind.RSI != 50 {
		t.Fatalf("flat RSI: expected 50, got %v", ind.RSI)
	}
	if ind.MACDHistogram != 0 {
		t.Fatalf("flat MACD histogram: expected 0, got %v", ind.MACDHistogram)
	}
	if ind.BBUpper != ind.BBLower || ind.BBMiddle != 100 {
		t.Fatalf("flat bollinger: expected collapsed bands at 100, got %v/%v/%v",
			ind.BBUpper, ind.BBMiddle, ind.BBLower)
	}
	if ind.StochK != 50 {
		t.Fatalf("flat stochastic: expected 50, got %v", ind.StochK)
	}
	if ind.ADX != 0 {
		t.Fatalf("flat ADX: expected 0, got %v", ind.ADX)
	}
	if got := TechnicalScore(ind, 100); got != 50 {
		t.Fatalf("flat technical score: expected 50, got %v", got)
	}
}

func TestRSIBounds(t *testing.T) {
	up := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	if got := rsi(up, 14); got != 100 {
		t.Fatalf("all-gains RSI: expected 100, got %v", got)
	}

	down := make([]float64, 30)
	for i := range down {
		down[i] = 130 - float64(i)
	}
	if got := rsi(down, 14); got != 0 {
		t.Fatalf("all-losses RSI: expected 0, got %v", got)
	}

	mixed := []float64{100, 102, 101, 103, 102, 104, 103, 105, 104, 106, 105, 107, 106, 108, 107, 109}
	got := rsi(mixed, 14)
	if got <= 0 || got >= 100 {
		t.Fatalf("mixed RSI out of range: %v", got)
	}
	if got <= 50 {
		t.Fatalf("net-up series should read above 50, got %v", got)
	}
}

// Wilder smoothing carries every delta forward, so a loss before the final
// window must still depress the reading. Period 3 keeps the arithmetic
// checkable by hand: seed avgLoss = 10/3 over {-10, 0, 0}, then the +5 delta
// smooths to avgGain = 5/3 and avgLoss = 20/9, giving RS = 0.75.
func TestRSIWilderSmoothing(t *testing.T) {
	closes := []float64{100, 90, 90, 90, 95}
	want := 100 - 100/1.75
	got := rsi(closes, 3)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("smoothed RSI: expected %v, got %v", want, got)
	}
}

func TestBollingerOrdering(t *testing.T) {
	closes := []float64{
		100, 101, 99, 102, 98, 103, 100, 101, 99, 102,
		100, 104, 97, 101, 100, 102, 99, 103, 100, 101,
	}
	upper, middle, lower := bollinger(closes, 20, 2)
	if !(upper > middle && middle > lower) {
		t.Fatalf("expected upper > middle > lower, got %v/%v/%v", upper, middle, lower)
	}
	var want float64
	for _, c := range closes {
		want += c
	}
	want /= 20
	if math.Abs(middle-want) > 1e-9 {
		t.Fatalf("middle band should be the SMA: expected %v, got %v", want, middle)
	}
}

func TestStochasticAtHigh(t *testing.T) {
	samples := trendingSamples(20, 100, 1)
	k, d := stochastic(samples, 14, 3)
	if k < 90 {
		t.Fatalf("close at the top of the range: expected %%K near 100, got %v", k)
	}
	if d <= 0 || d > 100 {
		t.Fatalf("%%D out of range: %v", d)
	}
}

func TestATRPositiveOnMovingMarket(t *testing.T) {
	if got := atr(trendingSamples(50, 100, 1), 14); got <= 0 {
		t.Fatalf("expected positive ATR, got %v", got)
	}
	if got := atr(flatSamples(50, 100, 100), 14); got != 0 {
		t.Fatalf("flat market ATR: expected 0, got %v", got)
	}
}

func TestADXTrendingMarket(t *testing.T) {
	got := adx(trendingSamples(100, 100, 1), 14)
	if got <= 25 {
		t.Fatalf("steady uptrend should read a strong ADX, got %v", got)
	}
	if got > 100 {
		t.Fatalf("ADX out of range: %v", got)
	}
}

func TestTechnicalScoreDirection(t *testing.T) {
	bull := models.TechnicalIndicators{
		RSI: 28, MACDHistogram: 1.5,
		EMA20: 105, EMA50: 103, EMA200: 100,
		BBUpper: 110, BBMiddle: 105, BBLower: 101,
		StochK: 15, ADX: 30,
	}
	if got := TechnicalScore(bull, 106); got <= 50 {
		t.Fatalf("bullish alignment should score above 50, got %v", got)
	}

	bear := models.TechnicalIndicators{
		RSI: 75, MACDHistogram: -1.5,
		EMA20: 95, EMA50: 97, EMA200: 100,
		BBUpper: 99, BBMiddle: 95, BBLower: 90,
		StochK: 85, ADX: 30,
	}
	if got := TechnicalScore(bear, 94); got >= 50 {
		t.Fatalf("bearish alignment should score below 50, got %v", got)
	}
}

func TestTechnicalScoreClamped(t *testing.T) {
	for _, price := range []float64{0.0001, 1e9} {
		got := TechnicalScore(models.TechnicalIndicators{RSI: 5, MACDHistogram: 10, ADX: 90}, price)
		if got < 0 || got > 100 {
			t.Fatalf("score out of range for price %v: %v", price, got)
		}
	}
}
