package features

import (
	"math"

	"OppRadar/internal/domain/models"
)

// Closes extracts the closing-price series from samples.
func Closes(samples []models.PriceSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Price
	}
	return out
}

// Volumes extracts the volume series from samples.
func Volumes(samples []models.PriceSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Volume
	}
	return out
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation, 0 for fewer than two
// values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(xs)))
}

// SMA returns the simple moving average of the last period values, 0 when
// the series is shorter than period.
func SMA(xs []float64, period int) float64 {
	if period <= 0 || len(xs) < period {
		return 0
	}
	return Mean(xs[len(xs)-period:])
}

// EMASeries computes an exponential moving average over the whole series,
// seeded with the SMA of the first period values and rolled forward with
// multiplier 2/(period+1). The returned slice is aligned with xs; entries
// before index period-1 are zero and not meaningful.
func EMASeries(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	if period <= 0 || len(xs) < period {
		return out
	}
	seed := Mean(xs[:period])
	out[period-1] = seed
	k := 2.0 / float64(period+1)
	for i := period; i < len(xs); i++ {
		out[i] = (xs[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// EMA returns the latest value of EMASeries.
func EMA(xs []float64, period int) float64 {
	if period <= 0 || len(xs) < period {
		return 0
	}
	s := EMASeries(xs, period)
	return s[len(s)-1]
}
