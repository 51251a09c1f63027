package features

import (
	"math"
	"testing"

	"OppRadar/internal/domain/models"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestClosesAndVolumes(t *testing.T) {
	samples := []models.PriceSample{
		{Price: 1, Volume: 10},
		{Price: 2, Volume: 20},
		{Price: 3, Volume: 30},
	}
	closes := Closes(samples)
	vols := Volumes(samples)
	for i := range samples {
		if closes[i] != samples[i].Price || vols[i] != samples[i].Volume {
			t.Fatalf("index %d: closes=%v vols=%v", i, closes, vols)
		}
	}
}

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Fatalf("Mean(nil) = %v", got)
	}
	if got := Mean([]float64{2, 4, 6}); !almostEqual(got, 4) {
		t.Fatalf("Mean = %v, want 4", got)
	}
}

func TestStdDev(t *testing.T) {
	if got := StdDev([]float64{5}); got != 0 {
		t.Fatalf("StdDev single = %v", got)
	}
	if got := StdDev([]float64{3, 3, 3}); !almostEqual(got, 0) {
		t.Fatalf("StdDev flat = %v", got)
	}
	// population sd of {2,4,4,4,5,5,7,9} is exactly 2
	if got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}); !almostEqual(got, 2) {
		t.Fatalf("StdDev = %v, want 2", got)
	}
}

func TestSMA(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	if got := SMA(xs, 3); !almostEqual(got, 4) {
		t.Fatalf("SMA = %v, want 4", got)
	}
	if got := SMA(xs, 6); got != 0 {
		t.Fatalf("SMA short series = %v, want 0", got)
	}
	if got := SMA(xs, 0); got != 0 {
		t.Fatalf("SMA zero period = %v, want 0", got)
	}
}

func TestEMASeriesSeededWithSMA(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	s := EMASeries(xs, 3)
	if len(s) != len(xs) {
		t.Fatalf("len = %d, want %d", len(s), len(xs))
	}
	if s[0] != 0 || s[1] != 0 {
		t.Fatalf("pre-seed entries = %v, want zeros", s[:2])
	}
	if !almostEqual(s[2], 2) {
		t.Fatalf("seed = %v, want SMA 2", s[2])
	}
	// k = 0.5: (4-2)*0.5+2 = 3, (5-3)*0.5+3 = 4
	if !almostEqual(s[3], 3) || !almostEqual(s[4], 4) {
		t.Fatalf("series = %v", s)
	}
	if got := EMA(xs, 3); !almostEqual(got, 4) {
		t.Fatalf("EMA = %v, want 4", got)
	}
}

func TestEMAFlatSeriesConverges(t *testing.T) {
	xs := make([]float64, 50)
	for i := range xs {
		xs[i] = 100
	}
	if got := EMA(xs, 12); !almostEqual(got, 100) {
		t.Fatalf("EMA flat = %v, want 100", got)
	}
}
