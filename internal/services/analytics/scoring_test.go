package analytics

import (
	"math"
	"testing"

	"OppRadar/internal/domain/models"
)

func neutralIndicators() models.TechnicalIndicators {
	return models.TechnicalIndicators{RSI: 50, ADX: 20}
}

func TestCalculateScoreWeightsWithoutML(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())
	sc := s.CalculateScore(55, 90, neutralIndicators(), models.MomentumMetrics{}, nil)

	// ML weight redistributed: 55*0.55 + 90*0.45
	want := 70.75
	if math.Abs(sc.Total-want) > 1e-9 {
		t.Fatalf("expected total %v, got %v", want, sc.Total)
	}
	if sc.Signal != models.SignalBuy {
		t.Fatalf("expected BUY above the threshold, got %s", sc.Signal)
	}
}

func TestCalculateScoreIncludesMLAboveThreshold(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())
	anoms := []models.MLAnomaly{{Type: "price_spike", Severity: models.SeverityHigh, Confidence: 80}}

	sc := s.CalculateScore(60, 60, neutralIndicators(), models.MomentumMetrics{}, anoms)
	want := (60*40.0 + 60*30.0 + 80*30.0) / 100 // 66
	if math.Abs(sc.Total-want) > 1e-9 {
		t.Fatalf("expected total %v, got %v", want, sc.Total)
	}
	if sc.MLConfidence != 80 {
		t.Fatalf("expected ML confidence 80, got %v", sc.MLConfidence)
	}
}

func TestCalculateScoreExcludesWeakML(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())
	anoms := []models.MLAnomaly{{Type: "volume_anomaly", Severity: models.SeverityLow, Confidence: 60}}

	sc := s.CalculateScore(60, 60, neutralIndicators(), models.MomentumMetrics{}, anoms)
	if sc.Total != 60 {
		t.Fatalf("weak ML should be excluded from the blend: expected 60, got %v", sc.Total)
	}
	if sc.MLConfidence != 60 {
		t.Fatalf("ML confidence should still be reported, got %v", sc.MLConfidence)
	}
}

func TestMLConfidenceSeverityWeighting(t *testing.T) {
	if got := MLConfidence(nil); got != 0 {
		t.Fatalf("no anomalies: expected 0, got %v", got)
	}
	anoms := []models.MLAnomaly{
		{Severity: models.SeverityLow, Confidence: 80},
		{Severity: models.SeverityCritical, Confidence: 40},
	}
	want := (80*1.0 + 40*4.0) / 5 // 48
	if got := MLConfidence(anoms); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSignalThresholds(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())
	cases := []struct {
		tech, mom float64
		want      models.Signal
	}{
		{80, 80, models.SignalBuy},
		{20, 20, models.SignalSell},
		{50, 50, models.SignalNeutral},
		{60, 60, models.SignalBuy},  // exactly at the buy threshold
		{40, 40, models.SignalSell}, // exactly at the sell threshold
	}
	for _, c := range cases {
		sc := s.CalculateScore(c.tech, c.mom, neutralIndicators(), models.MomentumMetrics{}, nil)
		if sc.Signal != c.want {
			t.Fatalf("tech=%v mom=%v: expected %s, got %s (total %v)",
				c.tech, c.mom, c.want, sc.Signal, sc.Total)
		}
	}
}

func TestScoringIsPure(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())
	first := s.CalculateScore(55, 90, neutralIndicators(), models.MomentumMetrics{}, nil)
	second := s.CalculateScore(55, 90, neutralIndicators(), models.MomentumMetrics{}, nil)
	if first != second {
		t.Fatalf("same inputs must give same outputs: %+v vs %+v", first, second)
	}
}

func TestComponentInputsClamped(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())
	sc := s.CalculateScore(150, -20, neutralIndicators(), models.MomentumMetrics{}, nil)
	if sc.Technical != 100 || sc.Momentum != 0 {
		t.Fatalf("expected clamped components 100/0, got %v/%v", sc.Technical, sc.Momentum)
	}
	if sc.Total < 0 || sc.Total > 100 {
		t.Fatalf("total out of range: %v", sc.Total)
	}
}

func TestStrengthAccumulation(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())

	weak := s.CalculateScore(62, 62, neutralIndicators(), models.MomentumMetrics{}, nil)
	if weak.Strength != models.StrengthWeak {
		t.Fatalf("borderline buy should be WEAK, got %s", weak.Strength)
	}

	strong := s.CalculateScore(90, 90,
		models.TechnicalIndicators{RSI: 80, ADX: 35},
		models.MomentumMetrics{PriceChange5m: 4, VolumeSpike: 2.5},
		nil,
	)
	if strong.Strength != models.StrengthStrong {
		t.Fatalf("extreme aligned evidence should be STRONG, got %s", strong.Strength)
	}
}

func TestValidOpportunityFilter(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())

	neutral := s.CalculateScore(50, 50, neutralIndicators(), models.MomentumMetrics{}, nil)
	if s.IsValidOpportunity(neutral) {
		t.Fatalf("NEUTRAL must never be admitted")
	}

	// Components disagree hard: signal fires but confidence collapses
	split := s.CalculateScore(90, 30, neutralIndicators(), models.MomentumMetrics{}, nil)
	if split.Signal != models.SignalBuy {
		t.Fatalf("expected BUY from the blend, got %s", split.Signal)
	}
	if split.Confidence >= 50 {
		t.Fatalf("disagreeing components should collapse confidence, got %v", split.Confidence)
	}
	if s.IsValidOpportunity(split) {
		t.Fatalf("low-confidence opportunity must be rejected")
	}

	agreed := s.CalculateScore(80, 80, neutralIndicators(), models.MomentumMetrics{}, nil)
	if !s.IsValidOpportunity(agreed) {
		t.Fatalf("agreeing strong components should be admitted: %+v", agreed)
	}
}

func TestTotalRoundedToTwoDecimals(t *testing.T) {
	s := NewScorer(DefaultScoreConfig())
	sc := s.CalculateScore(33.333, 66.667, neutralIndicators(), models.MomentumMetrics{}, nil)
	if sc.Total != math.Round(sc.Total*100)/100 {
		t.Fatalf("total not rounded: %v", sc.Total)
	}
}
