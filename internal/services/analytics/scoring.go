package analytics

import (
	"math"

	"OppRadar/internal/domain/models"
)

// Component weights for the score fusion, in percent. When the ML signal is
// excluded its weight is split evenly onto technical and momentum.
const (
	weightTechnical = 40
	weightMomentum  = 30
	weightML        = 30
)

// ScoreConfig carries the tunable thresholds of the scoring engine.
type ScoreConfig struct {
	BuyThreshold  float64 // total at or above which the signal is BUY
	SellThreshold float64 // total at or below which the signal is SELL
	MLThreshold   float64 // minimum ML confidence to include the ML weight
}

// DefaultScoreConfig matches the production tuning.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{BuyThreshold: 60, SellThreshold: 40, MLThreshold: 70}
}

// Scorer fuses the component scores into an OpportunityScore. It holds no
// mutable state; scoring is a pure function of its inputs.
type Scorer struct {
	cfg ScoreConfig
}

func NewScorer(cfg ScoreConfig) *Scorer { return &Scorer{cfg: cfg} }

// MLConfidence is the severity-weighted average confidence over anomalies,
// clamped to [0,100]. No anomalies means 0.
func MLConfidence(anomalies []models.MLAnomaly) float64 {
	if len(anomalies) == 0 {
		return 0
	}
	var weighted, weights float64
	for _, a := range anomalies {
		w := a.Severity.Weight()
		weighted += a.Confidence * w
		weights += w
	}
	return clamp(weighted/weights, 0, 100)
}

// CalculateScore fuses technical, momentum, and ML component scores.
func (s *Scorer) CalculateScore(
	technical, momentum float64,
	ind models.TechnicalIndicators,
	mom models.MomentumMetrics,
	anomalies []models.MLAnomaly,
) models.OpportunityScore {
	technical = clamp(technical, 0, 100)
	momentum = clamp(momentum, 0, 100)
	mlConf := MLConfidence(anomalies)

	parts := []float64{technical, momentum}
	var total float64
	if mlConf >= s.cfg.MLThreshold {
		total = (technical*weightTechnical + momentum*weightMomentum + mlConf*weightML) / 100
		parts = append(parts, mlConf)
	} else {
		// redistribute the ML weight evenly
		wt := float64(weightTechnical + weightML/2)
		wm := float64(weightMomentum + weightML/2)
		total = (technical*wt + momentum*wm) / 100
	}
	total = clamp(math.Round(total*100)/100, 0, 100)

	sc := models.OpportunityScore{
		Total:        total,
		Technical:    technical,
		Momentum:     momentum,
		MLConfidence: mlConf,
		Signal:       s.signalFor(total),
	}
	sc.Strength = s.strengthFor(sc, ind, mom, anomalies)
	sc.Confidence = confidence(parts)
	return sc
}

func (s *Scorer) signalFor(total float64) models.Signal {
	switch {
	case total >= s.cfg.BuyThreshold:
		return models.SignalBuy
	case total <= s.cfg.SellThreshold:
		return models.SignalSell
	default:
		return models.SignalNeutral
	}
}

// strengthFor accumulates evidence points: distance from the neutral band,
// indicator extremity, momentum magnitude, and ML anomalies.
func (s *Scorer) strengthFor(
	sc models.OpportunityScore,
	ind models.TechnicalIndicators,
	mom models.MomentumMetrics,
	anomalies []models.MLAnomaly,
) models.Strength {
	points := 0

	switch {
	case sc.Total >= 75 || sc.Total <= 25:
		points += 2
	case sc.Total >= 65 || sc.Total <= 35:
		points++
	}

	if ind.RSI <= 25 || ind.RSI >= 75 {
		points++
	}
	if ind.ADX >= 30 {
		points++
	}

	if math.Abs(mom.PriceChange5m) >= 3 {
		points++
	}
	if mom.VolumeSpike >= 2 {
		points++
	}

	if len(anomalies) > 0 {
		points++
		for _, a := range anomalies {
			if a.Severity == models.SeverityHigh || a.Severity == models.SeverityCritical {
				points++
				break
			}
		}
	}

	switch {
	case points >= 5:
		return models.StrengthStrong
	case points >= 3:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}

// confidence is 100 minus a disagreement penalty across the contributing
// component scores, plus a bonus for how far their mean sits from neutral.
func confidence(parts []float64) float64 {
	if len(parts) == 0 {
		return 0
	}
	var mean float64
	for _, p := range parts {
		mean += p
	}
	mean /= float64(len(parts))

	var variance float64
	for _, p := range parts {
		d := p - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(len(parts)))

	penalty := sd / 50 * 100
	bonus := math.Abs(mean-50) / 50 * 20
	return clamp(100-penalty+bonus, 0, 100)
}

// IsValidOpportunity is the admission filter: NEUTRAL never passes, the
// signal must sit on the right side of its threshold, and confidence must be
// at least 50.
func (s *Scorer) IsValidOpportunity(sc models.OpportunityScore) bool {
	if sc.Signal == models.SignalNeutral {
		return false
	}
	if sc.Signal == models.SignalBuy && sc.Total < s.cfg.BuyThreshold {
		return false
	}
	if sc.Signal == models.SignalSell && sc.Total > s.cfg.SellThreshold {
		return false
	}
	return sc.Confidence >= 50
}
