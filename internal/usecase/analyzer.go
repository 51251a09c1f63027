package usecase

import (
	"context"
	"errors"
	"time"

	"OppRadar/internal/buffer"
	"OppRadar/internal/domain/models"
	domrepo "OppRadar/internal/domain/repository"
	domsvc "OppRadar/internal/domain/service"
	"OppRadar/internal/services/analytics"
	applogger "OppRadar/pkg/logger"
)

// Analyzer runs one analysis cycle for one symbol: indicators, momentum,
// best-effort ML enrichment, score fusion, admission, then publish + store.
// Each cycle is self-contained; no state is shared across symbols.
type Analyzer struct {
	buffers   *buffer.Store
	anomalies domsvc.AnomalyDetector
	scorer    *analytics.Scorer
	publisher domrepo.OpportunityPublisher
	store     domrepo.OpportunityStore
	metrics   domrepo.Metrics
	l         *applogger.Logger

	exchange     string
	minSamples   int
	minVolumeUSD float64
}

// NewAnalyzer wires an analysis cycle.
func NewAnalyzer(
	buffers *buffer.Store,
	anomalies domsvc.AnomalyDetector,
	scorer *analytics.Scorer,
	publisher domrepo.OpportunityPublisher,
	store domrepo.OpportunityStore,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	exchange string,
	minSamples int,
	minVolumeUSD float64,
) *Analyzer {
	if minSamples <= 0 {
		minSamples = 100
	}
	return &Analyzer{
		buffers:      buffers,
		anomalies:    anomalies,
		scorer:       scorer,
		publisher:    publisher,
		store:        store,
		metrics:      metrics,
		l:            l,
		exchange:     exchange,
		minSamples:   minSamples,
		minVolumeUSD: minVolumeUSD,
	}
}

// Analyze runs one cycle. A nil opportunity with nil error means the cycle
// was gated or produced no admissible signal; that is the common case.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*models.TradingOpportunity, error) {
	start := time.Now()
	snap, ok := a.buffers.Snapshot(symbol)
	if !ok || len(snap.Samples) < a.minSamples {
		a.metrics.RecordAnalysis(symbol, "insufficient_data")
		return nil, nil
	}
	if a.minVolumeUSD > 0 && snap.Volume24h < a.minVolumeUSD {
		a.metrics.RecordAnalysis(symbol, "low_volume")
		return nil, nil
	}

	ind, err := analytics.ComputeIndicators(snap.Samples)
	if err != nil {
		if errors.Is(err, analytics.ErrInsufficientData) {
			a.metrics.RecordAnalysis(symbol, "insufficient_data")
			return nil, nil
		}
		a.metrics.RecordAnalysis(symbol, "error")
		return nil, err
	}
	mom, err := analytics.ComputeMomentum(snap.Samples)
	if err != nil {
		a.metrics.RecordAnalysis(symbol, "insufficient_data")
		return nil, nil
	}

	// ML enrichment is best-effort; unavailable means score without it
	anoms, err := a.anomalies.GetAnomalies(ctx, symbol)
	if err != nil {
		if !errors.Is(err, domsvc.ErrMLUnavailable) {
			a.l.Warn("anomaly fetch error", applogger.String("symbol", symbol), applogger.Error(err))
		}
		anoms = nil
	}

	score := a.scorer.CalculateScore(
		analytics.TechnicalScore(ind, snap.LastPrice),
		analytics.MomentumScore(mom),
		ind, mom, anoms,
	)
	a.metrics.RecordLatency("analyze", time.Since(start).Seconds())

	if !a.scorer.IsValidOpportunity(score) {
		a.metrics.RecordAnalysis(symbol, "no_opportunity")
		return nil, nil
	}

	opp := &models.TradingOpportunity{
		Timestamp:  time.Now().UTC(),
		Symbol:     symbol,
		Exchange:   a.exchange,
		Signal:     score.Signal,
		Score:      score,
		Price:      snap.LastPrice,
		Volume24h:  snap.Volume24h,
		Indicators: ind,
		Momentum:   mom,
		Anomalies:  anoms,
	}

	// publish first, then persist; each failure is logged and non-fatal,
	// with no cross-consistency guarantee between the two
	if err := a.publisher.Publish(ctx, opp); err != nil {
		a.metrics.RecordError("publish")
		a.l.Error("publish opportunity failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	if err := a.store.Store(ctx, opp); err != nil {
		a.metrics.RecordError("store")
		a.l.Error("store opportunity failed", applogger.String("symbol", symbol), applogger.Error(err))
	}

	a.metrics.RecordAnalysis(symbol, "opportunity")
	a.metrics.RecordOpportunity(string(score.Signal))
	a.l.Info("opportunity detected",
		applogger.String("symbol", symbol),
		applogger.String("signal", string(score.Signal)),
		applogger.String("strength", string(score.Strength)),
		applogger.Float64("total", score.Total),
		applogger.Float64("confidence", score.Confidence),
	)
	return opp, nil
}
