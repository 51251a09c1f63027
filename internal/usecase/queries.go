package usecase

import (
	"context"
	"fmt"
	"sort"

	"OppRadar/internal/domain/models"
	domrepo "OppRadar/internal/domain/repository"
	xutil "OppRadar/pkg/util"
)

// QueryService serves the consumer-facing read paths: recent opportunities
// with filters, per-symbol history, aggregate stats, the monitored symbol
// set, and operator-triggered re-analysis.
type QueryService struct {
	store  domrepo.OpportunityStore
	sched  *Scheduler
	stream domrepo.MarketStream
}

func NewQueryService(store domrepo.OpportunityStore, sched *Scheduler, stream domrepo.MarketStream) *QueryService {
	return &QueryService{store: store, sched: sched, stream: stream}
}

// Recent lists opportunities from the 24h window, newest first.
func (q *QueryService) Recent(ctx context.Context, req models.RecentOpportunitiesRequest) ([]*models.TradingOpportunity, error) {
	f := domrepo.OpportunityFilter{
		Limit:         req.Limit,
		MinScore:      req.MinScore,
		Signal:        models.Signal(req.Signal),
		MinConfidence: req.MinConfidence,
	}
	if t, ok := xutil.ParseTime(req.Since); ok {
		f.Since = t
	}
	opps, err := q.store.Recent(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("recent opportunities: %w", err)
	}
	return opps, nil
}

// BySymbol lists a single symbol's recent opportunities.
func (q *QueryService) BySymbol(ctx context.Context, symbol string, limit int) ([]*models.TradingOpportunity, error) {
	opps, err := q.store.Recent(ctx, domrepo.OpportunityFilter{Limit: limit, Symbol: symbol})
	if err != nil {
		return nil, fmt.Errorf("opportunities for %s: %w", symbol, err)
	}
	return opps, nil
}

// Stats aggregates the 24h window by signal and strength.
func (q *QueryService) Stats(ctx context.Context) (*models.OpportunityStats, error) {
	st, err := q.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("opportunity stats: %w", err)
	}
	return st, nil
}

// MonitoredSymbols returns the symbols under periodic analysis, sorted.
func (q *QueryService) MonitoredSymbols() []string {
	syms := q.sched.Watched()
	sort.Strings(syms)
	return syms
}

// Analyze triggers one out-of-band analysis cycle for symbol.
func (q *QueryService) Analyze(ctx context.Context, symbol string) (*models.TradingOpportunity, error) {
	return q.sched.AnalyzeNow(ctx, symbol)
}

// StreamConnected reports feed health for the health endpoint.
func (q *QueryService) StreamConnected() bool {
	return q.stream.IsConnected()
}
