package repository

import (
	"context"
	"time"

	"OppRadar/internal/domain/models"
)

// TickHandler receives the merged ticker state after each update.
type TickHandler func(symbol string, tk models.Ticker)

// MarketStream is one persistent connection to the exchange ticker feed.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbols ...string) error
	Unsubscribe(ctx context.Context, symbols ...string) error
	OnTick(h TickHandler)
	ListTradableSymbols(ctx context.Context) ([]string, error)
	Close() error
	IsConnected() bool
}

// OpportunityPublisher fans an admitted opportunity out to the pub/sub
// topics. Failures are logged by callers and never abort the cycle.
type OpportunityPublisher interface {
	Publish(ctx context.Context, opp *models.TradingOpportunity) error
	Close() error
}

// OpportunityFilter narrows a recent-opportunity query. Zero values mean
// "no filter" except Limit, which callers must set.
type OpportunityFilter struct {
	Limit         int
	MinScore      float64
	Signal        models.Signal
	MinConfidence float64
	Symbol        string
	Since         time.Time // clamped to the retention window by the store
}

// OpportunityStore durably appends opportunities and serves the recent
// window (24h) back out.
type OpportunityStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, opp *models.TradingOpportunity) error
	Recent(ctx context.Context, f OpportunityFilter) ([]*models.TradingOpportunity, error)
	Stats(ctx context.Context) (*models.OpportunityStats, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordTick(symbol string)
	RecordAnalysis(symbol, outcome string)
	RecordOpportunity(signal string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
