package middleware

import (
	"fmt"
	"sync"
	"time"

	"OppRadar/internal/buffer"
	"OppRadar/internal/domain/models"
	domrepo "OppRadar/internal/domain/repository"
)

// TickPipeline sits between the WebSocket connector and the buffer store.
// It validates merged ticker states, throttles per-symbol append rate, and
// records ingest metrics. Throttled ticks are dropped silently; the buffer
// only needs the nominal cadence, not every sub-second update.
type TickPipeline struct {
	store   *buffer.Store
	metrics domrepo.Metrics
	maxRPS  int

	mu       sync.Mutex
	lastSeen map[string]time.Time
	now      func() time.Time
}

type PipelineOption func(*TickPipeline)

// WithMaxRPS caps accepted ticks per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *TickPipeline) { p.now = now }
}

// NewTickPipeline creates the ingest pipeline.
func NewTickPipeline(store *buffer.Store, metrics domrepo.Metrics, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{
		store:    store,
		metrics:  metrics,
		maxRPS:   4,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest validates and appends one merged ticker state. It is the
// connector's tick handler.
func (p *TickPipeline) Ingest(symbol string, tk models.Ticker) {
	now := p.now()
	if err := validateTicker(symbol, tk); err != nil {
		p.metrics.RecordError("ingest_validate")
		return
	}
	if !p.allow(symbol, now) {
		return
	}

	p.store.Append(symbol, tk.Sample(now))
	p.metrics.RecordTick(symbol)
	p.metrics.RecordLastPrice(symbol, tk.LastPrice)
}

func validateTicker(symbol string, tk models.Ticker) error {
	if symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if tk.LastPrice <= 0 {
		return fmt.Errorf("price not positive")
	}
	if tk.Turnover24h < 0 {
		return fmt.Errorf("negative turnover")
	}
	return nil
}

func (p *TickPipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
