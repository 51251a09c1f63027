package usecase

import (
	"context"
	"sync"
	"time"

	"OppRadar/internal/buffer"
	"OppRadar/internal/domain/models"
	domrepo "OppRadar/internal/domain/repository"
	applogger "OppRadar/pkg/logger"
	"OppRadar/pkg/queue"
)

// Clock abstracts time so the scheduler's gating is testable without real
// delays.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the minimal ticker surface the scheduler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

func (realClock) Now() time.Time                   { return time.Now() }
func (realClock) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (t realTicker) C() <-chan time.Time { return t.t.C }
func (t realTicker) Stop()               { t.t.Stop() }

// Scheduler owns one periodic analysis trigger per watched symbol. Timers
// are independent; the actual work runs on a bounded pool so one slow cycle
// cannot block the rest.
type Scheduler struct {
	buffers  *buffer.Store
	analyzer *Analyzer
	pool     *queue.Pool
	metrics  domrepo.Metrics
	l        *applogger.Logger
	clock    Clock
	interval time.Duration

	mu      sync.Mutex
	cancels map[string]chan struct{}
}

// SchedulerOption configures the scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock overrides the wall clock.
func WithSchedulerClock(c Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// NewScheduler creates the scheduler. interval defaults to 30s.
func NewScheduler(
	buffers *buffer.Store,
	analyzer *Analyzer,
	pool *queue.Pool,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	interval time.Duration,
	opts ...SchedulerOption,
) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	s := &Scheduler{
		buffers:  buffers,
		analyzer: analyzer,
		pool:     pool,
		metrics:  metrics,
		l:        l,
		clock:    realClock{},
		interval: interval,
		cancels:  make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch registers the symbol's buffer and starts its periodic trigger.
// Idempotent.
func (s *Scheduler) Watch(ctx context.Context, symbol string) {
	s.mu.Lock()
	if _, ok := s.cancels[symbol]; ok {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.cancels[symbol] = stop
	s.mu.Unlock()

	s.buffers.Register(symbol)
	go s.run(ctx, symbol, stop)
}

// Unwatch cancels the symbol's trigger and drops its buffer.
func (s *Scheduler) Unwatch(symbol string) {
	s.mu.Lock()
	if stop, ok := s.cancels[symbol]; ok {
		close(stop)
		delete(s.cancels, symbol)
	}
	s.mu.Unlock()
	s.buffers.Drop(symbol)
}

func (s *Scheduler) run(ctx context.Context, symbol string, stop <-chan struct{}) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C():
			s.fire(ctx, symbol)
		}
	}
}

// fire gates on the per-symbol min interval (checked-and-set atomically in
// the buffer store, so overlapping fires cannot both pass) and hands the
// cycle to the pool.
func (s *Scheduler) fire(ctx context.Context, symbol string) {
	if !s.buffers.TryBeginAnalysis(symbol, s.clock.Now(), s.interval) {
		s.metrics.RecordAnalysis(symbol, "interval_gate")
		return
	}
	submitted := s.pool.Submit(func(taskCtx context.Context) {
		defer s.buffers.EndAnalysis(symbol)
		s.safeAnalyze(taskCtx, symbol)
	})
	if !submitted {
		// A dropped cycle must not consume the interval slot.
		s.buffers.AbortAnalysis(symbol)
		s.metrics.RecordAnalysis(symbol, "pool_full")
	}
}

// safeAnalyze isolates a cycle: a panic inside the math for one symbol is
// logged and must never take down another symbol's pipeline.
func (s *Scheduler) safeAnalyze(ctx context.Context, symbol string) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.RecordError("analysis_panic")
			s.l.Error("analysis panicked", applogger.String("symbol", symbol), applogger.Any("panic", r))
		}
	}()
	if _, err := s.analyzer.Analyze(ctx, symbol); err != nil {
		s.metrics.RecordError("analysis")
		s.l.Warn("analysis failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
}

// AnalyzeNow runs one cycle immediately, bypassing the min-interval gate but
// not the mutual exclusion with scheduled cycles or the data-sufficiency and
// volume gates. While a cycle for the symbol is in flight the call returns
// (nil, nil). The manual run stamps the analysis mark, so it counts toward
// the next periodic interval.
func (s *Scheduler) AnalyzeNow(ctx context.Context, symbol string) (*models.TradingOpportunity, error) {
	if !s.buffers.TryBeginAnalysis(symbol, s.clock.Now(), 0) {
		s.metrics.RecordAnalysis(symbol, "busy")
		return nil, nil
	}
	defer s.buffers.EndAnalysis(symbol)
	return s.analyzer.Analyze(ctx, symbol)
}

// Watched returns the currently scheduled symbols.
func (s *Scheduler) Watched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.cancels))
	for sym := range s.cancels {
		out = append(out, sym)
	}
	return out
}

// Stop cancels every per-symbol trigger and waits for in-flight cycles to
// flush their publish and store calls.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for sym, stop := range s.cancels {
		close(stop)
		delete(s.cancels, sym)
	}
	s.mu.Unlock()
	s.pool.Stop()
}
