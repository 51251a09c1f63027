package usecase

import (
	"context"
	"sync"
	"time"

	"OppRadar/internal/domain/models"
	domrepo "OppRadar/internal/domain/repository"
	applogger "OppRadar/pkg/logger"
)

func testLogger() *applogger.Logger {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}

type fakeMetrics struct {
	mu       sync.Mutex
	analyses map[string]int // outcome -> count
	errors   map[string]int
	opps     map[string]int
	analysis chan string // outcome notifications
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		analyses: make(map[string]int),
		errors:   make(map[string]int),
		opps:     make(map[string]int),
		analysis: make(chan string, 64),
	}
}

func (m *fakeMetrics) RecordTick(string) {}
func (m *fakeMetrics) RecordAnalysis(_, outcome string) {
	m.mu.Lock()
	m.analyses[outcome]++
	m.mu.Unlock()
	select {
	case m.analysis <- outcome:
	default:
	}
}
func (m *fakeMetrics) RecordOpportunity(signal string) {
	m.mu.Lock()
	m.opps[signal]++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}

func (m *fakeMetrics) analysisCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analyses[outcome]
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.TradingOpportunity
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, opp *models.TradingOpportunity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, opp)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeStore struct {
	mu         sync.Mutex
	stored     []*models.TradingOpportunity
	err        error
	lastFilter domrepo.OpportunityFilter
	recent     []*models.TradingOpportunity
}

func (s *fakeStore) Init(context.Context) error { return nil }
func (s *fakeStore) Store(_ context.Context, opp *models.TradingOpportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, opp)
	return nil
}
func (s *fakeStore) Recent(_ context.Context, f domrepo.OpportunityFilter) ([]*models.TradingOpportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = f
	return s.recent, s.err
}
func (s *fakeStore) Stats(context.Context) (*models.OpportunityStats, error) { return nil, nil }
func (s *fakeStore) Health(context.Context) error                            { return nil }
func (s *fakeStore) Close() error                                            { return nil }

type fakeStream struct {
	connected  bool
	symbols    []string
	listErr    error
	subscribed []string
	handler    domrepo.TickHandler
	closed     bool
}

func (s *fakeStream) Connect(context.Context) error {
	s.connected = true
	return nil
}

func (s *fakeStream) Subscribe(_ context.Context, symbols ...string) error {
	s.subscribed = append(s.subscribed, symbols...)
	return nil
}

func (s *fakeStream) Unsubscribe(context.Context, ...string) error { return nil }

func (s *fakeStream) OnTick(h domrepo.TickHandler) { s.handler = h }

func (s *fakeStream) ListTradableSymbols(context.Context) ([]string, error) {
	return s.symbols, s.listErr
}

func (s *fakeStream) Close() error {
	s.closed = true
	s.connected = false
	return nil
}

func (s *fakeStream) IsConnected() bool { return s.connected }

type fakeDetector struct {
	anomalies []models.MLAnomaly
	err       error
}

func (d *fakeDetector) GetAnomalies(context.Context, string) ([]models.MLAnomaly, error) {
	return d.anomalies, d.err
}
func (d *fakeDetector) ClearCache(string) {}
func (d *fakeDetector) ClearAll()         {}

// fakeClock drives scheduler tickers by hand.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
	ch  chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now(), ch: make(chan time.Time, 1)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) tick() { c.ch <- c.Now() }

func (c *fakeClock) NewTicker(time.Duration) Ticker { return fakeTicker{c.ch} }

type fakeTicker struct{ ch chan time.Time }

func (t fakeTicker) C() <-chan time.Time { return t.ch }
func (t fakeTicker) Stop()               {}
