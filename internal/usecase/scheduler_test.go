package usecase

import (
	"context"
	"testing"
	"time"

	"OppRadar/internal/buffer"
	"OppRadar/pkg/queue"
)

func waitOutcome(t *testing.T, m *fakeMetrics, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-m.analysis:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q analysis outcome", want)
		}
	}
}

func newTestScheduler(clock Clock, pool *queue.Pool, m *fakeMetrics) (*Scheduler, *buffer.Store) {
	buf := buffer.NewStore(1000)
	a := newTestAnalyzer(buf, &fakeDetector{}, &fakePublisher{}, &fakeStore{}, m, 0)
	s := NewScheduler(buf, a, pool, m, testLogger(), 30*time.Second, WithSchedulerClock(clock))
	return s, buf
}

func TestSchedulerWatchIdempotent(t *testing.T) {
	clock := newFakeClock()
	pool := queue.NewPool(1, 4)
	m := newFakeMetrics()
	s, buf := newTestScheduler(clock, pool, m)
	defer s.Stop()

	ctx := context.Background()
	s.Watch(ctx, "BTCUSDT")
	s.Watch(ctx, "BTCUSDT")

	if got := s.Watched(); len(got) != 1 || got[0] != "BTCUSDT" {
		t.Fatalf("Watched = %v, want [BTCUSDT]", got)
	}
	if _, ok := buf.Snapshot("BTCUSDT"); !ok {
		t.Fatal("watching must register the symbol's buffer")
	}
}

func TestSchedulerTickTriggersAnalysis(t *testing.T) {
	clock := newFakeClock()
	pool := queue.NewPool(1, 4)
	m := newFakeMetrics()
	s, _ := newTestScheduler(clock, pool, m)
	defer s.Stop()

	ctx := context.Background()
	pool.Start(ctx)
	s.Watch(ctx, "BTCUSDT")

	// empty buffer, so the cycle runs and reports insufficient data
	clock.tick()
	waitOutcome(t, m, "insufficient_data")
}

func TestSchedulerIntervalGate(t *testing.T) {
	clock := newFakeClock()
	pool := queue.NewPool(1, 4)
	m := newFakeMetrics()
	s, _ := newTestScheduler(clock, pool, m)
	defer s.Stop()

	ctx := context.Background()
	pool.Start(ctx)
	s.Watch(ctx, "BTCUSDT")

	clock.tick()
	waitOutcome(t, m, "insufficient_data")

	// same instant: the min-interval gate rejects the overlapping fire
	clock.tick()
	waitOutcome(t, m, "interval_gate")

	// past the interval the gate opens again
	clock.advance(31 * time.Second)
	clock.tick()
	waitOutcome(t, m, "insufficient_data")
}

func TestSchedulerPoolFull(t *testing.T) {
	clock := newFakeClock()
	pool := queue.NewPool(1, 1)
	pool.Stop()
	m := newFakeMetrics()
	s, _ := newTestScheduler(clock, pool, m)

	ctx := context.Background()
	s.Watch(ctx, "BTCUSDT")
	defer s.Stop()

	clock.tick()
	waitOutcome(t, m, "pool_full")
}

func TestSchedulerPoolFullKeepsIntervalSlot(t *testing.T) {
	clock := newFakeClock()
	pool := queue.NewPool(1, 1)
	pool.Stop()
	m := newFakeMetrics()
	s, _ := newTestScheduler(clock, pool, m)
	defer s.Stop()

	s.Watch(context.Background(), "BTCUSDT")

	clock.tick()
	waitOutcome(t, m, "pool_full")

	// The dropped cycle released its slot, so the next fire at the same
	// instant is rejected by the pool again, not by the interval gate.
	clock.tick()
	waitOutcome(t, m, "pool_full")
}

func TestAnalyzeNowMutualExclusion(t *testing.T) {
	clock := newFakeClock()
	pool := queue.NewPool(1, 4)
	m := newFakeMetrics()
	s, buf := newTestScheduler(clock, pool, m)
	defer s.Stop()

	ctx := context.Background()
	s.Watch(ctx, "BTCUSDT")

	// Hold the symbol's analysis slot as a scheduled cycle would.
	if !buf.TryBeginAnalysis("BTCUSDT", clock.Now(), 0) {
		t.Fatal("analysis slot should be free")
	}
	opp, err := s.AnalyzeNow(ctx, "BTCUSDT")
	if err != nil || opp != nil {
		t.Fatalf("AnalyzeNow while busy = (%v, %v), want (nil, nil)", opp, err)
	}
	waitOutcome(t, m, "busy")

	// Released and still inside the periodic interval: manual runs skip the
	// interval gate but not the data gates.
	buf.EndAnalysis("BTCUSDT")
	if _, err := s.AnalyzeNow(ctx, "BTCUSDT"); err != nil {
		t.Fatalf("AnalyzeNow after release: %v", err)
	}
	waitOutcome(t, m, "insufficient_data")
}

func TestSchedulerUnwatch(t *testing.T) {
	clock := newFakeClock()
	pool := queue.NewPool(1, 4)
	m := newFakeMetrics()
	s, buf := newTestScheduler(clock, pool, m)
	defer s.Stop()

	ctx := context.Background()
	s.Watch(ctx, "ETHUSDT")
	s.Unwatch("ETHUSDT")

	if got := s.Watched(); len(got) != 0 {
		t.Fatalf("Watched = %v, want empty", got)
	}
	if _, ok := buf.Snapshot("ETHUSDT"); ok {
		t.Fatal("unwatch must drop the symbol's buffer")
	}
}

func TestSchedulerStop(t *testing.T) {
	clock := newFakeClock()
	pool := queue.NewPool(1, 4)
	m := newFakeMetrics()
	s, _ := newTestScheduler(clock, pool, m)

	ctx := context.Background()
	pool.Start(ctx)
	s.Watch(ctx, "BTCUSDT")
	s.Watch(ctx, "ETHUSDT")
	s.Stop()

	if got := s.Watched(); len(got) != 0 {
		t.Fatalf("Watched after Stop = %v, want empty", got)
	}
	if pool.Submit(func(context.Context) {}) {
		t.Fatal("pool must reject work after Stop")
	}
}

func TestSafeAnalyzeRecoversPanic(t *testing.T) {
	buf := buffer.NewStore(1000)
	fillFlat(buf, "BTCUSDT", 250, 100, 1e6)
	m := newFakeMetrics()
	// nil scorer makes the cycle panic once it gets past the data gates
	a := NewAnalyzer(buf, &fakeDetector{}, nil, &fakePublisher{}, &fakeStore{}, m, testLogger(), "bybit", 100, 0)
	pool := queue.NewPool(1, 4)
	s := NewScheduler(buf, a, pool, m, testLogger(), 30*time.Second, WithSchedulerClock(newFakeClock()))
	defer s.Stop()

	s.safeAnalyze(context.Background(), "BTCUSDT")

	m.mu.Lock()
	panics := m.errors["analysis_panic"]
	m.mu.Unlock()
	if panics != 1 {
		t.Fatalf("analysis_panic count = %d, want 1", panics)
	}
}
