package usecase

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"OppRadar/internal/buffer"
	"OppRadar/internal/domain/models"
	mid "OppRadar/internal/middleware"
	"OppRadar/pkg/queue"
)

func newTestMonitor(stream *fakeStream) (*Monitor, *buffer.Store, *Scheduler) {
	m := newFakeMetrics()
	buf := buffer.NewStore(1000)
	a := newTestAnalyzer(buf, &fakeDetector{}, &fakePublisher{}, &fakeStore{}, m, 0)
	sched := NewScheduler(buf, a, queue.NewPool(1, 4), m, testLogger(), 30*time.Second, WithSchedulerClock(newFakeClock()))
	pipe := mid.NewTickPipeline(buf, m)
	return NewMonitor(stream, pipe, sched, testLogger()), buf, sched
}

func TestMonitorStartSubscribesAndWatches(t *testing.T) {
	stream := &fakeStream{symbols: []string{"BTCUSDT", "ETHUSDT"}}
	mon, buf, sched := newTestMonitor(stream)
	defer sched.Stop()

	if err := mon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !mon.IsConnected() {
		t.Fatal("expected connected after Start")
	}
	if !reflect.DeepEqual(stream.subscribed, []string{"BTCUSDT", "ETHUSDT"}) {
		t.Fatalf("subscribed = %v", stream.subscribed)
	}
	watched := sched.Watched()
	sort.Strings(watched)
	if !reflect.DeepEqual(watched, []string{"BTCUSDT", "ETHUSDT"}) {
		t.Fatalf("watched = %v", watched)
	}
	if stream.handler == nil {
		t.Fatal("tick handler not installed")
	}

	// a tick delivered through the installed handler lands in the buffer
	stream.handler("BTCUSDT", models.Ticker{LastPrice: 50000, Turnover24h: 1e9})
	snap, ok := buf.Snapshot("BTCUSDT")
	if !ok || len(snap.Samples) != 1 {
		t.Fatalf("snapshot = (%+v, %v), want one sample", snap, ok)
	}
	if snap.LastPrice != 50000 {
		t.Fatalf("LastPrice = %v, want 50000", snap.LastPrice)
	}
}

func TestMonitorStartFailsWithoutSymbols(t *testing.T) {
	mon, _, _ := newTestMonitor(&fakeStream{})
	if err := mon.Start(context.Background()); err == nil {
		t.Fatal("expected error with no tradable symbols")
	}
}

func TestMonitorStartListError(t *testing.T) {
	stream := &fakeStream{listErr: errors.New("rest down")}
	mon, _, _ := newTestMonitor(stream)
	if err := mon.Start(context.Background()); err == nil {
		t.Fatal("expected error when enumeration fails")
	}
}

func TestMonitorShutdownClosesStream(t *testing.T) {
	stream := &fakeStream{symbols: []string{"BTCUSDT"}}
	mon, _, sched := newTestMonitor(stream)

	if err := mon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := mon.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !stream.closed {
		t.Fatal("stream not closed")
	}
	if got := sched.Watched(); len(got) != 0 {
		t.Fatalf("watched after shutdown = %v", got)
	}
}
