package usecase

import (
	"context"
	"fmt"

	domrepo "OppRadar/internal/domain/repository"
	mid "OppRadar/internal/middleware"
	applogger "OppRadar/pkg/logger"
)

// Monitor owns the subscription lifecycle: enumerate tradable symbols once
// at startup, subscribe them all, route ticks through the ingest pipeline,
// and register one analysis trigger per symbol. Stop reverses this.
type Monitor struct {
	stream domrepo.MarketStream
	pipe   *mid.TickPipeline
	sched  *Scheduler
	l      *applogger.Logger
}

func NewMonitor(stream domrepo.MarketStream, pipe *mid.TickPipeline, sched *Scheduler, l *applogger.Logger) *Monitor {
	return &Monitor{stream: stream, pipe: pipe, sched: sched, l: l}
}

// Start connects the feed and begins monitoring every tradable symbol.
func (m *Monitor) Start(ctx context.Context) error {
	symbols, err := m.stream.ListTradableSymbols(ctx)
	if err != nil {
		return fmt.Errorf("enumerate symbols: %w", err)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no tradable symbols")
	}

	m.stream.OnTick(m.pipe.Ingest)

	if err := m.stream.Connect(ctx); err != nil {
		return err
	}
	if err := m.stream.Subscribe(ctx, symbols...); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	for _, sym := range symbols {
		m.sched.Watch(ctx, sym)
	}

	m.l.Info("monitoring started", applogger.Int("symbols", len(symbols)))
	return nil
}

// Shutdown cancels the per-symbol triggers (draining in-flight cycles) and
// closes the socket.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.sched.Stop()
	return m.stream.Close()
}

// IsConnected reports feed status.
func (m *Monitor) IsConnected() bool { return m.stream.IsConnected() }
