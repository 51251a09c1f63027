package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "OppRadar/internal/domain/repository"
	"OppRadar/internal/usecase"
	pkgch "OppRadar/pkg/clickhouse"
	"OppRadar/pkg/config"
	xhttp "OppRadar/pkg/http"
	applogger "OppRadar/pkg/logger"
	"OppRadar/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	monitor     *usecase.Monitor
	pool        *queue.Pool
	store       domrepo.OpportunityStore
	publisher   domrepo.OpportunityPublisher
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	monitor *usecase.Monitor,
	pool *queue.Pool,
	store domrepo.OpportunityStore,
	publisher domrepo.OpportunityPublisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		monitor:   monitor,
		pool:      pool,
		store:     store,
		publisher: publisher,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.store.Init(ctx); err != nil {
		return err
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithServerLogger(a.l),
	)

	a.pool.Start(ctx)

	if err := a.monitor.Start(ctx); err != nil {
		return err
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("app started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services. Triggers stop first so no new
// analysis cycles start, then in-flight cycles drain, then infrastructure
// clients close.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.monitor.Shutdown(ctx); err != nil {
		a.l.Warn("monitor stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.l.Warn("store close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
