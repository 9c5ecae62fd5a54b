package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SigForge/internal/usecase"
	pkgcache "SigForge/pkg/cache"
	pkgch "SigForge/pkg/clickhouse"
	"SigForge/pkg/config"
	xhttp "SigForge/pkg/http"
	pkgkafka "SigForge/pkg/kafka"
	applogger "SigForge/pkg/logger"
	pkgqueue "SigForge/pkg/queue"
)

// App encapsulates the application lifecycle. Serve mode runs the HTTP API
// plus the optional Kafka and queue consumers; the one-shot entrypoints run
// a single pipeline unit or a backfill plan and return.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	runner      *usecase.PipelineRunner
	backfill    *usecase.Backfill
	job         *usecase.PipelineJob
	consumer    *pkgkafka.Consumer
	jobsHandler pkgkafka.MessageHandler
	producer    *pkgkafka.Producer
	queue       *pkgqueue.RedisQueue
	chClient    *pkgch.Client
	cache       pkgcache.Service
}

// New creates a new App instance with all dependencies. Kafka, queue and
// ClickHouse dependencies are nil when the corresponding backend is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	runner *usecase.PipelineRunner,
	backfill *usecase.Backfill,
	job *usecase.PipelineJob,
	consumer *pkgkafka.Consumer,
	jobsHandler pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	queue *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	cache pkgcache.Service,
) *App {
	return &App{
		cfg:         cfg,
		l:           l,
		httpHandler: handler,
		runner:      runner,
		backfill:    backfill,
		job:         job,
		consumer:    consumer,
		jobsHandler: jobsHandler,
		producer:    producer,
		queue:       queue,
		chClient:    chClient,
		cache:       cache,
	}
}

// Run starts serve mode and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout.Std(), a.cfg.Server.WriteTimeout.Std(), a.cfg.Server.ShutdownTimeout.Std()),
		xhttp.WithLogger(a.l),
	)

	// Queue workers consume backfill units enqueued by one-shot runs.
	if a.queue != nil {
		a.queue.RegisterJob(a.job)
		if err := a.queue.Start(); err != nil {
			a.l.Error("queue start error", applogger.Error(err))
			return err
		}
	}

	// Kafka consumer turns job messages into pipeline runs.
	if a.consumer != nil && a.jobsHandler != nil {
		a.consumer.RegisterHandler(a.jobsHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.jobsHandler.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("serving",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("backend", a.cfg.Storage.Backend),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// RunOnce executes one pipeline unit synchronously.
func (a *App) RunOnce(ctx context.Context, symbol, date, task string) (*usecase.RunSummary, error) {
	return a.runner.RunTask(ctx, symbol, date, task)
}

// RunBackfill executes or enqueues a backfill plan.
func (a *App) RunBackfill(ctx context.Context, symbols []string, from, to, task string) (int, error) {
	return a.backfill.Run(ctx, symbols, from, to, task)
}

// Close releases infrastructure clients. One-shot modes call it instead of
// the serve-mode shutdown path.
func (a *App) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.l.Warn("queue stop error", applogger.Error(err))
		}
	}

	a.Close()

	a.l.Info("shutdown complete")
	return nil
}
