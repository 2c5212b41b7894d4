package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PriceOpt/internal/middleware"
	"PriceOpt/internal/usecase"
	"PriceOpt/pkg/config"
	xhttp "PriceOpt/pkg/http"
	pkgkafka "PriceOpt/pkg/kafka"
	"PriceOpt/pkg/logger"
	"PriceOpt/pkg/queue"
)

const flushInterval = 5 * time.Second

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	pipeline   *middleware.RealtimePipeline
	proc       *usecase.ObservationProcessor
	queue      queue.Queue
}

type Option func(*App)

// WithConsumer enables the observation stream; a nil consumer leaves it off.
func WithConsumer(c *pkgkafka.Consumer, p *middleware.RealtimePipeline, proc *usecase.ObservationProcessor) Option {
	return func(a *App) {
		a.consumer, a.pipeline, a.proc = c, p, proc
	}
}

// WithQueue enables background enrichment workers.
func WithQueue(q queue.Queue) Option {
	return func(a *App) { a.queue = q }
}

func New(cfg *config.Config, log *logger.Logger, httpServer *xhttp.Server, opts ...Option) *App {
	a := &App{cfg: cfg, log: log, httpServer: httpServer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts every component and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and shuts down when ctx ends.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			return err
		}
		a.log.Info("enrichment queue started", logger.String("queue", a.cfg.Queue.Name))
	}

	flushed := make(chan struct{})
	if a.consumer != nil {
		a.pipeline.Start(runCtx)
		go func() {
			defer close(flushed)
			a.proc.RunFlusher(runCtx, flushInterval)
		}()
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer error", logger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", logger.String("topic", a.cfg.Kafka.ObservationsTopic))
	} else {
		close(flushed)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	a.shutdown(cancel, flushed)
	return nil
}

// shutdown stops intake first (HTTP, Kafka), then drains background work.
func (a *App) shutdown(cancelRun context.CancelFunc, flushed <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", logger.Error(err))
		}
		a.pipeline.Stop()
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.log.Warn("queue stop error", logger.Error(err))
		}
	}

	cancelRun()
	select {
	case <-flushed:
	case <-ctx.Done():
		a.log.Warn("analysis flush timed out")
	}
	a.log.Info("shutdown complete")
}
