package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"EpiCast/internal/usecase"
	pkgch "EpiCast/pkg/clickhouse"
	"EpiCast/pkg/config"
	xhttp "EpiCast/pkg/http"
	pkgkafka "EpiCast/pkg/kafka"
	applogger "EpiCast/pkg/logger"
	"EpiCast/pkg/queue"
)

// App encapsulates the service lifecycle: the ops HTTP server, the Kafka
// record consumers, the training job workers and the forecast schedule.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	consumer   *pkgkafka.Consumer
	handlers   []pkgkafka.MessageHandler
	jobQueue   *queue.RedisQueue
	scheduler  *usecase.ForecastScheduler
	processor  *usecase.RecordProcessor
	chClient   *pkgch.Client
	httpServer *xhttp.Server
	hh         xhttp.Handler
}

// New creates a new App instance with all dependencies. Optional pieces
// (consumer, queue, scheduler) may be nil and are simply not started.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	hh xhttp.Handler,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	jobQueue *queue.RedisQueue,
	scheduler *usecase.ForecastScheduler,
	processor *usecase.RecordProcessor,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		logger:    log,
		hh:        hh,
		consumer:  consumer,
		handlers:  handlers,
		jobQueue:  jobQueue,
		scheduler: scheduler,
		processor: processor,
		chClient:  chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.hh,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.consumer != nil {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
			a.logger.Info("kafka consumer handler registered", applogger.String("topic", h.Topic()))
		}
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			a.logger.Error("job queue start error", applogger.Error(err))
			return err
		}
		a.jobQueue.StartRetryProcessor()
		a.logger.Info("training job workers started", applogger.Int("workers", a.cfg.Queue.Workers))
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			a.logger.Error("scheduler start error", applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("ops server listening", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			a.logger.Warn("job queue stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// processor closes the publisher and the series store beneath it
	if a.processor != nil {
		a.processor.Close()
	} else if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
