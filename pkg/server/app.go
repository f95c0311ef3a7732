package server

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"NightScan/internal/usecase"
	"NightScan/pkg/config"
	xhttp "NightScan/pkg/http"
	"NightScan/pkg/logger"
)

// App owns the process lifecycle around one pipeline run: the optional
// status HTTP server, signal handling, and teardown of infrastructure
// clients. Unlike a daemon it runs the pipeline once and exits.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	pipeline   *usecase.Pipeline
	httpServer *xhttp.Server
	closers    []io.Closer
}

// New assembles the app. statusHandler may be nil when the status
// server is disabled; closers are closed in reverse order on shutdown.
func New(cfg *config.Config, log *logger.Logger, pipeline *usecase.Pipeline, statusHandler xhttp.Handler, closers ...io.Closer) *App {
	a := &App{
		cfg:      cfg,
		log:      log,
		pipeline: pipeline,
		closers:  closers,
	}
	if cfg.Server.Enabled {
		a.httpServer = xhttp.NewServer(statusHandler,
			xhttp.WithPort(cfg.Server.Port),
			xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		)
	}
	return a
}

// Run executes one pipeline run in the given mode and blocks until it
// finishes or a termination signal cancels it. The returned error is the
// pipeline's failure, if any.
func (a *App) Run(mode string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("status server start failed", logger.Error(err))
			return err
		}
	}

	_, runErr := a.pipeline.Run(ctx, mode)

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Warn("status server shutdown error", logger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("close error", logger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
}
