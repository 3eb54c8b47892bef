package server

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BarScan/internal/domain/models"
	"BarScan/internal/domain/repository"
	"BarScan/internal/usecase"
	"BarScan/pkg/config"
	xhttp "BarScan/pkg/http"
	"BarScan/pkg/logger"
)

// App ties the wired pipeline to its two entry modes: a one-shot scan
// that prints results, and a long-running HTTP server.
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	scanner   *usecase.Scanner
	handler   xhttp.Handler
	store     repository.SignalStore
	publisher repository.SignalPublisher

	httpServer *xhttp.Server
}

func New(
	cfg *config.Config,
	log *logger.Logger,
	scanner *usecase.Scanner,
	handler xhttp.Handler,
	store repository.SignalStore,
	publisher repository.SignalPublisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		scanner:   scanner,
		handler:   handler,
		store:     store,
		publisher: publisher,
	}
}

// RunOnce executes a single scan over [rangeStart, rangeEnd] using the
// configured exchange, pattern and parameters, and writes the signal
// list plus report as JSON to stdout. Exit-code semantics: setup and
// sink errors fail the run; per-session and per-ticker gaps do not.
func (a *App) RunOnce(ctx context.Context, rangeStart, rangeEnd time.Time) error {
	signals, report, err := a.scanner.Scan(ctx, usecase.ScanRequest{
		Exchange:   a.cfg.Scan.Exchange,
		Pattern:    a.cfg.Scan.Pattern,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Params:     models.NewScanParams(a.cfg.Scan.Params),
	})
	if err != nil {
		return err
	}
	if signals == nil {
		signals = []models.Signal{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(models.ScanResponseBody{Signals: signals, Report: *report})
}

// Serve runs the HTTP server until an interrupt arrives, then shuts
// down gracefully.
func (a *App) Serve() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.log.Info("server started", logger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Warn("http shutdown error", logger.Error(err))
	}
	return nil
}

// Close releases the sink clients.
func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close error", logger.Error(err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", logger.Error(err))
		}
	}
}
