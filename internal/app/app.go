package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/syllabus-merge/internal/clients"
	"github.com/amaumene/syllabus-merge/internal/config"
	"github.com/amaumene/syllabus-merge/internal/handler"
	"github.com/amaumene/syllabus-merge/internal/service"
	log "github.com/sirupsen/logrus"
)

type App struct {
	cfg    *config.Config
	server *http.Server
}

func New(cfg *config.Config, version string) *App {
	merger := NewMergeService(cfg)
	httpHandler := handler.NewHTTPHandler(merger, cfg.MaxRequestBytes, version)

	return &App{
		cfg:    cfg,
		server: &http.Server{
			Addr:         cfg.Address(),
			Handler:      httpHandler.Routes(cfg.AllowedOrigins),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// NewMergeService builds the merge pipeline with a source client bounded by cfg.
func NewMergeService(cfg *config.Config) *service.MergeService {
	fetcher := clients.NewSourceClient(clients.SourceConfig{
		Timeout:   cfg.FetchTimeout,
		MaxBytes:  cfg.MaxDocumentBytes,
		UserAgent: cfg.UserAgent,
	}, nil)
	return service.NewMergeService(fetcher)
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run listens on the configured address and serves until shutdown.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or a termination signal arrives.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Registered before serving so no signal is missed once requests flow.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"component": "server",
			"address":   ln.Addr().String(),
		}).Info("http server listening")

		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	return a.waitForShutdown(ctx, sigChan, serveErr)
}

func (a *App) waitForShutdown(ctx context.Context, sigChan <-chan os.Signal, serveErr <-chan error) error {
	select {
	case <-ctx.Done():
		log.WithField("reason", "context_cancelled").Info("initiating graceful shutdown")
	case sig := <-sigChan:
		log.WithField("signal", sig).Info("received shutdown signal")
	case err, ok := <-serveErr:
		if ok && err != nil {
			log.WithFields(log.Fields{
				"component": "server",
				"error":     err,
			}).Error("http server failed")
			return fmt.Errorf("serving http: %w", err)
		}
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	log.Info("graceful shutdown started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		log.WithFields(log.Fields{
			"component": "server",
			"error":     err,
		}).Error("http server shutdown failed")
		return err
	}

	log.Info("graceful shutdown completed")
	return nil
}
