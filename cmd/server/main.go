// Package main implements the entry point for the todo API server, which
// serves the project and task HTTP API and runs the auto-close scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/todo-api/internal/app"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

func main() {
	configFile := flag.String("config", "", "path to a configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l := logger.Setup(cfg.Server.LogLevel)
	l.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"driver", cfg.Database.Driver)

	application, err := app.New(ctx, cfg, l, app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	return serve(ctx, application)
}

// serve runs the HTTP server and, when enabled, the auto-close scheduler
// until ctx is cancelled or either fails.
func serve(ctx context.Context, application *app.Application) error {
	cfg := application.Config
	l := application.Logger

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: application.Router(),
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Scheduler.Enabled {
		if err := application.Scheduler.Start(gCtx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		l.Info("auto-close scheduler disabled")
	}

	g.Go(func() error {
		l.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		l.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			l.Error("server shutdown failed", slog.String("error", err.Error()))
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		application.Scheduler.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	l.Info("server shutdown completed")
	return nil
}
