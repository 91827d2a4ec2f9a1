package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/newstone/internal/app"
	"github.com/samvad-hq/newstone/internal/config"
	"github.com/samvad-hq/newstone/internal/logger"
	"github.com/samvad-hq/newstone/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "newstone: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	zl, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Named("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WarnObj("closing event sinks failed", "shutdown_error", map[string]any{"error": err.Error()})
		}
	}()

	if err := a.Pipeline.Populate(ctx); err != nil {
		log.WarnObj("startup population failed, will retry on first read", "populate_failed", map[string]any{
			"topic": cfg.News.Topic,
			"error": err.Error(),
		})
	}

	handler, err := server.New(server.Deps{
		News:        a.Pipeline,
		Cache:       a.Cache,
		FactCheck:   a.FactCheck,
		Memes:       a.Memes,
		DefaultTone: cfg.News.DefaultTone,
		Log:         log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoObj("http server listening", "server_start", map[string]any{"addr": cfg.Server.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.InfoObj("shutting down", "server_stop", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
