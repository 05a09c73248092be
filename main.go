package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vhours/internal/config"
	"vhours/internal/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	log := observability.NewLogger(cfg.Env, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, "vhours", cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing disabled", "err", err)
		} else {
			defer func() {
				shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Warn("tracer shutdown failed", "err", err)
				}
			}()
		}
	}

	if err := cfg.RequireBackend(); err != nil {
		log.Warn("backend not configured, requests will fail", "err", err)
	}

	store, err := OpenStateStore(ctx, cfg.State)
	if err != nil {
		log.Error("failed to open state store", "backend", cfg.State.Backend, "err", err)
		return 1
	}
	defer store.Close()

	app, err := NewApp(ctx, AppOptions{
		Config:      cfg,
		Logger:      log,
		Store:       store,
		In:          os.Stdin,
		Out:         os.Stdout,
		Interactive: IsTerminal(os.Stdin),
	})
	if err != nil {
		log.Error("failed to start", "err", err)
		return 1
	}
	defer app.Close()

	if err := SetupCommands(app).ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}
