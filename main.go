package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"flos/internal/config"
	"flos/internal/daemon"
	"flos/internal/observability"
)

func initLogger(cfg *config.Config) {
	var logLevel slog.Level
	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	once := flag.Bool("once", false, "Run a single ingestion cycle and exit")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("FLOS_CONFIG_PATH", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		// Logger isn't initialized yet
		basicLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		basicLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	if *once {
		// No listener for a one-shot run
		cfg.HTTPAddr = ""
	}

	d, err := daemon.New(cfg, observability.NewMetrics(), nil)
	if err != nil {
		slog.Error("Failed to create daemon", "error", err)
		os.Exit(1)
	}

	if *once {
		os.Exit(runOnce(d, cfg))
	}

	if err := d.Start(); err != nil {
		slog.Error("Failed to start daemon", "error", err)
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := d.Stop(ctx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}

	slog.Info("Shutdown complete")
}

func runOnce(d *daemon.Daemon, cfg *config.Config) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := 0
	if _, err := d.RunOnce(ctx); err != nil {
		slog.Error("Ingestion cycle failed", "error", err)
		code = 1
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := d.Stop(stopCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}
	return code
}
