package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/df07/go-tile-pathtracer/pkg/core"
	"github.com/df07/go-tile-pathtracer/web/server"
)

func main() {
	defaults := server.DefaultConfig()
	port := flag.Int("port", defaults.Port, "Port to serve on")
	scenesDir := flag.String("scenes", defaults.ScenesDir, "Directory of scene description files")
	workers := flag.Int("workers", 0, "Workers per render (0 = one per CPU)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	level, err := core.ParseLevel(*logLevel)
	if err != nil {
		slog.Error("invalid log level", "error", err)
		os.Exit(1)
	}
	logger := core.NewLogger(os.Stderr, level)

	config := defaults
	config.Port = *port
	config.ScenesDir = *scenesDir
	config.Workers = *workers
	webServer := server.NewServer(config, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	if err := webServer.Start(); err != nil {
		logger.Error("error starting server", "error", err)
		os.Exit(1)
	}
}
