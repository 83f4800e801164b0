package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pharmadelivery/cmd"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	logger := newLogger(configs.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, configs, logger)
	if err != nil {
		log.Fatalf("Error building application: %v", err)
	}

	if configs.SeedFile != "" {
		res, err := app.Seed(ctx, configs.SeedFile)
		if err != nil {
			log.Fatalf("Error seeding from %s: %v", configs.SeedFile, err)
		}
		logger.Info("seed applied",
			"pharmacies", res.Pharmacies, "medicines", res.Medicines,
			"doctors", res.Doctors, "couriers", res.Couriers)
	}

	if err := run(ctx, app, configs.HTTPPort, logger); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// run serves HTTP and the background jobs until ctx is cancelled, then
// drains in-flight webhook events before closing connections.
func run(ctx context.Context, app *cmd.CompositionRoot, port string, logger *slog.Logger) error {
	if err := app.Jobs.StartAll(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "port", port)
		if err := app.Router.Start(fmt.Sprintf("0.0.0.0:%s", port)); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := app.Router.Shutdown(shutdownCtx)
		err = errors.Join(err, app.Server.Drain(shutdownCtx))
		app.Jobs.StopAll()
		return errors.Join(err, app.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
