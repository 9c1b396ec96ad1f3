// Package cli holds the startup and shutdown steps shared by the binaries
// under cmd/.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gestaosocial/internal/config"
	applog "gestaosocial/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. The caller closes it on exit.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     cfg.LogLevel,
		Component: component,
		File:      cfg.LogFile,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and runs validate on it, which
// is Config.Validate for the server and Config.ValidateWorker for workers.
func LoadAndValidateConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Fatal reports a startup failure with whatever logger is available and
// exits.
func Fatal(logger *slog.Logger, msg string, err error) {
	if logger == nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	} else {
		logger.Error(msg, applog.FieldError, err)
	}
	os.Exit(1)
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM after
// running cleanup with a context bounded by timeout. The returned channel
// closes once cleanup has finished.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		runShutdown(logger, timeout, cleanup, cancel)
		close(done)
	}()

	return ctx, done
}

func runShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context), cancel context.CancelFunc) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if cleanup != nil {
		cleanup(shutdownCtx)
	}
	cancel()

	if shutdownCtx.Err() != nil {
		logger.Warn("Shutdown timeout reached", "timeout", timeout)
		return
	}
	logger.Info("Shutdown complete")
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
