package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gestaosocial/internal/backend"
	"gestaosocial/internal/cli"
	"gestaosocial/internal/config"
	apphttp "gestaosocial/internal/http"
	applog "gestaosocial/internal/log"
	"gestaosocial/internal/state"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig((*config.Config).Validate)
	if err != nil {
		cli.Fatal(nil, "Configuration validation failed", err)
	}

	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	defer logger.Close()

	logger.Info("Starting gestaosocial",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"publishing", cfg.AMQPURL != "")

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger.Logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend)).
		CreateBackend(context.Background(), backendCfg)
	if err != nil {
		cli.Fatal(logger.Logger, "Failed to create backend", err)
	}

	stateLog := logger.WithComponent(applog.ComponentState)
	store := state.New(res.Backend,
		state.WithSessionTimeout(cfg.SessionCheckTimeout),
		state.WithLogger(stateLog),
		state.WithNotifier(func(msg string) {
			stateLog.Warn("Operator notified", "message", msg)
		}),
	)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:   ":" + cfg.Port,
		Store:  store,
		Ping:   res.Ping,
		Logger: logger.WithComponent(applog.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger.Logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown error", applog.FieldError, err)
		}
		store.Close()
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	})

	if err := store.Start(ctx); err != nil {
		cli.Fatal(logger.Logger, "Failed to load initial data", err)
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cli.Fatal(logger.Logger, "HTTP server error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
