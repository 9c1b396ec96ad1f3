package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gestaosocial/internal/config"
)

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9090")

	cfg, err := LoadAndValidateConfig((*config.Config).Validate)
	if err != nil {
		t.Fatalf("LoadAndValidateConfig: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}

	t.Setenv("DATA_BACKEND", "postgres")
	if _, err := LoadAndValidateConfig((*config.Config).Validate); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestLoadAndValidateConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	if _, err := LoadAndValidateConfig(nil); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	file := filepath.Join(t.TempDir(), "app.log")
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFile: file}, "worker")
	logger.Debug("hello")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "component=worker") {
		t.Errorf("log file missing component: %s", data)
	}
	if slog.Default() != logger.Logger {
		t.Error("logger was not installed as default")
	}
}

func TestRunShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := false
	runShutdown(slog.New(slog.DiscardHandler), time.Second, func(c context.Context) {
		called = true
		if _, ok := c.Deadline(); !ok {
			t.Error("cleanup context should carry a deadline")
		}
	}, cancel)

	if !called {
		t.Fatal("cleanup was not run")
	}
	if ctx.Err() == nil {
		t.Fatal("context should be cancelled after shutdown")
	}
}
