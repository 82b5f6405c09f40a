// Package cli provides the initialization shared by the wrapped subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"wrapped/internal/config"
	"wrapped/internal/log"
)

// LoadEnvFile loads a .env file for local use. With no paths it loads ./.env
// and a missing file is not an error.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err == nil {
		return nil
	}
	if len(paths) == 0 && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file: %w", err)
}

// LoadAndValidateConfig loads the configuration, lets override adjust it
// (typically with flag values), then validates it.
func LoadAndValidateConfig(override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg, writing to w, and installs
// it as the slog default.
func SetupLogger(cfg *config.Config, w io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    w,
	})
	log.SetDefault(logger)
	return logger
}

// NewRunID returns an identifier correlating the log lines of one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// SignalContext returns a context cancelled on SIGINT, SIGTERM or when the
// returned cancel func is called.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
