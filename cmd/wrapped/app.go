package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"wrapped/internal/amqp"
	"wrapped/internal/cache"
	"wrapped/internal/cli"
	"wrapped/internal/config"
	"wrapped/internal/intake"
	"wrapped/internal/log"
	"wrapped/internal/services"
)

// as a CLI application, it has a very short lived lifecycle, so global flags are fine.

var (
	sourcePath = flag.String("source", "", "Order history: a .csv, .xlsx or .db file, or - for CSV on stdin (env WRAPPED_SOURCE_PATH)")
	sourceType = flag.String("type", "", "Source type, one of "+strings.Join(intake.GetTypeStrings(), ", ")+" (inferred from -source)")
	timezone   = flag.String("tz", "", "IANA time zone for years, hours and streaks (env WRAPPED_TIMEZONE)")
	currency   = flag.String("currency", "", "ISO 4217 display currency (env WRAPPED_CURRENCY)")
	logLevel   = flag.String("log-level", "", "debug, info, warn or error (env WRAPPED_LOG_LEVEL)")
	envFile    = flag.String("env-file", "", "Load variables from this file (default ./.env when present)")
)

// usageError marks errors caused by bad flags or configuration.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// applyFlags overrides environment configuration with global flags.
func applyFlags(c *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.SourcePath, *sourcePath)
	set(&c.SourceType, *sourceType)
	set(&c.Timezone, *timezone)
	set(&c.Currency, strings.ToUpper(*currency))
	set(&c.LogLevel, *logLevel)
}

// app holds what every subcommand needs for one run.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	source  *intake.Result
	svc     *services.RecapService
	janitor *cache.Janitor
	cancel  context.CancelFunc
}

// setup loads configuration, opens the order history and builds the recap
// service. The returned context is cancelled on SIGINT/SIGTERM.
func setup(ctx context.Context, withPublisher bool) (*app, context.Context, error) {
	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	if err := cli.LoadEnvFile(files...); err != nil {
		return nil, nil, err
	}
	cfg, err := cli.LoadAndValidateConfig(applyFlags)
	if err != nil {
		return nil, nil, usageError{err}
	}
	if cfg.SourcePath == "" && cfg.SourceType != string(intake.Sheets) {
		return nil, nil, usagef("no order history, pass -source or set WRAPPED_SOURCE_PATH")
	}
	icfg, err := intake.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, usageError{err}
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	logger := cli.SetupLogger(cfg, os.Stderr).With(log.FieldRunID, cli.NewRunID())
	ctx, cancel := cli.SignalContext(ctx, logger)
	ctx = log.NewContext(ctx, logger)
	a := &app{cfg: cfg, logger: logger, cancel: cancel, janitor: cache.NewJanitor(logger)}

	a.source, err = intake.NewFactory(logger).Create(ctx, icfg)
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	recaps := cache.NewLRU[int, *services.Recap](cfg.CacheSize, cfg.CacheTTL)
	a.janitor.Register(recaps)
	a.janitor.Start(ctx, cfg.CacheTTL)

	opts := []services.Option{
		services.WithLocation(loc),
		services.WithLogger(logger),
		services.WithCache(recaps),
		services.WithPublishRate(cfg.AMQPPublishRate),
	}
	if withPublisher {
		if cfg.AMQPURL == "" {
			a.Close()
			return nil, nil, usagef("-publish requires WRAPPED_AMQP_URL")
		}
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		if err != nil {
			a.Close()
			return nil, nil, err
		}
		opts = append(opts, services.WithPublisher(client))
	}
	a.svc = services.NewRecapService(a.source.Reader, opts...)
	return a, ctx, nil
}

// Close releases the publisher and the source, then stops background work.
func (a *app) Close() {
	if a.svc != nil {
		if err := a.svc.Close(); err != nil {
			a.logger.Warn("Failed to close recap service", log.FieldError, err)
		}
	}
	if err := a.source.Close(); err != nil {
		a.logger.Warn("Failed to close order history source", log.FieldError, err)
	}
	a.cancel()
	a.janitor.Wait()
}

// fail prints err and maps it to an exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// createOutput opens path for writing, or returns stdout for "" and "-".
func createOutput(path string) (*os.File, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
