package intake

import (
	"context"
	"fmt"
	"io"
	"os"

	"wrapped/internal/core"
	"wrapped/internal/log"
	"wrapped/internal/source/csvfile"
	gsheet "wrapped/internal/source/google"
	"wrapped/internal/source/memory"
	"wrapped/internal/source/sqlite"
	"wrapped/internal/source/xlsx"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	stdin  io.Reader
}

// NewFactory creates a new intake factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentIntake), stdin: os.Stdin}
}

// Create implements Factory.Create
func (f *DefaultFactory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case CSV:
		return f.createCSV(ctx, cfg)
	case XLSX:
		f.logger.Info("Initialized xlsx source", log.FieldSource, cfg.Path, "sheet", cfg.Sheet)
		return &Result{Reader: xlsx.New(cfg.Path, cfg.Sheet, f.logger)}, nil
	case SQLite:
		return f.createSQLite(cfg)
	case Sheets:
		return f.createSheets(ctx, cfg)
	case Memory:
		return &Result{Reader: memory.New(cfg.Rows...)}, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
}

func (f *DefaultFactory) createCSV(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Path != StdinPath {
		f.logger.Info("Initialized csv source", log.FieldSource, cfg.Path)
		return &Result{Reader: csvfile.New(cfg.Path, f.logger)}, nil
	}

	// Standard input can only be consumed once, so buffer it in memory.
	rows, err := csvfile.Parse(ctx, f.stdin, f.logger)
	if err != nil {
		return nil, fmt.Errorf("read csv from stdin: %w", err)
	}
	f.logger.Info("Initialized csv source from stdin", log.FieldRows, len(rows))
	return &Result{Reader: memory.New(rows...)}, nil
}

func (f *DefaultFactory) createSQLite(cfg Config) (*Result, error) {
	r, err := sqlite.Open(cfg.Path, cfg.Table, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite source: %w", err)
	}
	f.logger.Info("Initialized sqlite source", log.FieldSource, cfg.Path, "table", cfg.Table)
	return &Result{Reader: r, Cleanup: r.Close}, nil
}

func (f *DefaultFactory) createSheets(ctx context.Context, cfg Config) (*Result, error) {
	cli, err := gsheet.NewFromConfig(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets source", "sheet", cfg.GoogleSheetName)
	return &Result{Reader: cli}, nil
}

// Load builds a reader for cfg, reads every row and releases the reader.
func Load(ctx context.Context, f Factory, cfg Config) ([]core.RawRow, error) {
	res, err := f.Create(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return res.Reader.ReadRows(ctx)
}
