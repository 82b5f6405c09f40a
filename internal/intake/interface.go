package intake

import (
	"context"

	"wrapped/internal/core"
	"wrapped/internal/source"
)

// Type names a kind of order-history source.
type Type string

const (
	CSV    Type = "csv"
	XLSX   Type = "xlsx"
	Sheets Type = "sheets"
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case CSV, XLSX, Sheets, SQLite, Memory:
		return true
	}
	return false
}

// CleanupFunc releases resources held by a reader.
type CleanupFunc func() error

// Result contains the reader and an optional cleanup function.
type Result struct {
	Reader  source.RowReader
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates row readers based on configuration.
type Factory interface {
	Create(ctx context.Context, cfg Config) (*Result, error)
}

// Config holds everything needed to build one reader.
type Config struct {
	Type Type
	Path string

	// Excel
	Sheet string

	// SQLite
	Table string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory
	Rows []core.RawRow
}
