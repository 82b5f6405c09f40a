// Package csvfile reads order-history exports saved as CSV.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"wrapped/internal/core"
	"wrapped/internal/log"
	"wrapped/internal/source"
)

var _ source.RowReader = (*Reader)(nil)

type Reader struct {
	path   string
	logger *log.Logger
}

func New(path string, logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.Discard()
	}
	return &Reader{path: path, logger: logger.WithComponent(log.ComponentIntake)}
}

func (r *Reader) Describe() string { return "csv:" + r.path }

// ReadRows opens the file and parses it with Parse.
func (r *Reader) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return Parse(ctx, f, r.logger)
}

// Parse reads a header row followed by data rows. Malformed lines are
// logged and skipped rather than failing the whole export.
func Parse(ctx context.Context, in io.Reader, logger *log.Logger) ([]core.RawRow, error) {
	if logger == nil {
		logger = log.Discard()
	}
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", source.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var (
		records [][]string
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skipped++
			logger.Warn("skipping malformed csv line", "line", perr.Line, log.FieldError, perr.Err.Error())
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, rec)
	}

	rows, err := source.RowsFromMatrix(header, records)
	if err != nil {
		return nil, err
	}
	logger.Debug("csv parsed", log.FieldRows, len(rows), "skipped", skipped)
	return rows, nil
}
