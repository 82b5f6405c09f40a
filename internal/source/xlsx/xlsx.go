// Package xlsx reads order-history exports saved as Excel workbooks.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"wrapped/internal/core"
	"wrapped/internal/log"
	"wrapped/internal/source"
)

var ErrSheetNotFound = errors.New("sheet not found")

var _ source.RowReader = (*Reader)(nil)

type Reader struct {
	path   string
	sheet  string
	logger *log.Logger
}

// New returns a reader for path. An empty sheet selects the first sheet
// whose header row carries the export columns.
func New(path, sheet string, logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.Discard()
	}
	return &Reader{path: path, sheet: strings.TrimSpace(sheet), logger: logger.WithComponent(log.ComponentIntake)}
}

func (r *Reader) Describe() string {
	if r.sheet == "" {
		return "xlsx:" + r.path
	}
	return "xlsx:" + r.path + "#" + r.sheet
}

func (r *Reader) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet, rows, err := r.pick(f)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", source.ErrMissingColumn, sheet)
	}

	out, err := source.RowsFromMatrix(rows[0], rows[1:])
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	r.logger.Debug("workbook parsed", "sheet", sheet, log.FieldRows, len(out))
	return out, nil
}

func (r *Reader) pick(f *excelize.File) (string, [][]string, error) {
	sheets := f.GetSheetList()
	if r.sheet != "" {
		for _, sh := range sheets {
			if strings.EqualFold(sh, r.sheet) {
				rows, err := f.GetRows(sh)
				if err != nil {
					return "", nil, fmt.Errorf("read sheet %q: %w", sh, err)
				}
				return sh, rows, nil
			}
		}
		return "", nil, fmt.Errorf("%w: %q (have %v)", ErrSheetNotFound, r.sheet, sheets)
	}

	var firstName string
	var firstRows [][]string
	for i, sh := range sheets {
		rows, err := f.GetRows(sh)
		if err != nil {
			return "", nil, fmt.Errorf("read sheet %q: %w", sh, err)
		}
		if i == 0 {
			firstName, firstRows = sh, rows
		}
		if len(rows) > 0 && hasTimestampHeader(rows[0]) {
			return sh, rows, nil
		}
	}
	if firstName == "" {
		return "", nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	return firstName, firstRows, nil
}

func hasTimestampHeader(header []string) bool {
	for _, h := range header {
		if source.HeaderKey(h) == core.ColCreatedAt {
			return true
		}
	}
	return false
}
