package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wrapped/internal/core"
)

var (
	// ErrMissingColumn is returned when an export lacks a required timestamp column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnsupportedType is returned for an unknown source type.
	ErrUnsupportedType = errors.New("unsupported source type")
)

// Ports for inbound adapters.
type (
	// RowReader yields the raw rows of one order-history export.
	RowReader interface {
		ReadRows(ctx context.Context) ([]core.RawRow, error)
	}

	// Describer is implemented by readers that can name where their rows come from.
	Describer interface {
		Describe() string
	}
)

// HeaderKey normalises a header cell to the column naming of the export:
// trimmed, upper case, with spaces and hyphens turned into underscores.
func HeaderKey(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, s)
}

// RowsFromMatrix keys every data row by the header row. Rows with no
// non-blank cell are skipped; short rows leave trailing columns empty.
func RowsFromMatrix(header []string, rows [][]string) ([]core.RawRow, error) {
	keys := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		keys[i] = HeaderKey(h)
		seen[keys[i]] = true
	}
	for _, required := range []string{core.ColCreatedAt, core.ColDeliveryTime} {
		if !seen[required] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	out := make([]core.RawRow, 0, len(rows))
	for _, cells := range rows {
		if blank(cells) {
			continue
		}
		row := make(core.RawRow, len(keys))
		for i, k := range keys {
			if k == "" {
				continue
			}
			if i < len(cells) {
				row[k] = cells[i]
			} else {
				row[k] = ""
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
