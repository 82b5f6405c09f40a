// Package sqlite reads order history from a table of a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"

	_ "modernc.org/sqlite"

	"wrapped/internal/core"
	"wrapped/internal/log"
	"wrapped/internal/source"
)

var ErrInvalidTable = errors.New("invalid table name")

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var _ source.RowReader = (*Reader)(nil)

type Reader struct {
	db     *sql.DB
	path   string
	table  string
	logger *log.Logger
}

// Open opens dbPath read-only. The database must already exist.
func Open(dbPath, table string, logger *log.Logger) (*Reader, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("stat sqlite database: %w", err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Reader{db: db, path: dbPath, table: table, logger: logger.WithComponent(log.ComponentIntake)}, nil
}

func (r *Reader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Reader) Describe() string { return "sqlite:" + r.path + "#" + r.table }

// ReadRows selects every row of the table in rowid order. Column names
// act as the header; NULL cells read as empty strings.
func (r *Reader) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, r.table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var matrix [][]string
	cells := make([]sql.NullString, len(header))
	dest := make([]any, len(header))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec := make([]string, len(cells))
		for i, c := range cells {
			rec[i] = c.String
		}
		matrix = append(matrix, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	out, err := source.RowsFromMatrix(header, matrix)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", r.table, err)
	}
	r.logger.DebugContext(ctx, "table read", "table", r.table, log.FieldRows, len(out))
	return out, nil
}
