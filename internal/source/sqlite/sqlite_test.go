package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrapped/internal/core"
	"wrapped/internal/source"
)

func seedDB(t *testing.T, ddl string, inserts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(ddl)
	require.NoError(t, err)
	for _, q := range inserts {
		_, err = db.Exec(q)
		require.NoError(t, err)
	}
	return path
}

func TestReadRows(t *testing.T) {
	path := seedDB(t,
		`CREATE TABLE orders (created_at TEXT, delivery_time TEXT, item TEXT, quantity INTEGER, subtotal REAL, delivery_address TEXT)`,
		`INSERT INTO orders VALUES ('2024-03-01 12:00:00', '2024-03-01 12:30:00', 'Burger', 2, 20.5, NULL)`,
		`INSERT INTO orders VALUES ('2024-03-02 19:00:00', '2024-03-02 19:40:00', 'Ramen', 1, 14, '1 Main St')`,
	)

	r, err := Open(path, "orders", nil)
	require.NoError(t, err)
	defer r.Close()

	rows, err := r.ReadRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Burger", rows[0][core.ColItem])
	assert.Equal(t, "2", rows[0][core.ColQuantity])
	assert.Equal(t, "20.5", rows[0][core.ColSubtotal])
	assert.Equal(t, "", rows[0][core.ColDeliveryAddress])
	assert.Equal(t, "1 Main St", rows[1][core.ColDeliveryAddress])
}

func TestReadRowsMissingColumns(t *testing.T) {
	path := seedDB(t, `CREATE TABLE orders (item TEXT)`)
	r, err := Open(path, "orders", nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadRows(context.Background())
	assert.ErrorIs(t, err, source.ErrMissingColumn)
}

func TestOpenRejectsBadInput(t *testing.T) {
	path := seedDB(t, `CREATE TABLE orders (created_at TEXT, delivery_time TEXT)`)

	_, err := Open(path, `orders"; DROP TABLE orders; --`, nil)
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = Open(filepath.Join(t.TempDir(), "missing.db"), "orders", nil)
	assert.Error(t, err)
}

func TestReadRowsUnknownTable(t *testing.T) {
	path := seedDB(t, `CREATE TABLE orders (created_at TEXT, delivery_time TEXT)`)
	r, err := Open(path, "history", nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadRows(context.Background())
	assert.Error(t, err)
}
