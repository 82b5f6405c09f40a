package explore

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"wrapped/internal/core"
)

// ExportHeader is the header row written by WriteCSV.
var ExportHeader = []string{"Date", "Store", "Item", "Category", "Quantity", "Price", "Address"}

// WriteCSV writes items with ExportHeader. Dates are RFC 3339 in UTC.
func WriteCSV(w io.Writer, items []core.LineItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, it := range items {
		rec := []string{
			it.CreatedAt.UTC().Format(time.RFC3339),
			it.StoreName,
			it.Item,
			it.Category,
			strconv.Itoa(it.Quantity),
			it.Subtotal.String(),
			it.DeliveryAddress,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFileName returns the default export file name for day.
func ExportFileName(day time.Time) string {
	return "wrapped-data-" + day.Format(time.DateOnly) + ".csv"
}
