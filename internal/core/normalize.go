package core

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Normalizer converts raw export rows into typed line items.
//
// Timestamps are read with a permissive parser in Location, which also
// defines the calendar used for years, days and hours downstream. A nil
// Location means time.Local.
type Normalizer struct {
	Location *time.Location
}

// NormalizeReport counts what a normalization pass did with its input.
type NormalizeReport struct {
	Rows    int
	Kept    int
	Dropped int
}

// Normalize converts rows using the local time zone. See Normalizer.Normalize.
func Normalize(rows []RawRow) []LineItem {
	return Normalizer{}.Normalize(rows)
}

// Normalize converts every row into a LineItem. Rows whose CREATED_AT or
// DELIVERY_TIME cannot be read as a timestamp are dropped without error;
// unreadable numbers become zero. The input is not modified.
func (n Normalizer) Normalize(rows []RawRow) []LineItem {
	items, _ := n.NormalizeWithReport(rows)
	return items
}

// NormalizeWithReport is Normalize plus the count of kept and dropped rows.
func (n Normalizer) NormalizeWithReport(rows []RawRow) ([]LineItem, NormalizeReport) {
	loc := n.location()
	items := make([]LineItem, 0, len(rows))
	for _, row := range rows {
		item, ok := normalizeRow(row, loc)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, NormalizeReport{
		Rows:    len(rows),
		Kept:    len(items),
		Dropped: len(rows) - len(items),
	}
}

// ParseTimestamp reads an export timestamp in loc. Values carrying their own
// offset are converted to loc so calendar fields follow the local calendar.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t.In(loc), true
}

func (n Normalizer) location() *time.Location {
	if n.Location == nil {
		return time.Local
	}
	return n.Location
}

func normalizeRow(row RawRow, loc *time.Location) (LineItem, bool) {
	createdAt, ok := ParseTimestamp(row[ColCreatedAt], loc)
	if !ok {
		return LineItem{}, false
	}
	deliveryTime, ok := ParseTimestamp(row[ColDeliveryTime], loc)
	if !ok {
		return LineItem{}, false
	}
	return LineItem{
		Item:            row[ColItem],
		Category:        row[ColCategory],
		StoreName:       row[ColStoreName],
		UnitPrice:       ParseAmount(row[ColUnitPrice]),
		Quantity:        ParseQuantity(row[ColQuantity]),
		Subtotal:        ParseAmount(row[ColSubtotal]),
		CreatedAt:       createdAt,
		DeliveryTime:    deliveryTime,
		DeliveryAddress: row[ColDeliveryAddress],
		OrderID:         OrderKey(row[ColCreatedAt], row[ColStoreName]),
	}, true
}
