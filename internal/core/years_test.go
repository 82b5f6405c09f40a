package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func itemAt(t time.Time, store string) LineItem {
	return LineItem{
		StoreName:    store,
		CreatedAt:    t,
		DeliveryTime: t.Add(30 * time.Minute),
		OrderID:      OrderKey(t.Format(time.DateTime), store),
	}
}

func TestAvailableYears(t *testing.T) {
	items := []LineItem{
		itemAt(time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC), "A"),
		itemAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), "A"),
		itemAt(time.Date(2022, 7, 1, 12, 0, 0, 0, time.UTC), "B"),
		itemAt(time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC), "C"),
		{StoreName: "no timestamp"},
	}
	assert.Equal(t, []int{2024, 2023, 2022}, AvailableYears(items))
}

func TestAvailableYearsEmpty(t *testing.T) {
	assert.Empty(t, AvailableYears(nil))
}

func TestFilterByYearAllYearsReturnsInput(t *testing.T) {
	items := []LineItem{
		itemAt(time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC), "C"),
		itemAt(time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC), "A"),
		{StoreName: "no timestamp"},
	}
	got := FilterByYear(items, AllYears)
	assert.Equal(t, items, got)
	assert.Same(t, &items[0], &got[0])
}

func TestFilterByYear(t *testing.T) {
	items := []LineItem{
		itemAt(time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC), "first"),
		itemAt(time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC), "other"),
		{StoreName: "no timestamp"},
		itemAt(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC), "second"),
	}
	got := FilterByYear(items, 2023)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "first", got[0].StoreName)
		assert.Equal(t, "second", got[1].StoreName)
	}
	assert.Empty(t, FilterByYear(items, 1999))
}

func TestYearCounts(t *testing.T) {
	noon := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	same := itemAt(noon, "A")
	items := []LineItem{
		same,
		same, // second line of the same order
		itemAt(noon.Add(time.Hour), "A"),
		itemAt(time.Date(2024, 2, 2, 9, 0, 0, 0, time.UTC), "B"),
	}
	assert.Equal(t, []YearCount{{Year: 2024, Orders: 1}, {Year: 2023, Orders: 2}}, YearCounts(items))
}
