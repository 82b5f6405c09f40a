package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// line builds a normalized line item the way Normalize would.
func line(created time.Time, deliveryMinutes int, store, item, category string, qty int, subtotal string) LineItem {
	return LineItem{
		Item:         item,
		Category:     category,
		StoreName:    store,
		Quantity:     qty,
		Subtotal:     decimal.RequireFromString(subtotal),
		UnitPrice:    decimal.RequireFromString(subtotal),
		CreatedAt:    created,
		DeliveryTime: created.Add(time.Duration(deliveryMinutes) * time.Minute),
		OrderID:      OrderKey(created.Format(time.RFC3339), store),
	}
}

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2024, month, day, hour, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateStatsEmptyIsAbsent(t *testing.T) {
	assert.Nil(t, CalculateStats(nil))
	assert.Nil(t, CalculateStats([]LineItem{}))
}

func TestCalculateStatsAverageOrderValue(t *testing.T) {
	s := CalculateStats([]LineItem{
		line(at(3, 1, 12), 30, "A", "x", "c", 1, "10.00"),
		line(at(3, 2, 12), 30, "B", "y", "c", 1, "20.00"),
	})
	require.NotNil(t, s)
	assert.True(t, s.TotalSpent.Equal(dec("30")), "total %s", s.TotalSpent)
	assert.True(t, s.AvgOrderValue.Equal(dec("15")), "avg %s", s.AvgOrderValue)
	assert.Equal(t, 2, s.TotalOrders)
}

func TestCalculateStatsGroupsLinesIntoOrders(t *testing.T) {
	created := at(5, 10, 19)
	items := []LineItem{
		line(created, 25, "Pizza Place", "Margherita", "Pizza", 1, "12.00"),
		line(created, 25, "Pizza Place", "Garlic Bread", "Sides", 2, "6.00"),
		line(created, 25, "Burger Bar", "Burger", "Burgers", 1, "9.50"),
	}
	s := CalculateStats(items)
	require.NotNil(t, s)
	assert.Equal(t, 2, s.TotalOrders)
	assert.Equal(t, 4, s.TotalItems)
	assert.True(t, s.TotalSpent.Equal(dec("27.5")))
	assert.Equal(t, 2.0, s.AvgItemsPerOrder)
	assert.Equal(t, "Pizza Place", s.MostExpensiveOrder.StoreName)
	assert.True(t, s.MostExpensiveOrder.Total.Equal(dec("18")))
	assert.Len(t, s.MostExpensiveOrder.Items, 2)
	assert.Equal(t, "Burger Bar", s.CheapestOrder.StoreName)
}

func TestGroupOrdersIsTotal(t *testing.T) {
	items := []LineItem{
		line(at(1, 1, 12), 20, "A", "x", "c", 1, "1"),
		line(at(1, 1, 12), 20, "A", "y", "c", 1, "1"),
		line(at(1, 1, 12), 20, "B", "x", "c", 1, "1"),
		line(at(1, 2, 12), 20, "A", "x", "c", 1, "1"),
		line(at(1, 1, 12), 20, "A", "z", "c", 1, "1"),
	}
	orders := GroupOrders(items)
	require.Len(t, orders, 3)

	total := 0
	seen := map[string]int{}
	for _, o := range orders {
		total += len(o.Items)
		for _, it := range o.Items {
			seen[it.Item+"/"+it.OrderID]++
			assert.Equal(t, o.ID, it.OrderID)
		}
	}
	assert.Equal(t, len(items), total)
	assert.Len(t, orders[0].Items, 3)
	assert.Equal(t, []string{"x", "y", "z"}, []string{orders[0].Items[0].Item, orders[0].Items[1].Item, orders[0].Items[2].Item})
}

func TestCalculateStatsLongestStreak(t *testing.T) {
	var items []LineItem
	for _, day := range []int{1, 2, 3, 5, 6} {
		items = append(items, line(at(7, day, 18), 30, "A", "x", "c", 1, "5"))
	}
	s := CalculateStats(items)
	require.NotNil(t, s)
	assert.Equal(t, 3, s.LongestStreak)
	assert.Equal(t, 5, s.TotalDaysActive)
}

func TestCalculateStatsStreakCountsDaysOnce(t *testing.T) {
	s := CalculateStats([]LineItem{
		line(at(7, 1, 9), 30, "A", "x", "c", 1, "5"),
		line(at(7, 1, 20), 30, "B", "x", "c", 1, "5"),
		line(at(7, 10, 9), 30, "A", "x", "c", 1, "5"),
	})
	require.NotNil(t, s)
	assert.Equal(t, 1, s.LongestStreak)
	assert.Equal(t, 2, s.TotalDaysActive)
}

func TestCalculateStatsStreakAcrossDST(t *testing.T) {
	// A zone whose offset shifts by an hour between the two days.
	before := time.Date(2024, 3, 9, 20, 0, 0, 0, time.FixedZone("X", -5*3600))
	after := time.Date(2024, 3, 10, 20, 0, 0, 0, time.FixedZone("Y", -4*3600))
	s := CalculateStats([]LineItem{
		line(before, 30, "A", "x", "c", 1, "5"),
		line(after, 30, "A", "x", "c", 1, "5"),
	})
	require.NotNil(t, s)
	assert.Equal(t, 2, s.LongestStreak)
}

func TestCalculateStatsDeliveryOutliers(t *testing.T) {
	var items []LineItem
	for i, minutes := range []int{10, 45, -5, 150, 30} {
		items = append(items, line(at(4, i+1, 12), minutes, "A", "x", "c", 1, "5"))
	}
	s := CalculateStats(items)
	require.NotNil(t, s)
	assert.Equal(t, 28, s.AvgDeliveryTime)
}

func TestCalculateStatsNoUsableDeliveries(t *testing.T) {
	s := CalculateStats([]LineItem{
		line(at(4, 1, 12), 0, "A", "x", "c", 1, "5"),
		line(at(4, 2, 12), 120, "A", "x", "c", 1, "5"),
	})
	require.NotNil(t, s)
	assert.Equal(t, 0, s.AvgDeliveryTime)
}

func TestCalculateStatsStoreRankingIsStable(t *testing.T) {
	s := CalculateStats([]LineItem{
		line(at(2, 1, 12), 30, "A", "x", "c", 1, "5"),
		line(at(2, 2, 12), 30, "B", "x", "c", 1, "50"),
		line(at(2, 3, 12), 30, "C", "x", "c", 1, "500"),
	})
	require.NotNil(t, s)
	require.Len(t, s.TopStores, 3)
	assert.Equal(t, "A", s.TopStores[0].Name)
	assert.Equal(t, "B", s.TopStores[1].Name)
	assert.Equal(t, "C", s.TopStores[2].Name)
	assert.Equal(t, "A", s.MostFrequentStore.Name)
}

func TestCalculateStatsStoreRankingByOrderCount(t *testing.T) {
	var items []LineItem
	stores := []string{"A", "B", "B", "C", "C", "C", "D", "E", "F", "F"}
	for i, store := range stores {
		items = append(items, line(at(2, i+1, 12), 30, store, "item-"+store, "c", 1, "5"))
	}
	s := CalculateStats(items)
	require.NotNil(t, s)
	require.Len(t, s.TopStores, TopN)
	names := make([]string, len(s.TopStores))
	for i, st := range s.TopStores {
		names[i] = st.Name
	}
	assert.Equal(t, []string{"C", "B", "F", "A", "D"}, names)
	assert.Equal(t, 3, s.TopStores[0].OrderCount)
	assert.True(t, s.TopStores[0].TotalSpent.Equal(dec("15")))
	assert.Equal(t, []string{"item-C", "item-C", "item-C"}, s.TopStores[0].Items)
}

func TestCalculateStatsItemRanking(t *testing.T) {
	s := CalculateStats([]LineItem{
		line(at(6, 1, 12), 30, "Cafe", "Latte", "Drinks", 1, "4"),
		line(at(6, 2, 12), 30, "Cafe", "Bagel", "Bakery", 3, "6"),
		line(at(6, 3, 12), 30, "Kiosk", "Latte", "Drinks", 2, "7"),
		line(at(6, 4, 12), 30, "Cafe", "Muffin", "Bakery", 1, "3"),
	})
	require.NotNil(t, s)
	require.Len(t, s.TopItems, 3)
	// Latte and Bagel tie on 3 units; Latte was seen first.
	assert.Equal(t, "Latte", s.TopItems[0].Name)
	assert.Equal(t, 3, s.TopItems[0].Count)
	assert.True(t, s.TopItems[0].TotalSpent.Equal(dec("11")))
	assert.Equal(t, "Kiosk", s.TopItems[0].Store)
	assert.Equal(t, "Bagel", s.TopItems[1].Name)
	assert.Equal(t, "Muffin", s.TopItems[2].Name)
}

func TestCalculateStatsCategoryRankingBySpend(t *testing.T) {
	s := CalculateStats([]LineItem{
		line(at(6, 1, 12), 30, "Cafe", "Latte", "Drinks", 5, "10"),
		line(at(6, 2, 12), 30, "Cafe", "Steak", "Mains", 1, "30"),
		line(at(6, 3, 12), 30, "Cafe", "Cake", "Dessert", 1, "10"),
	})
	require.NotNil(t, s)
	require.Len(t, s.TopCategories, 3)
	assert.Equal(t, "Mains", s.TopCategories[0].Name)
	assert.Equal(t, "Drinks", s.TopCategories[1].Name)
	assert.Equal(t, 5, s.TopCategories[1].Count)
	assert.Equal(t, "Dessert", s.TopCategories[2].Name)
}

func TestCalculateStatsTimeBuckets(t *testing.T) {
	// 2024-01-05 is a Friday, 2024-01-06 a Saturday, 2024-01-07 a Sunday.
	s := CalculateStats([]LineItem{
		line(time.Date(2024, 2, 2, 23, 0, 0, 0, time.UTC), 30, "A", "x", "c", 1, "5"),
		line(time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC), 30, "A", "x", "c", 1, "5"),
		line(time.Date(2024, 1, 6, 18, 0, 0, 0, time.UTC), 30, "A", "x", "c", 1, "5"),
		line(time.Date(2024, 1, 7, 1, 0, 0, 0, time.UTC), 30, "A", "x", "c", 1, "5"),
		line(time.Date(2024, 1, 12, 7, 30, 0, 0, time.UTC), 30, "A", "x", "c", 1, "5"),
		line(time.Date(2023, 12, 30, 9, 0, 0, 0, time.UTC), 30, "A", "x", "c", 1, "5"),
	})
	require.NotNil(t, s)
	assert.Equal(t, "18:00", s.PeakHour)
	assert.Equal(t, "Friday", s.PeakDay)
	assert.Equal(t, "January 2024", s.BusiestMonth)
	assert.Equal(t, []MonthStat{
		{Month: "December 2023", Count: 1},
		{Month: "January 2024", Count: 4},
		{Month: "February 2024", Count: 1},
	}, s.MonthStats)
	assert.Equal(t, 3, s.WeekendOrders)
	assert.Equal(t, 3, s.WeekdayOrders)
	assert.Equal(t, 2, s.LateNightOrders)
	assert.Equal(t, 1, s.EarlyMorningOrders)
}

func TestCalculateStatsPeakTieKeepsFirstBucket(t *testing.T) {
	s := CalculateStats([]LineItem{
		line(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), 30, "A", "x", "c", 1, "5"),
		line(time.Date(2024, 1, 3, 21, 0, 0, 0, time.UTC), 30, "A", "x", "c", 1, "5"),
	})
	require.NotNil(t, s)
	assert.Equal(t, "9:00", s.PeakHour)
	assert.Equal(t, "Tuesday", s.PeakDay)
}

func TestCalculateStatsDateRangeAndCadence(t *testing.T) {
	s := CalculateStats([]LineItem{
		line(at(1, 11, 12), 30, "A", "x", "c", 1, "5"),
		line(at(1, 1, 12), 30, "A", "x", "c", 1, "5"),
		line(at(1, 5, 12), 30, "A", "x", "c", 1, "5"),
	})
	require.NotNil(t, s)
	assert.True(t, s.FirstOrder.Equal(at(1, 1, 12)))
	assert.True(t, s.LastOrder.Equal(at(1, 11, 12)))
	assert.Equal(t, 5.0, s.AvgDaysBetweenOrders)
}

func TestCalculateStatsSingleOrder(t *testing.T) {
	s := CalculateStats([]LineItem{line(at(1, 1, 12), 30, "A", "x", "c", 3, "5")})
	require.NotNil(t, s)
	assert.Equal(t, 1, s.LongestStreak)
	assert.Equal(t, 0.0, s.AvgDaysBetweenOrders)
	assert.Equal(t, 3.0, s.AvgItemsPerOrder)
	assert.Equal(t, s.MostExpensiveOrder.ID, s.CheapestOrder.ID)
}

func TestCalculateStatsExtremesKeepFirstOnTie(t *testing.T) {
	s := CalculateStats([]LineItem{
		line(at(1, 1, 12), 30, "First", "x", "c", 1, "5"),
		line(at(1, 2, 12), 30, "Second", "x", "c", 1, "5"),
	})
	require.NotNil(t, s)
	assert.Equal(t, "First", s.MostExpensiveOrder.StoreName)
	assert.Equal(t, "First", s.CheapestOrder.StoreName)
}

func TestCalculateStatsDoesNotMutateInput(t *testing.T) {
	items := []LineItem{
		line(at(1, 2, 12), 30, "B", "x", "c", 1, "5"),
		line(at(1, 1, 12), 30, "A", "y", "c", 2, "7"),
	}
	snapshot := append([]LineItem(nil), items...)
	CalculateStats(items)
	assert.Equal(t, snapshot, items)
}
