package core

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Deliveries at or beyond this many minutes are treated as bad data.
	maxDeliveryMinutes = 120

	lateNightFrom    = 22
	lateNightUntil   = 2
	earlyMorningFrom = 5
	earlyMorningTo   = 9
)

// CalculateStats derives the recap statistics of a line item set.
//
// It returns nil when items is empty: there is nothing to show, which is not
// an error. Every ranking breaks ties by first appearance in items, so the
// result is fully determined by the input order.
func CalculateStats(items []LineItem) *Summary {
	if len(items) == 0 {
		return nil
	}

	orders := GroupOrders(items)
	s := &Summary{TotalOrders: len(orders)}

	for _, o := range orders {
		s.TotalSpent = s.TotalSpent.Add(o.Total)
	}
	for _, it := range items {
		s.TotalItems += it.Quantity
	}
	s.AvgOrderValue = s.TotalSpent.Div(decimal.NewFromInt(int64(s.TotalOrders)))

	s.TopStores = rankStores(orders)
	s.TopItems = rankItems(items)
	s.TopCategories = rankCategories(items)
	if len(s.TopStores) > 0 {
		s.MostFrequentStore = s.TopStores[0]
	}

	s.PeakHour, s.PeakDay, s.BusiestMonth, s.MonthStats = timeBuckets(orders)
	s.AvgDeliveryTime = avgDeliveryMinutes(orders)

	s.MostExpensiveOrder, s.CheapestOrder = extremes(orders)
	s.FirstOrder, s.LastOrder = dateRange(orders)

	days := activeDays(orders)
	s.TotalDaysActive = len(days)
	s.LongestStreak = longestStreak(days)

	for _, o := range orders {
		switch o.CreatedAt.Weekday() {
		case time.Saturday, time.Sunday:
			s.WeekendOrders++
		default:
			s.WeekdayOrders++
		}
		h := o.CreatedAt.Hour()
		if h >= lateNightFrom || h < lateNightUntil {
			s.LateNightOrders++
		}
		if h >= earlyMorningFrom && h < earlyMorningTo {
			s.EarlyMorningOrders++
		}
	}

	s.AvgItemsPerOrder = roundTo(float64(s.TotalItems)/float64(s.TotalOrders), 1)
	if s.TotalOrders > 1 {
		spanDays := s.LastOrder.Sub(s.FirstOrder).Hours() / 24
		s.AvgDaysBetweenOrders = roundTo(spanDays/float64(s.TotalOrders-1), 1)
	}

	return s
}

func rankStores(orders []Order) []StoreStat {
	stores := newOrdered[string, StoreStat]()
	for _, o := range orders {
		st := stores.get(o.StoreName, func() StoreStat {
			return StoreStat{Name: o.StoreName, Items: []string{}}
		})
		st.OrderCount++
		st.TotalSpent = st.TotalSpent.Add(o.Total)
		for _, it := range o.Items {
			st.Items = append(st.Items, it.Item)
		}
	}
	list := stores.list()
	slices.SortStableFunc(list, func(a, b StoreStat) int {
		return b.OrderCount - a.OrderCount
	})
	return topN(list, TopN)
}

func rankItems(items []LineItem) []ItemStat {
	stats := newOrdered[string, ItemStat]()
	for _, it := range items {
		st := stats.get(it.Item, func() ItemStat {
			return ItemStat{Name: it.Item}
		})
		st.Count += it.Quantity
		st.TotalSpent = st.TotalSpent.Add(it.Subtotal)
		// last one wins, even when the item name spans stores
		st.Store = it.StoreName
	}
	list := stats.list()
	slices.SortStableFunc(list, func(a, b ItemStat) int {
		return b.Count - a.Count
	})
	return topN(list, TopN)
}

func rankCategories(items []LineItem) []CategoryStat {
	stats := newOrdered[string, CategoryStat]()
	for _, it := range items {
		st := stats.get(it.Category, func() CategoryStat {
			return CategoryStat{Name: it.Category}
		})
		st.Count += it.Quantity
		st.TotalSpent = st.TotalSpent.Add(it.Subtotal)
	}
	list := stats.list()
	slices.SortStableFunc(list, func(a, b CategoryStat) int {
		return b.TotalSpent.Cmp(a.TotalSpent)
	})
	return topN(list, TopN)
}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) label() string {
	return fmt.Sprintf("%s %d", k.month, k.year)
}

type bucket[K comparable] struct {
	key   K
	count int
}

// peak returns the key with the highest count. Among equal counts the bucket
// seen first wins.
func peak[K comparable](b *ordered[K, bucket[K]]) (K, bool) {
	var best *bucket[K]
	for _, v := range b.values {
		if best == nil || v.count > best.count {
			best = v
		}
	}
	if best == nil {
		var zero K
		return zero, false
	}
	return best.key, true
}

func count[K comparable](b *ordered[K, bucket[K]], k K) {
	b.get(k, func() bucket[K] { return bucket[K]{key: k} }).count++
}

func timeBuckets(orders []Order) (peakHour, peakDay, busiestMonth string, months []MonthStat) {
	hours := newOrdered[int, bucket[int]]()
	days := newOrdered[time.Weekday, bucket[time.Weekday]]()
	monthly := newOrdered[monthKey, bucket[monthKey]]()

	for _, o := range orders {
		count(hours, o.CreatedAt.Hour())
		count(days, o.CreatedAt.Weekday())
		count(monthly, monthKey{year: o.CreatedAt.Year(), month: o.CreatedAt.Month()})
	}

	peakHour, peakDay, busiestMonth = "N/A", "N/A", "N/A"
	if h, ok := peak(hours); ok {
		peakHour = fmt.Sprintf("%d:00", h)
	}
	if d, ok := peak(days); ok {
		peakDay = d.String()
	}
	if m, ok := peak(monthly); ok {
		busiestMonth = m.label()
	}

	chrono := monthly.list()
	slices.SortStableFunc(chrono, func(a, b bucket[monthKey]) int {
		if a.key.year != b.key.year {
			return a.key.year - b.key.year
		}
		return int(a.key.month) - int(b.key.month)
	})
	months = make([]MonthStat, len(chrono))
	for i, m := range chrono {
		months[i] = MonthStat{Month: m.key.label(), Count: m.count}
	}
	return peakHour, peakDay, busiestMonth, months
}

// avgDeliveryMinutes averages delivery durations strictly between 0 and
// maxDeliveryMinutes, rounded to the nearest minute.
func avgDeliveryMinutes(orders []Order) int {
	var sum float64
	var n int
	for _, o := range orders {
		d := o.DeliveryMinutes()
		if d <= 0 || d >= maxDeliveryMinutes {
			continue
		}
		sum += d
		n++
	}
	if n == 0 {
		return 0
	}
	return int(roundTo(sum/float64(n), 0))
}

func extremes(orders []Order) (most, cheapest Order) {
	most, cheapest = orders[0], orders[0]
	for _, o := range orders[1:] {
		if o.Total.GreaterThan(most.Total) {
			most = o
		}
		if o.Total.LessThan(cheapest.Total) {
			cheapest = o
		}
	}
	return most, cheapest
}

func dateRange(orders []Order) (first, last time.Time) {
	first, last = orders[0].CreatedAt, orders[0].CreatedAt
	for _, o := range orders[1:] {
		if o.CreatedAt.Before(first) {
			first = o.CreatedAt
		}
		if o.CreatedAt.After(last) {
			last = o.CreatedAt
		}
	}
	return first, last
}

// civilDay numbers the calendar day of t in its own location. Consecutive
// days differ by exactly one regardless of daylight saving changes.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// activeDays returns the distinct calendar days with at least one order, ascending.
func activeDays(orders []Order) []int64 {
	seen := make(map[int64]struct{}, len(orders))
	days := make([]int64, 0, len(orders))
	for _, o := range orders {
		d := civilDay(o.CreatedAt)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	slices.Sort(days)
	return days
}

func longestStreak(days []int64) int {
	if len(days) == 0 {
		return 0
	}
	longest, current := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] == 1 {
			current++
			longest = max(longest, current)
		} else {
			current = 1
		}
	}
	return longest
}
