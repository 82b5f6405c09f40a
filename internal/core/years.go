package core

import "sort"

// AllYears is the year sentinel meaning "no filtering".
const AllYears = 0

// YearCount is a calendar year together with the number of orders placed in it.
type YearCount struct {
	Year   int `json:"year"`
	Orders int `json:"orders"`
}

// AvailableYears returns the distinct calendar years of CreatedAt, most recent
// first. Items without a timestamp are skipped.
func AvailableYears(items []LineItem) []int {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, it := range items {
		if it.CreatedAt.IsZero() {
			continue
		}
		y := it.CreatedAt.Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// FilterByYear restricts items to one calendar year. With AllYears the input
// slice itself is returned. Otherwise a new slice is built, keeping order.
func FilterByYear(items []LineItem, year int) []LineItem {
	if year == AllYears {
		return items
	}
	out := make([]LineItem, 0)
	for _, it := range items {
		if it.CreatedAt.IsZero() {
			continue
		}
		if it.CreatedAt.Year() == year {
			out = append(out, it)
		}
	}
	return out
}

// YearCounts pairs every available year with its order count, most recent first.
func YearCounts(items []LineItem) []YearCount {
	years := AvailableYears(items)
	perYear := make(map[int]map[string]struct{}, len(years))
	for _, it := range items {
		if it.CreatedAt.IsZero() {
			continue
		}
		y := it.CreatedAt.Year()
		if perYear[y] == nil {
			perYear[y] = make(map[string]struct{})
		}
		perYear[y][it.OrderID] = struct{}{}
	}
	out := make([]YearCount, len(years))
	for i, y := range years {
		out[i] = YearCount{Year: y, Orders: len(perYear[y])}
	}
	return out
}
