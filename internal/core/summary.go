package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopN is the length of every ranking in a Summary.
const TopN = 5

// StoreStat aggregates the orders placed at one store.
type StoreStat struct {
	Name       string          `json:"name"`
	OrderCount int             `json:"orderCount"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	Items      []string        `json:"items"`
}

// ItemStat aggregates the line items sharing an item name. Store is the store
// of the last line item seen for that name.
type ItemStat struct {
	Name       string          `json:"name"`
	Count      int             `json:"count"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	Store      string          `json:"store"`
}

// CategoryStat aggregates the line items of one category.
type CategoryStat struct {
	Name       string          `json:"name"`
	Count      int             `json:"count"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
}

// MonthStat is the number of orders placed in a month, labelled "January 2024".
type MonthStat struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Summary is the full set of recap statistics derived from a line item set.
type Summary struct {
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	TotalOrders   int             `json:"totalOrders"`
	TotalItems    int             `json:"totalItems"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`

	TopStores     []StoreStat    `json:"topStores"`
	TopItems      []ItemStat     `json:"topItems"`
	TopCategories []CategoryStat `json:"topCategories"`

	PeakHour        string `json:"peakHour"`
	PeakDay         string `json:"peakDay"`
	AvgDeliveryTime int    `json:"avgDeliveryTime"`

	MostExpensiveOrder Order `json:"mostExpensiveOrder"`
	CheapestOrder      Order `json:"cheapestOrder"`

	FirstOrder time.Time `json:"firstOrder"`
	LastOrder  time.Time `json:"lastOrder"`

	MonthStats    []MonthStat `json:"monthStats"`
	LongestStreak int         `json:"longestStreak"`
	BusiestMonth  string      `json:"busiestMonth"`

	WeekendOrders      int `json:"weekendOrders"`
	WeekdayOrders      int `json:"weekdayOrders"`
	LateNightOrders    int `json:"lateNightOrders"`
	EarlyMorningOrders int `json:"earlyMorningOrders"`

	AvgItemsPerOrder     float64   `json:"avgItemsPerOrder"`
	MostFrequentStore    StoreStat `json:"mostFrequentStore"`
	TotalDaysActive      int       `json:"totalDaysActive"`
	AvgDaysBetweenOrders float64   `json:"avgDaysBetweenOrders"`
}
