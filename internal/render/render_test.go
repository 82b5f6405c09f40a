package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrapped/internal/core"
	"wrapped/internal/services"
)

func sampleRecap() *services.Recap {
	return &services.Recap{
		Year:  2024,
		Label: "2024",
		Summary: &core.Summary{
			TotalSpent:    decimal.RequireFromString("1234.5"),
			TotalOrders:   4,
			TotalItems:    9,
			AvgOrderValue: decimal.RequireFromString("308.625"),
			TopStores: []core.StoreStat{
				{Name: "Pizza Place", OrderCount: 3},
				{Name: "Taco Stand", OrderCount: 1},
			},
			TopItems:        []core.ItemStat{{Name: "Margherita", Count: 5}},
			TopCategories:   []core.CategoryStat{{Name: "Pizza", TotalSpent: decimal.RequireFromString("617.25")}},
			PeakHour:        "20:00",
			PeakDay:         "Friday",
			AvgDeliveryTime: 31,
			MostExpensiveOrder: core.Order{
				ID: "o1", StoreName: "Pizza Place", Total: decimal.RequireFromString("500"),
			},
			CheapestOrder: core.Order{ID: "o2", StoreName: "Taco Stand", Total: decimal.RequireFromString("9.99")},
			MonthStats: []core.MonthStat{
				{Month: "January 2024", Count: 1},
				{Month: "March 2024", Count: 2},
				{Month: "May 2024", Count: 1},
			},
			LongestStreak:        2,
			BusiestMonth:         "March 2024",
			WeekendOrders:        1,
			WeekdayOrders:        3,
			LateNightOrders:      1,
			AvgItemsPerOrder:     2.3,
			TotalDaysActive:      3,
			AvgDaysBetweenOrders: 40.5,
		},
	}
}

func TestMoney(t *testing.T) {
	usd := NewMoney("usd")
	assert.Equal(t, "$1,234.50", usd.Format(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$1,235", usd.Whole(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$0.00", usd.Format(decimal.Zero))

	assert.Equal(t, "$12.00", NewMoney("").Format(decimal.NewFromInt(12)))
	assert.Equal(t, "12.00 XYZ", NewMoney("xyz").Format(decimal.NewFromInt(12)))
}

func TestMarkdownCards(t *testing.T) {
	out := Markdown(sampleRecap(), Options{Currency: "USD", Now: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)})

	for _, want := range []string{
		"# YOUR YEAR IN FOOD",
		"**2024**",
		"## THE NUMBERS",
		"**$1,235**",
		"2025-01-02",
		"**Pizza Place** · 3 orders",
		"**Taco Stand** · 1 order",
		"**Margherita** · x5",
		"50%",
		"**20:00**",
		"**Friday**",
		"**31** MINS AVG",
		"BIGGEST SPLURGE: **$500.00** at Pizza Place",
		"2 days in a row!",
		"| Weekend | 1 | 25% |",
		"| Weekday | 3 | 75% |",
		"1. March 2024 · 2 orders",
		"LATE NIGHT ORDERS (10 PM - 2 AM)",
		"25% of all orders",
		"$9.99 at Taco Stand",
		"40.5",
		"## IT'S A WRAP",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "early morning")
	assert.Less(t, strings.Index(out, "## THE NUMBERS"), strings.Index(out, "## IT'S A WRAP"))
}

func TestMarkdownBusiestMonthKeepsFirstOnTies(t *testing.T) {
	out := Markdown(sampleRecap(), Options{})
	assert.Contains(t, out, "2. January 2024 · 1 order")
	assert.Contains(t, out, "3. May 2024 · 1 order")
}

func TestMarkdownEarlyMorning(t *testing.T) {
	r := sampleRecap()
	r.Summary.EarlyMorningOrders = 2
	assert.Contains(t, Markdown(r, Options{}), "2 early morning orders")
}

func TestMarkdownEmptyRecap(t *testing.T) {
	out := Markdown(&services.Recap{Label: services.AllYearsLabel}, Options{})
	assert.Contains(t, out, "ALL YEARS")
	assert.Contains(t, out, "No orders to show")
	assert.NotContains(t, out, "TOP SPOTS")

	assert.Contains(t, Markdown(nil, Options{}), "No orders to show")
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, percent(1, 0))
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 67, percent(2, 3))
	assert.Equal(t, 50, percent(1, 2))
	assert.Equal(t, 0, sharePercent(decimal.NewFromInt(5), decimal.Zero))
	assert.Equal(t, 20, len([]rune(bar(37))))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":         FormatTerminal,
		"term":     FormatTerminal,
		"MD":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"html":     FormatHTML,
		" json ":   FormatJSON,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestHTML(t *testing.T) {
	page, err := HTML(Markdown(sampleRecap(), Options{}), "Wrapped <2024>")
	require.NoError(t, err)
	assert.Contains(t, page, "<title>Wrapped &lt;2024&gt;</title>")
	assert.Contains(t, page, "<h2>TOP SPOTS</h2>")
	assert.Contains(t, page, "<table>")
}

func TestTerminal(t *testing.T) {
	out, err := Terminal(Markdown(sampleRecap(), Options{}), TerminalOptions{Style: "notty", Width: 60})
	require.NoError(t, err)
	assert.Contains(t, out, "TOP SPOTS")
	assert.Contains(t, out, "Pizza Place")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, []*services.Recap{sampleRecap()}, Options{}, TerminalOptions{}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2024", got["label"])

	buf.Reset()
	all := &services.Recap{Label: services.AllYearsLabel}
	require.NoError(t, Write(&buf, FormatJSON, []*services.Recap{sampleRecap(), all}, Options{}, TerminalOptions{}))
	var list []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestWriteMarkdownJoinsRecaps(t *testing.T) {
	var buf bytes.Buffer
	all := &services.Recap{Label: services.AllYearsLabel}
	require.NoError(t, Write(&buf, FormatMarkdown, []*services.Recap{sampleRecap(), all}, Options{}, TerminalOptions{}))
	assert.Equal(t, 2, strings.Count(buf.String(), "# YOUR YEAR IN FOOD\n"))
}
