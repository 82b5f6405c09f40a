// Package render turns recaps into shareable cards: markdown, terminal, HTML or JSON.
package render

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"wrapped/internal/core"
	"wrapped/internal/services"
)

// Options controls card rendering.
type Options struct {
	Currency string
	// Now dates the receipt card. Zero means time.Now.
	Now time.Time
}

// Markdown renders one recap as a sequence of cards separated by rules.
func Markdown(r *services.Recap, opts Options) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	c := cards{doc: doc, money: NewMoney(opts.Currency), now: opts.Now}
	if c.now.IsZero() {
		c.now = time.Now()
	}

	label := services.AllYearsLabel
	if r != nil {
		label = r.Label
	}
	doc.H1("YOUR YEAR IN FOOD")
	doc.PlainText(md.Bold(label))

	if r.Empty() {
		doc.PlainText("")
		doc.PlainText("No orders to show for this selection.")
		return doc.String() + "\n"
	}

	s := r.Summary
	for _, card := range []func(*core.Summary){
		c.numbers, c.receipt, c.topSpots, c.theUsual, c.vibes, c.habits,
		c.delivery, c.streak, c.weekend, c.busiestMonth, c.nightOwl, c.funFacts,
	} {
		c.rule()
		card(s)
	}
	c.rule()
	c.wrap(s, label)
	return doc.String() + "\n"
}

type cards struct {
	doc   *md.Markdown
	money Money
	now   time.Time
}

func (c cards) rule() {
	c.doc.PlainText("")
	c.doc.HorizontalRule()
	c.doc.PlainText("")
}

func (c cards) gap() { c.doc.PlainText("") }

func (c cards) numbers(s *core.Summary) {
	c.doc.H2("THE NUMBERS")
	c.gap()
	c.doc.Table(md.TableSet{
		Header:    []string{"Orders", "Items", "Total spent"},
		Rows:      [][]string{{strconv.Itoa(s.TotalOrders), strconv.Itoa(s.TotalItems), md.Bold(c.money.Whole(s.TotalSpent))}},
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignRight, md.AlignRight},
	})
}

func (c cards) receipt(s *core.Summary) {
	c.doc.H2("RECEIPT")
	c.gap()
	c.doc.Table(md.TableSet{
		Header: []string{"TOTAL", c.now.Format(time.DateOnly)},
		Rows: [][]string{
			{"Amount", md.Bold(c.money.Format(s.TotalSpent))},
			{"Avg/order", c.money.Format(s.AvgOrderValue)},
		},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
	})
	c.gap()
	c.doc.PlainText(md.Italic("THANK YOU FOR EATING"))
}

func (c cards) topSpots(s *core.Summary) {
	c.doc.H2("TOP SPOTS")
	c.gap()
	lines := make([]string, len(s.TopStores))
	for i, st := range s.TopStores {
		lines[i] = fmt.Sprintf("%s · %s", md.Bold(st.Name), plural(st.OrderCount, "order"))
	}
	c.doc.OrderedList(lines...)
}

func (c cards) theUsual(s *core.Summary) {
	c.doc.H2("THE USUAL")
	c.gap()
	lines := make([]string, len(s.TopItems))
	for i, it := range s.TopItems {
		lines[i] = fmt.Sprintf("%s · x%d", md.Bold(it.Name), it.Count)
	}
	c.doc.OrderedList(lines...)
}

func (c cards) vibes(s *core.Summary) {
	c.doc.H2("VIBES")
	c.gap()
	rows := make([][]string, len(s.TopCategories))
	for i, cat := range s.TopCategories {
		share := sharePercent(cat.TotalSpent, s.TotalSpent)
		rows[i] = []string{cat.Name, bar(share), strconv.Itoa(share) + "%", c.money.Format(cat.TotalSpent)}
	}
	c.doc.Table(md.TableSet{
		Header:    []string{"Category", "", "Share", "Spent"},
		Rows:      rows,
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight},
	})
}

func (c cards) habits(s *core.Summary) {
	c.doc.H2("HABITS")
	c.gap()
	c.doc.BulletList(
		"⏰ Peak time: "+md.Bold(s.PeakHour),
		"📅 Fav day: "+md.Bold(s.PeakDay),
	)
}

func (c cards) delivery(s *core.Summary) {
	c.doc.H2("DELIVERY")
	c.gap()
	c.doc.PlainText(md.Bold(strconv.Itoa(s.AvgDeliveryTime)) + " MINS AVG")
	if s.MostExpensiveOrder.ID != "" {
		c.gap()
		c.doc.Blockquote(fmt.Sprintf("BIGGEST SPLURGE: %s at %s",
			md.Bold(c.money.Format(s.MostExpensiveOrder.Total)), s.MostExpensiveOrder.StoreName))
	}
}

func (c cards) streak(s *core.Summary) {
	c.doc.H2("🔥 STREAK")
	c.gap()
	c.doc.PlainText(md.Bold(strconv.Itoa(s.LongestStreak)) + " CONSECUTIVE DAYS")
	c.gap()
	c.doc.PlainText(fmt.Sprintf("You ordered food %s in a row!", plural(s.LongestStreak, "day")))
}

func (c cards) weekend(s *core.Summary) {
	weekend := percent(s.WeekendOrders, s.TotalOrders)
	c.doc.H2("WEEKEND WARRIOR?")
	c.gap()
	c.doc.Table(md.TableSet{
		Header: []string{"", "Orders", "Share"},
		Rows: [][]string{
			{"Weekend", strconv.Itoa(s.WeekendOrders), strconv.Itoa(weekend) + "%"},
			{"Weekday", strconv.Itoa(s.WeekdayOrders), strconv.Itoa(100-weekend) + "%"},
		},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
	})
}

func (c cards) busiestMonth(s *core.Summary) {
	c.doc.H2("BUSIEST MONTH")
	c.gap()
	c.doc.PlainText(md.Bold(s.BusiestMonth))
	c.gap()
	months := slices.Clone(s.MonthStats)
	slices.SortStableFunc(months, func(a, b core.MonthStat) int { return cmp.Compare(b.Count, a.Count) })
	lines := make([]string, 0, 3)
	for _, m := range months[:min(3, len(months))] {
		lines = append(lines, fmt.Sprintf("%s · %s", m.Month, plural(m.Count, "order")))
	}
	c.doc.OrderedList(lines...)
}

func (c cards) nightOwl(s *core.Summary) {
	c.doc.H2("🌙 NIGHT OWL")
	c.gap()
	c.doc.PlainText(md.Bold(strconv.Itoa(s.LateNightOrders)) + " LATE NIGHT ORDERS (10 PM - 2 AM)")
	c.gap()
	c.doc.PlainText(fmt.Sprintf("%d%% of all orders", percent(s.LateNightOrders, s.TotalOrders)))
	if s.EarlyMorningOrders > 0 {
		c.gap()
		c.doc.PlainText(fmt.Sprintf("🌅 %d early morning orders", s.EarlyMorningOrders))
	}
}

func (c cards) funFacts(s *core.Summary) {
	c.doc.H2("FUN FACTS")
	c.gap()
	c.doc.Table(md.TableSet{
		Header: []string{"Fact", "Value"},
		Rows: [][]string{
			{"💰 Cheapest order", fmt.Sprintf("%s at %s", c.money.Format(s.CheapestOrder.Total), s.CheapestOrder.StoreName)},
			{"📦 Avg items/order", formatFloat(s.AvgItemsPerOrder)},
			{"📅 Days active", strconv.Itoa(s.TotalDaysActive)},
			{"⏱️ Avg days between", formatFloat(s.AvgDaysBetweenOrders)},
		},
	})
}

func (c cards) wrap(s *core.Summary, label string) {
	c.doc.H2("IT'S A WRAP")
	c.gap()
	c.doc.Table(md.TableSet{
		Header:    []string{"Orders", "Spent", "Items"},
		Rows:      [][]string{{strconv.Itoa(s.TotalOrders), c.money.Whole(s.TotalSpent), strconv.Itoa(s.TotalItems)}},
		Alignment: []md.TableAlignment{md.AlignCenter, md.AlignCenter, md.AlignCenter},
	})
	c.gap()
	c.doc.PlainText(md.Bold(label))
}

// percent rounds part/total to a whole percentage, halves up.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(part)*100/float64(total) + 0.5))
}

func sharePercent(part, total decimal.Decimal) int {
	if !total.IsPositive() {
		return 0
	}
	return int(part.Mul(decimal.NewFromInt(100)).Div(total).Round(0).IntPart())
}

func bar(pct int) string {
	n := min(max(pct, 0), 100) / 5
	return strings.Repeat("█", n) + strings.Repeat("░", 20-n)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
