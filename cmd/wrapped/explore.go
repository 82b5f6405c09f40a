package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/subcommands"
	md "github.com/nao1215/markdown"

	"wrapped/internal/core"
	"wrapped/internal/explore"
	"wrapped/internal/render"
)

// filterFlags are shared by explore and export.
type filterFlags struct {
	year     string
	search   string
	store    string
	category string
	sort     string
	asc      bool
}

func (ff *filterFlags) set(f *flag.FlagSet) {
	f.StringVar(&ff.year, "year", "all", "Year to list: a year, latest or all")
	f.StringVar(&ff.search, "search", "", "Case-insensitive text matched against item, store and category")
	f.StringVar(&ff.store, "store", "", "Only this store")
	f.StringVar(&ff.category, "category", "", "Only this category")
	f.StringVar(&ff.sort, "sort", string(explore.SortCreatedAt), "Sort field: createdAt, storeName, item, category, subtotal or quantity")
	f.BoolVar(&ff.asc, "asc", false, "Sort ascending (default newest or largest first)")
}

func (ff *filterFlags) query() (explore.Query, error) {
	field, err := explore.ParseSortField(ff.sort)
	if err != nil {
		return explore.Query{}, usageError{err}
	}
	q := explore.DefaultQuery()
	q.Search, q.Store, q.Category = ff.search, ff.store, ff.category
	q.SortField, q.Descending = field, !ff.asc
	return q, nil
}

func (ff *filterFlags) items(ctx context.Context, a *app) ([]core.LineItem, error) {
	counts, err := a.svc.Years(ctx)
	if err != nil {
		return nil, err
	}
	years := make([]int, len(counts))
	for i, yc := range counts {
		years[i] = yc.Year
	}
	year, err := resolveYear(ff.year, years)
	if err != nil {
		return nil, err
	}
	return a.svc.Items(ctx, year)
}

type exploreCmd struct {
	filterFlags
	page       int
	perPage    int
	format     string
	stores     bool
	categories bool
}

func (*exploreCmd) Name() string     { return "explore" }
func (*exploreCmd) Synopsis() string { return "browse the raw order lines" }
func (*exploreCmd) Usage() string {
	return `wrapped [global flags] explore [-search <text>] [-store <name>] [-category <name>] [-sort <field>] [-asc] [-page <n>]

  Lists the order lines, newest first, one page at a time.
  -stores and -categories print the distinct values to filter on.
`
}

func (c *exploreCmd) SetFlags(f *flag.FlagSet) {
	c.filterFlags.set(f)
	f.IntVar(&c.page, "page", 1, "Page to show")
	f.IntVar(&c.perPage, "per-page", explore.DefaultPerPage, "Lines per page")
	f.StringVar(&c.format, "format", string(render.FormatTerminal), "Output format: term, markdown or json")
	f.BoolVar(&c.stores, "stores", false, "List the distinct stores instead")
	f.BoolVar(&c.categories, "categories", false, "List the distinct categories instead")
}

func (c *exploreCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	format, err := render.ParseFormat(c.format)
	if err != nil || format == render.FormatHTML {
		return fail(usagef("invalid -format %q: want term, markdown or json", c.format))
	}
	q, err := c.query()
	if err != nil {
		return fail(err)
	}
	q.Page, q.PerPage = c.page, c.perPage

	a, ctx, err := setup(ctx, false)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	items, err := c.items(ctx, a)
	if err != nil {
		return fail(err)
	}

	switch {
	case c.stores:
		err = printList(os.Stdout, format, explore.Stores(items))
	case c.categories:
		err = printList(os.Stdout, format, explore.Categories(items))
	default:
		res := explore.Run(items, q)
		err = printPage(os.Stdout, format, res, render.NewMoney(a.cfg.Currency))
	}
	if err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func printList(w io.Writer, format render.Format, values []string) error {
	if format == render.FormatJSON {
		return render.JSON(w, values)
	}
	for _, v := range values {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}

// pageMarkdown renders one explore page as a markdown table with a footer.
func pageMarkdown(res explore.Result, money render.Money) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	if len(res.Items) == 0 {
		doc.PlainText("No matching order lines.")
		return doc.String() + "\n"
	}
	rows := make([][]string, len(res.Items))
	for i, it := range res.Items {
		rows[i] = []string{
			it.CreatedAt.Format(time.DateTime),
			it.StoreName,
			it.Item,
			it.Category,
			strconv.Itoa(it.Quantity),
			money.Format(it.Subtotal),
		}
	}
	doc.Table(md.TableSet{
		Header:    []string{"Date", "Store", "Item", "Category", "Qty", "Price"},
		Rows:      rows,
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight},
	})
	doc.PlainTextf("Page %d of %d · %d matching of %d lines", res.Page, res.Pages, res.Matched, res.Total)
	return doc.String() + "\n"
}

func printPage(w io.Writer, format render.Format, res explore.Result, money render.Money) error {
	switch format {
	case render.FormatJSON:
		return render.JSON(w, res)
	case render.FormatMarkdown:
		_, err := io.WriteString(w, pageMarkdown(res, money))
		return err
	default:
		out, err := render.Terminal(pageMarkdown(res, money), render.TerminalOptions{Width: 120})
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
}

type exportCmd struct {
	filterFlags
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the matching order lines as CSV" }
func (*exportCmd) Usage() string {
	return `wrapped [global flags] export [-search <text>] [-store <name>] [-category <name>] [-o <file>]

  Writes every matching order line as CSV. The default file name is
  wrapped-data-<today>.csv; -o - writes to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.filterFlags.set(f)
	f.StringVar(&c.out, "o", "", "Output file (default wrapped-data-YYYY-MM-DD.csv)")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	q, err := c.query()
	if err != nil {
		return fail(err)
	}
	a, ctx, err := setup(ctx, false)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	items, err := c.items(ctx, a)
	if err != nil {
		return fail(err)
	}
	matched := explore.Filter(items, q)

	path := c.out
	if path == "" {
		path = explore.ExportFileName(time.Now())
	}
	if err := writeExport(path, matched); err != nil {
		return fail(err)
	}
	a.logger.InfoContext(ctx, "Order lines exported", "path", path, "lines", len(matched))
	return subcommands.ExitSuccess
}

func writeExport(path string, items []core.LineItem) (err error) {
	w, closeOut, err := createOutput(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); err == nil {
			err = cerr
		}
	}()
	return explore.WriteCSV(w, items)
}
