package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"wrapped/internal/log"
	"wrapped/internal/metrics"
	"wrapped/internal/render"
	"wrapped/internal/services"
)

type recapCmd struct {
	year        string
	all         bool
	format      string
	out         string
	width       int
	query       string
	publish     bool
	metricsFile string
}

func (*recapCmd) Name() string     { return "recap" }
func (*recapCmd) Synopsis() string { return "display the yearly food recap" }
func (*recapCmd) Usage() string {
	return `wrapped [global flags] recap [-year <year|latest|all>] [-all] [-format term|markdown|html|json] [-o <file>]

  Computes the recap of one year (the latest by default), or of every year
  followed by all years combined with -all.

  -query evaluates a JSONPath expression on the JSON recap, e.g.
  -query '$.summary.topStores[0].name'.
`
}

func (c *recapCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.year, "year", "latest", "Year to recap: a year, latest or all")
	f.BoolVar(&c.all, "all", false, "Recap every year, then all years combined")
	f.StringVar(&c.format, "format", string(render.FormatTerminal), "Output format: term, markdown, html or json")
	f.StringVar(&c.out, "o", "", "Write to this file instead of stdout")
	f.IntVar(&c.width, "width", 80, "Word wrap width for terminal output")
	f.StringVar(&c.query, "query", "", "JSONPath expression evaluated on the JSON recap")
	f.BoolVar(&c.publish, "publish", false, "Publish the recaps to the AMQP exchange")
	f.StringVar(&c.metricsFile, "metrics-file", "", "Write recap gauges to this Prometheus textfile")
}

func (c *recapCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	format, err := render.ParseFormat(c.format)
	if err != nil {
		return fail(usageError{err})
	}
	a, ctx, err := setup(ctx, c.publish)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	recaps, err := c.recaps(ctx, a.svc)
	if err != nil {
		return fail(err)
	}
	a.logger.InfoContext(ctx, "Recaps computed",
		log.FieldOperation, log.OpRecap, log.FieldYear, yearLabels(recaps))

	if c.metricsFile != "" {
		reg := metrics.NewRegistry()
		reg.Observe(recaps...)
		if err := reg.WriteTextfile(c.metricsFile); err != nil {
			return fail(err)
		}
	}

	if err := c.write(recaps, format, a.cfg.Currency); err != nil {
		return fail(err)
	}

	if c.publish {
		sent, err := a.svc.PublishAll(ctx, recaps)
		a.logger.InfoContext(ctx, "Recaps published", log.FieldOperation, log.OpPublish, "sent", sent)
		if err != nil {
			return fail(err)
		}
	}
	return subcommands.ExitSuccess
}

func (c *recapCmd) recaps(ctx context.Context, svc *services.RecapService) ([]*services.Recap, error) {
	if c.all {
		return svc.RecapAll(ctx)
	}
	counts, err := svc.Years(ctx)
	if err != nil {
		return nil, err
	}
	years := make([]int, len(counts))
	for i, yc := range counts {
		years[i] = yc.Year
	}
	year, err := resolveYear(c.year, years)
	if err != nil {
		return nil, err
	}
	r, err := svc.Recap(ctx, year)
	if err != nil {
		return nil, err
	}
	return []*services.Recap{r}, nil
}

func (c *recapCmd) write(recaps []*services.Recap, format render.Format, currency string) (err error) {
	w, closeOut, err := createOutput(c.out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); err == nil {
			err = cerr
		}
	}()

	if c.query != "" {
		v, err := queryRecaps(recaps, c.query)
		if err != nil {
			return err
		}
		if s, ok := v.(string); ok {
			_, err = fmt.Fprintln(w, s)
			return err
		}
		return render.JSON(w, v)
	}

	term := render.TerminalOptions{Width: c.width}
	if c.out != "" && c.out != "-" {
		term.Style = "notty"
	}
	return render.Write(w, format, recaps, render.Options{Currency: currency}, term)
}

// yearLabels joins the recap labels for log lines.
func yearLabels(recaps []*services.Recap) string {
	labels := make([]string, 0, len(recaps))
	for _, r := range recaps {
		if r != nil {
			labels = append(labels, r.Label)
		}
	}
	return strings.Join(labels, ",")
}
