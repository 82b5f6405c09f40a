package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"wrapped/internal/render"
)

type yearsCmd struct {
	json bool
}

func (*yearsCmd) Name() string     { return "years" }
func (*yearsCmd) Synopsis() string { return "list the years present in the order history" }
func (*yearsCmd) Usage() string {
	return `wrapped [global flags] years [-json]

  Lists every year with orders, newest first, with its order count.
`
}

func (c *yearsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the years as JSON")
}

func (c *yearsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a, ctx, err := setup(ctx, false)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	years, err := a.svc.Years(ctx)
	if err != nil {
		return fail(err)
	}
	if c.json {
		if err := render.JSON(os.Stdout, years); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}
	if len(years) == 0 {
		fmt.Println("No orders found.")
		return subcommands.ExitSuccess
	}
	for _, y := range years {
		fmt.Printf("%d\t%d orders\n", y.Year, y.Orders)
	}
	return subcommands.ExitSuccess
}
