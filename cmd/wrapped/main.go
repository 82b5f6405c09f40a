// Command wrapped turns a food-delivery order export into a yearly recap.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

const progName = "wrapped"

func main() {
	decimal.MarshalJSONWithoutQuotes = true
	completion().Complete(progName)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// register adds the wrapped subcommands to c.
func register(c *subcommands.Commander) {
	c.Register(&yearsCmd{}, "recap")
	c.Register(&recapCmd{}, "recap")
	c.Register(&exploreCmd{}, "data")
	c.Register(&exportCmd{}, "data")
}
