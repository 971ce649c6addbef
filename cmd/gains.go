package cmd

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/poolfolio/poolfolio"
	"github.com/poolfolio/poolfolio/renderer"
)

// gainsCmd holds the flags for the 'gains' subcommand.
type gainsCmd struct {
	owner  string
	year   int
	start  string
	end    string
	method string
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized gain analysis for one owner" }
func (*gainsCmd) Usage() string {
	return `pfl gains -owner <owner> [-year <year>] [-s <date>] [-d <date>] [-method <method>]

  Replays the owner's claimed history and reports the realized gains of
  the period, split by holding period, with wash sale disallowances.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Owner to report on")
	f.IntVar(&c.year, "year", poolfolio.Today().Year(), "Calendar year to report on")
	f.StringVar(&c.start, "s", "", "Start date, overrides -year")
	f.StringVar(&c.end, "d", "", "End date, overrides -year")
	f.StringVar(&c.method, "method", "", "Cost basis method (FIFO, LIFO, HIFO), defaults to the configured one")
}

func (c *gainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.owner == "" {
		return usageError(fmt.Errorf("gains needs -owner"))
	}

	from := poolfolio.NewDate(c.year, time.January, 1)
	to := poolfolio.NewDate(c.year, time.December, 31)
	var err error
	if c.start != "" {
		if from, err = poolfolio.ParseDate(c.start); err != nil {
			return usageError(err)
		}
	}
	if c.end != "" {
		if to, err = poolfolio.ParseDate(c.end); err != nil {
			return usageError(err)
		}
	}

	methodName := c.method
	if methodName == "" {
		cfg, err := LoadConfig()
		if err != nil {
			return fail(err)
		}
		methodName = cfg.Engine.Method
	}
	method, err := poolfolio.ParseCostBasisMethod(methodName)
	if err != nil {
		return usageError(err)
	}

	engine, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	review, err := engine.Review(ctx, c.owner, from, to, method)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.GainsMarkdown(review))
	return subcommands.ExitSuccess
}
