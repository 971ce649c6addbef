package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/poolfolio/poolfolio/renderer"
)

// lotsCmd shows the lot state of one holding.
type lotsCmd struct {
	owner  string
	symbol string
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "show the tax lots of a holding" }
func (*lotsCmd) Usage() string {
	return `pfl lots -owner <owner> -symbol <symbol>

  Lists the holding's lots, open and closed, and checks that the lot
  state still reconciles with the transaction history.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Owner of the holding")
	f.StringVar(&c.symbol, "symbol", "", "Ticker symbol")
}

func (c *lotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.owner == "" || c.symbol == "" {
		return usageError(fmt.Errorf("lots needs -owner and -symbol"))
	}
	engine, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	lots, err := db.Lots(ctx, c.owner, c.symbol)
	if err != nil {
		return fail(err)
	}
	warning, err := engine.Reconcile(ctx, c.owner, c.symbol)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.LotsMarkdown(c.owner, c.symbol, lots, warning))
	return subcommands.ExitSuccess
}
