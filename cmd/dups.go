package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/poolfolio/poolfolio"
	"github.com/poolfolio/poolfolio/renderer"
)

// dupsCmd shows the duplicate review queue.
type dupsCmd struct{}

func (*dupsCmd) Name() string     { return "dups" }
func (*dupsCmd) Synopsis() string { return "review likely duplicate transactions" }
func (*dupsCmd) Usage() string {
	return `pfl dups

  Re-runs the duplicate detector over the unclaimed pool and lists the
  flagged pairs with their scores and reasons.
`
}

func (*dupsCmd) SetFlags(*flag.FlagSet) {}

func (c *dupsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	engine, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	matches, err := engine.ReviewDuplicates(ctx)
	if err != nil {
		return fail(err)
	}
	pool, err := db.Transactions(ctx, poolfolio.TxFilter{Unclaimed: true})
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.DuplicatesMarkdown(pool, matches))
	return subcommands.ExitSuccess
}
