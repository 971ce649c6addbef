package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// delCmd deletes transactions, keeping duplicate pairs consistent.
type delCmd struct{}

func (*delCmd) Name() string     { return "del" }
func (*delCmd) Synopsis() string { return "delete a transaction" }
func (*delCmd) Usage() string {
	return `pfl del <transaction-id>...

  Deletes transactions. When the transaction was flagged as a duplicate,
  its counterpart is re-evaluated so no flag points at a deleted record.
`
}

func (*delCmd) SetFlags(*flag.FlagSet) {}

func (c *delCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usageError(fmt.Errorf("del needs at least one transaction id"))
	}
	engine, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	for _, id := range f.Args() {
		if err := engine.Delete(ctx, id); err != nil {
			return fail(err)
		}
		fmt.Printf("Deleted %s\n", id)
	}
	return subcommands.ExitSuccess
}
