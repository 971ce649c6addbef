package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// keepCmd resolves a duplicate pair as legitimate.
type keepCmd struct{}

func (*keepCmd) Name() string     { return "keep" }
func (*keepCmd) Synopsis() string { return "mark a flagged duplicate as legitimate" }
func (*keepCmd) Usage() string {
	return `pfl keep <transaction-id>...

  Clears the duplicate flags on a transaction and its counterpart. Use it
  when two similar transactions really are distinct trades.
`
}

func (*keepCmd) SetFlags(*flag.FlagSet) {}

func (c *keepCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usageError(fmt.Errorf("keep needs at least one transaction id"))
	}
	engine, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	for _, id := range f.Args() {
		if err := engine.ResolveDuplicate(ctx, id); err != nil {
			return fail(err)
		}
		fmt.Printf("Kept %s\n", id)
	}
	return subcommands.ExitSuccess
}
