package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// claimCmd assigns a pooled transaction to an owner.
type claimCmd struct {
	owner string
}

func (*claimCmd) Name() string     { return "claim" }
func (*claimCmd) Synopsis() string { return "claim a pooled transaction for an owner" }
func (*claimCmd) Usage() string {
	return `pfl claim -owner <owner> <transaction-id>...

  Assigns pooled transactions to one family member. Claiming a buy or a
  transfer-in opens a tax lot; sales are consumed later with 'pfl sell'.
`
}

func (c *claimCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Owner to claim for")
}

func (c *claimCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.owner == "" || f.NArg() == 0 {
		return usageError(fmt.Errorf("claim needs -owner and at least one transaction id"))
	}
	engine, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	for _, id := range f.Args() {
		tx, err := engine.Claim(ctx, id, c.owner)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("Claimed %s (%s %s x %s) for %s\n", tx.ID, tx.Type, tx.Symbol, tx.Quantity, tx.Owner)
	}
	return subcommands.ExitSuccess
}

// unclaimCmd returns a claimed transaction to the pool.
type unclaimCmd struct{}

func (*unclaimCmd) Name() string     { return "unclaim" }
func (*unclaimCmd) Synopsis() string { return "return a claimed transaction to the pool" }
func (*unclaimCmd) Usage() string {
	return `pfl unclaim <transaction-id>...

  Returns transactions to the family pool. An acquisition can only be
  unclaimed while its lot is untouched.
`
}

func (*unclaimCmd) SetFlags(*flag.FlagSet) {}

func (c *unclaimCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usageError(fmt.Errorf("unclaim needs at least one transaction id"))
	}
	engine, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	for _, id := range f.Args() {
		tx, err := engine.Unclaim(ctx, id)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("Unclaimed %s (%s %s x %s)\n", tx.ID, tx.Type, tx.Symbol, tx.Quantity)
	}
	return subcommands.ExitSuccess
}
