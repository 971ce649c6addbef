package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/poolfolio/poolfolio"
)

// addCmd holds the flags for the 'add' subcommand.
type addCmd struct {
	date     string
	typ      string
	symbol   string
	quantity float64
	price    float64
	amount   float64
	fees     float64
	currency string
	owner    string
	memo     string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a transaction in the family pool" }
func (*addCmd) Usage() string {
	return `pfl add -type <type> -symbol <symbol> -q <quantity> -p <price> [-d <date>] [-fees <fees>] [-owner <owner>] [-memo <memo>]

  Records a buy, sell, dividend or transfer. Unclaimed transactions pass
  through the duplicate detector; suspected re-imports are flagged for
  review but still recorded.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", poolfolio.Today().String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.typ, "type", "buy", "Transaction type (buy, sell, dividend, transfer-in, transfer-out)")
	f.StringVar(&c.symbol, "symbol", "", "Ticker symbol")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Unit price")
	f.Float64Var(&c.amount, "amount", 0, "Gross amount, defaults to quantity x price")
	f.Float64Var(&c.fees, "fees", 0, "Fees on top of the gross amount")
	f.StringVar(&c.currency, "c", "USD", "Currency code")
	f.StringVar(&c.owner, "owner", "", "Claim immediately for this owner")
	f.StringVar(&c.memo, "memo", "", "Optional note")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, err := poolfolio.ParseDate(c.date)
	if err != nil {
		return usageError(err)
	}
	typ, err := poolfolio.ParseTxType(c.typ)
	if err != nil {
		return usageError(err)
	}
	amount := c.amount
	if amount == 0 {
		amount = c.quantity * c.price
	}

	tx := poolfolio.NewTransaction(day, typ, c.symbol,
		poolfolio.Q(c.quantity),
		poolfolio.M(c.price, c.currency),
		poolfolio.M(amount, c.currency),
		poolfolio.M(c.fees, c.currency),
		c.memo)

	engine, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	recorded, matches, err := engine.Record(ctx, tx)
	if err != nil {
		return fail(err)
	}
	if c.owner != "" {
		// Claiming after recording opens the lot for acquisitions.
		if recorded, err = engine.Claim(ctx, recorded.ID, c.owner); err != nil {
			return fail(err)
		}
	}
	fmt.Printf("Recorded %s: %s %s x %s\n", recorded.ID, recorded.Type, recorded.Symbol, recorded.Quantity)
	for _, m := range matches {
		fmt.Printf("Possible duplicate of %s (score %d). Review with 'pfl dups'.\n", m.MatchID, m.Score)
	}
	return subcommands.ExitSuccess
}
