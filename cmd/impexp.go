package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/poolfolio/poolfolio"
)

// exportCmd writes the transaction pool as JSONL.
type exportCmd struct {
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export all transactions as JSONL" }
func (*exportCmd) Usage() string {
	return `pfl export [-o <file>]

  Writes every transaction, one canonical JSON object per line, ordered
  by date. Two exports of the same data are byte identical.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "Output file, defaults to stdout")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	txs, err := db.Transactions(ctx, poolfolio.TxFilter{})
	if err != nil {
		return fail(err)
	}

	out := os.Stdout
	if c.out != "" {
		f, err := os.Create(c.out)
		if err != nil {
			return fail(err)
		}
		defer f.Close()
		out = f
	}
	if err := poolfolio.EncodeTransactions(out, txs); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// importCmd reads transactions from a JSONL file into the pool.
type importCmd struct {
	claim string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a JSONL file" }
func (*importCmd) Usage() string {
	return `pfl import [-owner <owner>] <file>

  Reads transactions from a JSONL file. Each record passes through the
  duplicate detector unless claimed directly with -owner.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.claim, "owner", "", "Claim every imported transaction for this owner")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(fmt.Errorf("import needs exactly one file"))
	}
	in, err := os.Open(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	defer in.Close()

	txs, err := poolfolio.DecodeTransactions(in)
	if err != nil {
		return fail(err)
	}

	engine, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	flagged := 0
	for _, tx := range txs {
		// Imported records always land in the pool first so that the
		// duplicate detector sees them; a claim opens lots afterwards.
		tx.Owner = ""
		tx.Duplicate, tx.DuplicateOf, tx.DuplicateScore = false, "", 0
		recorded, matches, err := engine.Record(ctx, tx)
		if err != nil {
			return fail(err)
		}
		if len(matches) > 0 {
			flagged++
		}
		if c.claim != "" {
			if _, err := engine.Claim(ctx, recorded.ID, c.claim); err != nil {
				return fail(err)
			}
		}
	}
	fmt.Printf("Imported %d transactions from %s", len(txs), f.Arg(0))
	if flagged > 0 {
		fmt.Printf(", %d flagged as likely duplicates (see 'pfl dups')", flagged)
	}
	fmt.Println()
	return subcommands.ExitSuccess
}
