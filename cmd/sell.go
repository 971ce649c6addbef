package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/poolfolio/poolfolio"
	"github.com/poolfolio/poolfolio/renderer"
)

// sellCmd plans and optionally commits a sale allocation.
type sellCmd struct {
	method string
	lots   string
	commit bool
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "allocate a claimed sale against open lots" }
func (*sellCmd) Usage() string {
	return `pfl sell [-method <method>] [-lots <lot:qty,...>] [-commit] <transaction-id>

  Plans which lots a claimed sale consumes and shows the realized gain or
  loss together with the wash sale evaluation. Nothing changes until
  -commit is given; with SPECID the -lots selection is required.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.method, "method", "FIFO", "Cost basis method (FIFO, LIFO, HIFO, SPECID)")
	f.StringVar(&c.lots, "lots", "", "Explicit lot selection for SPECID, as lotId:qty pairs separated by commas")
	f.BoolVar(&c.commit, "commit", false, "Apply the allocation instead of previewing it")
}

// parseSelections turns "lot1:5,lot2:10" into lot selections.
func parseSelections(s string) ([]poolfolio.LotSelection, error) {
	if s == "" {
		return nil, nil
	}
	var out []poolfolio.LotSelection
	for _, pair := range strings.Split(s, ",") {
		id, qty, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, fmt.Errorf("bad lot selection %q, want lotId:qty", pair)
		}
		var q float64
		if _, err := fmt.Sscanf(qty, "%g", &q); err != nil {
			return nil, fmt.Errorf("bad quantity in %q: %w", pair, err)
		}
		out = append(out, poolfolio.LotSelection{LotID: id, Quantity: poolfolio.Q(q)})
	}
	return out, nil
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(fmt.Errorf("sell needs exactly one transaction id"))
	}
	method, err := poolfolio.ParseCostBasisMethod(c.method)
	if err != nil {
		return usageError(err)
	}
	selections, err := parseSelections(c.lots)
	if err != nil {
		return usageError(err)
	}

	engine, db, err := openEngine()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	var result *poolfolio.SaleResult
	if c.commit {
		result, err = engine.CommitSale(ctx, f.Arg(0), method, selections)
	} else {
		result, err = engine.PlanSale(ctx, f.Arg(0), method, selections)
	}
	if err != nil {
		return fail(err)
	}

	printMarkdown(renderer.PlanMarkdown(result))
	if !c.commit {
		fmt.Println("Preview only. Re-run with -commit to apply.")
	}
	return subcommands.ExitSuccess
}
