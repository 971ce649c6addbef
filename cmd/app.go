// Package cmd implements the CLI application around the accounting engine.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/poolfolio/poolfolio"
	"github.com/poolfolio/poolfolio/store"
)

// Commands lists every subcommand the pfl binary registers.
var Commands = []subcommands.Command{
	&addCmd{},
	&claimCmd{},
	&unclaimCmd{},
	&delCmd{},
	&keepCmd{},
	&sellCmd{},
	&lotsCmd{},
	&gainsCmd{},
	&dupsCmd{},
	&exportCmd{},
	&importCmd{},
	&topicCmd{},
}

// openEngine loads the configuration, opens the database and builds the
// engine with the configured detector settings. The caller must Close the
// returned DB.
func openEngine() (*poolfolio.Engine, *store.DB, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	engine := poolfolio.NewEngine(db).
		WithDuplicatePolicy(poolfolio.DuplicatePolicy{
			Threshold: cfg.Engine.DuplicateThreshold,
			DayWindow: cfg.Engine.DuplicateDayWindow,
		}).
		WithWashSaleRule(poolfolio.WashSaleRule{
			WindowDays: cfg.Engine.WashSaleWindowDays,
		})
	return engine, db, nil
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering fails.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}

// fail prints the error and returns the failure exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// usageError prints the error and returns the usage exit status.
func usageError(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitUsageError
}
