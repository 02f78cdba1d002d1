package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type migrateCmd struct {
	common
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or upgrade the journal database schema" }
func (*migrateCmd) Usage() string {
	return `tradebook migrate [-data <dir>]

  Applies the embedded schema to <dir>/journal.db. Safe to run repeatedly.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	c.setCommonFlags(f)
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := c.openJournal()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	if err := db.HealthCheck(ctx); err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.stdout(), "journal schema up to date: %s\n", db.Path())
	return subcommands.ExitSuccess
}
