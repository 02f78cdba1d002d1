package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/aristath/tradebook/internal/modules/analytics"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/google/subcommands"
)

type analyticsCmd struct {
	common
	portfolioID int64
	bySymbol    bool
}

func (*analyticsCmd) Name() string     { return "analytics" }
func (*analyticsCmd) Synopsis() string { return "print the analytics of one portfolio as JSON" }
func (*analyticsCmd) Usage() string {
	return `tradebook analytics -portfolio <id> [-by-symbol] [-data <dir>]

  Computes the same statistics as GET /api/analytics/portfolio/{id}
  from the closed trades currently in the journal.
`
}

func (c *analyticsCmd) SetFlags(f *flag.FlagSet) {
	c.setCommonFlags(f)
	f.Int64Var(&c.portfolioID, "portfolio", 0, "Portfolio id (required).")
	f.BoolVar(&c.bySymbol, "by-symbol", false, "Group the statistics per symbol.")
}

func (c *analyticsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolioID <= 0 {
		fmt.Fprintln(c.stdout(), c.Usage())
		return subcommands.ExitUsageError
	}

	db, err := c.openJournal()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	log := c.logger()
	service := analytics.NewService(
		trading.NewTradeRepository(db.Conn(), log),
		portfolio.NewRepository(db.Conn(), log),
		log,
	)

	var result interface{}
	if c.bySymbol {
		result, err = service.AnalyticsBySymbol(ctx, c.portfolioID)
	} else {
		result, err = service.PortfolioAnalytics(ctx, c.portfolioID)
	}
	if err != nil {
		return fail(err)
	}

	enc := json.NewEncoder(c.stdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
