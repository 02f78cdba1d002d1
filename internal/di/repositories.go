package di

import (
	"fmt"

	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/aristath/tradebook/internal/modules/users"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates every repository over the journal database
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container.JournalDB == nil {
		return fmt.Errorf("journal database not initialized")
	}
	conn := container.JournalDB.Conn()

	container.PortfolioRepo = portfolio.NewRepository(conn, log)
	container.TradeRepo = trading.NewTradeRepository(conn, log)
	container.UserRepo = users.NewRepository(conn, log)

	log.Debug().Msg("Repositories initialized")
	return nil
}
