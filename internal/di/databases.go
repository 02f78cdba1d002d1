// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the journal database and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{Config: cfg}

	// journal.db - users, portfolios, trades. Every write is fsynced.
	journalDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    database.JournalName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize journal database: %w", err)
	}

	if err := journalDB.Migrate(); err != nil {
		journalDB.Close()
		return nil, fmt.Errorf("failed to migrate journal database: %w", err)
	}
	container.JournalDB = journalDB

	log.Info().Str("path", journalDB.Path()).Msg("Journal database ready")
	return container, nil
}
