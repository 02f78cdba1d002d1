// Package cli implements the tradebook operator commands.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/pkg/logger"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Commands lists every subcommand, registered by cmd/tradebook
var Commands = []subcommands.Command{
	&migrateCmd{},
	&analyticsCmd{},
	&exportCmd{},
}

// common holds the flags and streams shared by all commands
type common struct {
	dataDir  string
	logLevel string
	out      io.Writer
}

func (c *common) setCommonFlags(f *flag.FlagSet) {
	def := os.Getenv("TRADEBOOK_DATA_DIR")
	if def == "" {
		def = "./data"
	}
	f.StringVar(&c.dataDir, "data", def, "Directory holding journal.db.")
	f.StringVar(&c.logLevel, "log", "warn", "Log level (debug, info, warn, error).")
}

func (c *common) stdout() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

func (c *common) logger() zerolog.Logger {
	return logger.New(logger.Config{Level: c.logLevel, Pretty: true, Output: os.Stderr})
}

// openJournal opens journal.db under the data directory with the schema applied
func (c *common) openJournal() (*database.DB, error) {
	if err := os.MkdirAll(c.dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(c.dataDir, "journal.db"),
		Profile: database.ProfileLedger,
		Name:    database.JournalName,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}
