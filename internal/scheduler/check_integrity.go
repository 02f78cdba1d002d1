package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/tradebook/internal/database"
	"github.com/rs/zerolog"
)

// CheckIntegrityJob runs SQLite's full integrity check on a database.
// It is slower than the nightly quick check and runs less often.
type CheckIntegrityJob struct {
	db      *database.DB
	timeout time.Duration
	log     zerolog.Logger
}

// NewCheckIntegrityJob creates a new CheckIntegrityJob
func NewCheckIntegrityJob(db *database.DB, log zerolog.Logger) *CheckIntegrityJob {
	return &CheckIntegrityJob{
		db:      db,
		timeout: 10 * time.Minute,
		log:     log.With().Str("job", "check_integrity").Logger(),
	}
}

// Name returns the job name
func (j *CheckIntegrityJob) Name() string {
	return "check_integrity"
}

// Run executes PRAGMA integrity_check. Corruption cannot be repaired
// automatically, so it is only reported.
func (j *CheckIntegrityJob) Run() error {
	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().
			Err(err).
			Str("database", j.db.Name()).
			Msg("Database integrity check failed")
		return fmt.Errorf("database %s failed integrity check: %w", j.db.Name(), err)
	}

	j.log.Info().Str("database", j.db.Name()).Msg("Database integrity check passed")
	return nil
}
