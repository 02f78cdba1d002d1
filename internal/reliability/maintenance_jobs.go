// Package reliability keeps the journal database healthy between deploys.
package reliability

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aristath/tradebook/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// Disk thresholds in bytes
const (
	criticalFreeBytes = 500 * 1000 * 1000
	warnFreeBytes     = 5 * 1000 * 1000 * 1000
)

// DiskUsageFunc reports free bytes for the filesystem holding path
type DiskUsageFunc func(ctx context.Context, path string) (uint64, error)

func gopsutilFree(ctx context.Context, path string) (uint64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// MaintenanceJob performs daily database maintenance
type MaintenanceJob struct {
	db       *database.DB
	diskFree DiskUsageFunc
	timeout  time.Duration
	log      zerolog.Logger
}

// NewMaintenanceJob creates a maintenance job for db
func NewMaintenanceJob(db *database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:       db,
		diskFree: gopsutilFree,
		timeout:  2 * time.Minute,
		log:      log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// SetDiskUsageFunc replaces the free-space probe
func (j *MaintenanceJob) SetDiskUsageFunc(fn DiskUsageFunc) {
	j.diskFree = fn
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "daily_maintenance"
}

// Run executes the maintenance steps in order. A failed checkpoint is
// logged and skipped; an unreachable database or a nearly full disk fails the run.
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	// Step 1: connectivity
	if err := j.db.QuickCheck(ctx); err != nil {
		j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Database unreachable")
		return fmt.Errorf("quick check failed for %s: %w", j.db.Name(), err)
	}

	// Step 2: WAL checkpoint (prevent bloat)
	if err := j.db.WALCheckpoint(ctx, "TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("WAL checkpoint failed")
	}

	// Step 3: disk space
	if err := j.checkDiskSpace(ctx); err != nil {
		return err
	}

	if stats, err := j.db.GetStats(ctx); err == nil {
		j.log.Info().
			Str("database", j.db.Name()).
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Int64("freelist_count", stats.FreelistCount).
			Msg("Database stats")
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed successfully")
	return nil
}

func (j *MaintenanceJob) checkDiskSpace(ctx context.Context) error {
	dir := filepath.Dir(j.db.Path())
	free, err := j.diskFree(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to read disk usage for %s: %w", dir, err)
	}

	availableGB := float64(free) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if free < criticalFreeBytes {
		j.log.Error().Float64("available_gb", availableGB).Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("only %.2f GB free on %s", availableGB, dir)
	}
	if free < warnFreeBytes {
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	}
	return nil
}
