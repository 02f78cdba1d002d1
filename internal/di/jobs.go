package di

import (
	"fmt"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/reliability"
	"github.com/aristath/tradebook/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the scheduler and registers the background jobs.
// The scheduler is not started here.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Scheduler = scheduler.New(log)

	container.MaintenanceJob = reliability.NewMaintenanceJob(container.JournalDB, log)
	if err := container.Scheduler.AddJob(cfg.MaintenanceSchedule, container.MaintenanceJob); err != nil {
		return fmt.Errorf("failed to register maintenance job: %w", err)
	}

	if cfg.IntegritySchedule != "" {
		container.IntegrityJob = scheduler.NewCheckIntegrityJob(container.JournalDB, log)
		if err := container.Scheduler.AddJob(cfg.IntegritySchedule, container.IntegrityJob); err != nil {
			return fmt.Errorf("failed to register integrity job: %w", err)
		}
	}

	return nil
}
