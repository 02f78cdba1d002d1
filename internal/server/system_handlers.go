package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/tradebook/internal/api"
	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Version is reported by the health and status endpoints
const Version = "1.0.0"

// JobStatusSource lists scheduled jobs
type JobStatusSource interface {
	Status() []scheduler.JobStatus
}

// HostStats is a point-in-time reading of host load
type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// HealthResponse is the body of GET /api/system/health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse is the body of GET /api/system/status
type StatusResponse struct {
	Version       string                `json:"version"`
	GoVersion     string                `json:"go_version"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Goroutines    int                   `json:"goroutines"`
	Host          HostStats             `json:"host"`
	Database      *database.Stats       `json:"database"`
	Jobs          []scheduler.JobStatus `json:"jobs"`
}

// SystemHandlers serves health and status reporting
type SystemHandlers struct {
	db        *database.DB
	jobs      JobStatusSource
	startedAt time.Time
	hostStats func() HostStats
	log       zerolog.Logger
}

// NewSystemHandlers creates system handlers. jobs may be nil.
func NewSystemHandlers(db *database.DB, jobs JobStatusSource, log zerolog.Logger) *SystemHandlers {
	h := &SystemHandlers{
		db:        db,
		jobs:      jobs,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
	h.hostStats = h.getSystemStats
	return h
}

// HandleHealth reports whether the journal database answers
// GET /api/system/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Service: "tradebook", Version: Version}
	if err := h.db.QuickCheck(ctx); err != nil {
		h.log.Error().Err(err).Msg("Health check failed")
		resp.Status = "unhealthy"
		resp.Error = "database unavailable"
		api.WriteJSON(w, h.log, http.StatusServiceUnavailable, resp)
		return
	}
	api.WriteJSON(w, h.log, http.StatusOK, resp)
}

// HandleStatus reports runtime, host, database and job state
// GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats(r.Context())
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	jobs := []scheduler.JobStatus{}
	if h.jobs != nil {
		jobs = h.jobs.Status()
	}

	api.WriteJSON(w, h.log, http.StatusOK, StatusResponse{
		Version:       Version,
		GoVersion:     runtime.Version(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		Host:          h.hostStats(),
		Database:      stats,
		Jobs:          jobs,
	})
}

// getSystemStats samples CPU over 100ms to keep the endpoint responsive
func (h *SystemHandlers) getSystemStats() HostStats {
	var stats HostStats

	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return stats
	}
	stats.MemoryPercent = memStat.UsedPercent
	return stats
}
