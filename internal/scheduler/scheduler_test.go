package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestScheduler_AddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", &countingJob{name: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Empty(t, s.Status())
}

func TestScheduler_RunNowRecordsStatus(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "maintenance"}
	require.NoError(t, s.AddJob("0 0 3 * * *", job))

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "maintenance", status[0].Name)
	assert.Equal(t, "0 0 3 * * *", status[0].Schedule)
	assert.False(t, status[0].LastRun.IsZero())
	assert.Empty(t, status[0].LastError)

	job.err = errors.New("disk full")
	assert.EqualError(t, s.RunNow(job), "disk full")
	assert.Equal(t, "disk full", s.Status()[0].LastError)
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.False(t, s.Status()[0].NextRun.IsZero())
}
