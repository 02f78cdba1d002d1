package scheduler

import (
	"testing"

	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIntegrityJob_Name(t *testing.T) {
	job := NewCheckIntegrityJob(nil, zerolog.Nop())
	assert.Equal(t, "check_integrity", job.Name())
}

func TestCheckIntegrityJob_Run_NoDatabase(t *testing.T) {
	job := NewCheckIntegrityJob(nil, zerolog.New(nil).Level(zerolog.Disabled))
	assert.NoError(t, job.Run()) // Should handle a nil database gracefully
}

func TestCheckIntegrityJob_Run(t *testing.T) {
	db := testingpkg.NewJournalDB(t)
	job := NewCheckIntegrityJob(db, zerolog.Nop())
	require.NoError(t, job.Run())

	require.NoError(t, db.Conn().Close())
	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal")
}
