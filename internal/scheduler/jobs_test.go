package scheduler

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightlab/insight/internal/database"
	testhelpers "github.com/insightlab/insight/internal/testing"
)

func TestWALCheckpointJob_CheckpointsAllDatabases(t *testing.T) {
	commerceDB, cleanupCommerce := testhelpers.NewTestDB(t, "commerce")
	defer cleanupCommerce()
	analyticsDB, cleanupAnalytics := testhelpers.NewTestDB(t, "analytics")
	defer cleanupAnalytics()

	// Write something so there is WAL content to checkpoint
	_, err := commerceDB.Conn().Exec(
		`INSERT INTO customers (id, email, registration_date) VALUES (1, 'a@example.com', 1700000000)`)
	require.NoError(t, err)

	job := NewWALCheckpointJob([]*database.DB{commerceDB, analyticsDB}, zerolog.Nop())

	assert.Equal(t, "wal_checkpoint", job.Name())
	assert.NoError(t, job.Run())
}

func TestWALCheckpointJob_SkipsNilDatabases(t *testing.T) {
	commerceDB, cleanup := testhelpers.NewTestDB(t, "commerce")
	defer cleanup()

	job := NewWALCheckpointJob([]*database.DB{nil, commerceDB, nil}, zerolog.Nop())

	assert.NoError(t, job.Run())
}
