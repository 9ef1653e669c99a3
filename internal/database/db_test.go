package database

import (
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRawTestDB(t *testing.T) *DB {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test_db_*.db")
	require.NoError(t, err)
	tmpPath := tmpFile.Name()
	require.NoError(t, tmpFile.Close())

	db, err := New(Config{Path: tmpPath, Profile: ProfileStandard, Name: "scratch"})
	require.NoError(t, err)

	_, err = db.Conn().Exec(`CREATE TABLE entries (id INTEGER PRIMARY KEY, value TEXT NOT NULL)`)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(tmpPath)
	})

	return db
}

func countEntries(t *testing.T, db *DB) int {
	t.Helper()
	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count))
	return count
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	db := newRawTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		for _, v := range []string{"a", "b", "c"} {
			if _, err := tx.Exec(`INSERT INTO entries (value) VALUES (?)`, v); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, countEntries(t, db))
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := newRawTestDB(t)
	boom := errors.New("boom")

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO entries (value) VALUES (?)`, "a"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 0, countEntries(t, db), "failed transaction must leave no rows behind")
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	db := newRawTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO entries (value) VALUES (?)`, "a"); err != nil {
			return err
		}
		panic("something went sideways")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	assert.Equal(t, 0, countEntries(t, db))
}

func TestWithTransaction_NilDB(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	assert.Error(t, err)
}

func TestWALCheckpoint(t *testing.T) {
	db := newRawTestDB(t)

	// Generate some WAL traffic, then checkpoint in every supported mode
	for i := 0; i < 10; i++ {
		_, err := db.Conn().Exec(`INSERT INTO entries (value) VALUES (?)`, "row")
		require.NoError(t, err)
	}

	for _, mode := range []string{"PASSIVE", "FULL", "TRUNCATE", ""} {
		assert.NoError(t, db.WALCheckpoint(mode), "mode %q", mode)
	}

	assert.Equal(t, 10, countEntries(t, db), "checkpointing must not lose rows")
}
