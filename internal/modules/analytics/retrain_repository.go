package analytics

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/domain"
)

// RetrainRepository records simulated retrain runs.
// Database: analytics.db (retrain_runs table)
type RetrainRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRetrainRepository creates a new retrain run repository
func NewRetrainRepository(db *sql.DB, log zerolog.Logger) *RetrainRepository {
	return &RetrainRepository{
		db:  db,
		log: log.With().Str("repository", "retrain").Logger(),
	}
}

// Record stores the outcome of a retrain run.
func (r *RetrainRepository) Record(result domain.RetrainResult) error {
	_, err := r.db.Exec(`
		INSERT INTO retrain_runs (uuid, model_type, success, accuracy, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		uuid.New().String(),
		result.ModelType,
		result.Success,
		result.Accuracy,
		result.Timestamp.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to record retrain run: %w", err)
	}

	return nil
}

// LastRun returns the most recent retrain result for a model type, or nil
// when the model has never been retrained.
func (r *RetrainRepository) LastRun(modelType string) (*domain.RetrainResult, error) {
	var result domain.RetrainResult
	var createdUnix int64

	err := r.db.QueryRow(`
		SELECT model_type, success, accuracy, created_at
		FROM retrain_runs
		WHERE model_type = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, modelType).Scan(&result.ModelType, &result.Success, &result.Accuracy, &createdUnix)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last retrain run: %w", err)
	}

	result.Timestamp = time.Unix(createdUnix, 0).UTC()

	return &result, nil
}
