// Package analytics persists the engines' outputs (predictions, product
// recommendations, retrain runs) and hosts the service that ties the
// engines to the commerce store.
package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/database"
	"github.com/insightlab/insight/internal/domain"
)

// StoredPrediction is a persisted prediction row.
type StoredPrediction struct {
	UUID string
	domain.Prediction
}

// PredictionRepository handles CRUD operations for predictions.
// Database: analytics.db (predictions table)
type PredictionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *sql.DB, log zerolog.Logger) *PredictionRepository {
	return &PredictionRepository{
		db:  db,
		log: log.With().Str("repository", "prediction").Logger(),
	}
}

// Store persists a prediction and returns its uuid. Predictions are never
// mutated; a newer one simply supersedes the old after expiry.
func (r *PredictionRepository) Store(p domain.Prediction) (string, error) {
	featuresJSON, err := json.Marshal(p.Features)
	if err != nil {
		return "", fmt.Errorf("failed to marshal feature snapshot: %w", err)
	}

	newUUID := uuid.New().String()
	_, err = r.db.Exec(`
		INSERT INTO predictions
		(uuid, customer_id, prediction_type, predicted_value, confidence, features, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		newUUID,
		p.CustomerID,
		string(p.PredictionType),
		p.PredictedValue,
		p.Confidence,
		string(featuresJSON),
		p.CreatedAt.Unix(),
		p.ExpiresAt.Unix(),
	)

	if err != nil {
		return "", fmt.Errorf("failed to insert prediction: %w", err)
	}

	return newUUID, nil
}

// StoreBatch persists a batch of predictions in one transaction.
func (r *PredictionRepository) StoreBatch(predictions []domain.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		for _, p := range predictions {
			featuresJSON, err := json.Marshal(p.Features)
			if err != nil {
				return fmt.Errorf("failed to marshal feature snapshot: %w", err)
			}

			if _, err := tx.Exec(`
				INSERT INTO predictions
				(uuid, customer_id, prediction_type, predicted_value, confidence, features, created_at, expires_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
				uuid.New().String(),
				p.CustomerID,
				string(p.PredictionType),
				p.PredictedValue,
				p.Confidence,
				string(featuresJSON),
				p.CreatedAt.Unix(),
				p.ExpiresAt.Unix(),
			); err != nil {
				return fmt.Errorf("failed to insert prediction for customer %d: %w", p.CustomerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store prediction batch: %w", err)
	}

	r.log.Debug().Int("count", len(predictions)).Msg("Stored prediction batch")

	return nil
}

// LatestForCustomer returns the most recent prediction of the given type
// for a customer, or nil when none exists.
func (r *PredictionRepository) LatestForCustomer(customerID int64, predictionType domain.PredictionType) (*StoredPrediction, error) {
	var sp StoredPrediction
	var featuresJSON string
	var createdUnix, expiresUnix int64

	err := r.db.QueryRow(`
		SELECT uuid, customer_id, prediction_type, predicted_value, confidence, features, created_at, expires_at
		FROM predictions
		WHERE customer_id = ? AND prediction_type = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, customerID, string(predictionType)).Scan(
		&sp.UUID,
		&sp.CustomerID,
		&sp.PredictionType,
		&sp.PredictedValue,
		&sp.Confidence,
		&featuresJSON,
		&createdUnix,
		&expiresUnix,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest prediction: %w", err)
	}

	if err := json.Unmarshal([]byte(featuresJSON), &sp.Features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feature snapshot: %w", err)
	}
	sp.CreatedAt = time.Unix(createdUnix, 0).UTC()
	sp.ExpiresAt = time.Unix(expiresUnix, 0).UTC()

	return &sp, nil
}

// DeleteExpiredBefore deletes predictions whose expiry passed before the
// cutoff. Expiry is advisory metadata as far as the engines are concerned;
// pruning long-expired rows is storage maintenance.
func (r *PredictionRepository) DeleteExpiredBefore(cutoff time.Time) (int, error) {
	result, err := r.db.Exec(`
		DELETE FROM predictions
		WHERE expires_at < ?
	`, cutoff.Unix())

	if err != nil {
		return 0, fmt.Errorf("failed to delete expired predictions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	count := int(rowsAffected)
	if count > 0 {
		r.log.Info().Int("deleted_count", count).Msg("Deleted expired predictions")
	}

	return count, nil
}
