package analytics

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/database"
	"github.com/insightlab/insight/internal/domain"
)

// RecommendationRepository handles CRUD operations for product
// recommendations.
// Database: analytics.db (product_recommendations table)
type RecommendationRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRecommendationRepository creates a new recommendation repository
func NewRecommendationRepository(db *sql.DB, log zerolog.Logger) *RecommendationRepository {
	return &RecommendationRepository{
		db:  db,
		log: log.With().Str("repository", "recommendation").Logger(),
	}
}

// ReplaceAll atomically replaces the stored recommendation set with a
// freshly computed one. Recommendations are derived data; a refresh always
// supersedes the previous set wholesale.
func (r *RecommendationRepository) ReplaceAll(recs []domain.ProductRecommendation) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM product_recommendations`); err != nil {
			return fmt.Errorf("failed to clear recommendations: %w", err)
		}

		now := time.Now().Unix()
		for _, rec := range recs {
			if _, err := tx.Exec(`
				INSERT INTO product_recommendations
				(uuid, source_product_id, recommended_product_id, recommendation_type,
				 confidence, support, lift, co_occurrence_count, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				uuid.New().String(),
				rec.SourceProductID,
				rec.RecommendedProductID,
				string(rec.RecommendationType),
				rec.Confidence,
				rec.Support,
				rec.Lift,
				rec.CoOccurrenceCount,
				now,
			); err != nil {
				return fmt.Errorf("failed to insert recommendation %d->%d: %w",
					rec.SourceProductID, rec.RecommendedProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace recommendations: %w", err)
	}

	r.log.Info().Int("count", len(recs)).Msg("Replaced stored recommendations")

	return nil
}

// List returns stored recommendations ordered by confidence descending.
// A limit of 0 returns all rows.
func (r *RecommendationRepository) List(limit int) ([]domain.ProductRecommendation, error) {
	query := `
		SELECT source_product_id, recommended_product_id, recommendation_type,
		       confidence, support, lift, co_occurrence_count
		FROM product_recommendations
		ORDER BY confidence DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []domain.ProductRecommendation
	for rows.Next() {
		var rec domain.ProductRecommendation
		var recType string

		if err := rows.Scan(
			&rec.SourceProductID,
			&rec.RecommendedProductID,
			&recType,
			&rec.Confidence,
			&rec.Support,
			&rec.Lift,
			&rec.CoOccurrenceCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		rec.RecommendationType = domain.RecommendationType(recType)

		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// ListForProduct returns stored recommendations whose source is the given
// product, ordered by confidence descending.
func (r *RecommendationRepository) ListForProduct(productID int64) ([]domain.ProductRecommendation, error) {
	rows, err := r.db.Query(`
		SELECT source_product_id, recommended_product_id, recommendation_type,
		       confidence, support, lift, co_occurrence_count
		FROM product_recommendations
		WHERE source_product_id = ?
		ORDER BY confidence DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations for product %d: %w", productID, err)
	}
	defer rows.Close()

	var recs []domain.ProductRecommendation
	for rows.Next() {
		var rec domain.ProductRecommendation
		var recType string

		if err := rows.Scan(
			&rec.SourceProductID,
			&rec.RecommendedProductID,
			&recType,
			&rec.Confidence,
			&rec.Support,
			&rec.Lift,
			&rec.CoOccurrenceCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		rec.RecommendationType = domain.RecommendationType(recType)

		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
