package analytics

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightlab/insight/internal/domain"
	testhelpers "github.com/insightlab/insight/internal/testing"
)

func testPrediction(customerID int64, createdAt time.Time) domain.Prediction {
	return domain.Prediction{
		CustomerID:     customerID,
		PredictionType: domain.PredictionTypeCLV,
		PredictedValue: 1500.50,
		Confidence:     0.85,
		Features: map[string]float64{
			"avg_order_value": 75,
			"order_count":     8,
		},
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(30 * 24 * time.Hour),
	}
}

func TestPredictionRepository_StoreAndFetchLatest(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "analytics")
	defer cleanup()

	repo := NewPredictionRepository(db.Conn(), zerolog.Nop())
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	id, err := repo.Store(testPrediction(1, now))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	stored, err := repo.LatestForCustomer(1, domain.PredictionTypeCLV)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, id, stored.UUID)
	assert.Equal(t, 1500.50, stored.PredictedValue)
	assert.Equal(t, 0.85, stored.Confidence)
	assert.Equal(t, now, stored.CreatedAt)
	assert.Equal(t, 75.0, stored.Features["avg_order_value"])
}

func TestPredictionRepository_LatestPicksNewest(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "analytics")
	defer cleanup()

	repo := NewPredictionRepository(db.Conn(), zerolog.Nop())
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	older := testPrediction(1, base)
	older.PredictedValue = 100

	newer := testPrediction(1, base.AddDate(0, 0, 5))
	newer.PredictedValue = 200

	_, err := repo.Store(older)
	require.NoError(t, err)
	_, err = repo.Store(newer)
	require.NoError(t, err)

	stored, err := repo.LatestForCustomer(1, domain.PredictionTypeCLV)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 200.0, stored.PredictedValue)
}

func TestPredictionRepository_TypeFilter(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "analytics")
	defer cleanup()

	repo := NewPredictionRepository(db.Conn(), zerolog.Nop())
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	_, err := repo.Store(testPrediction(1, now))
	require.NoError(t, err)

	stored, err := repo.LatestForCustomer(1, domain.PredictionTypeChurn)
	require.NoError(t, err)
	assert.Nil(t, stored, "clv prediction must not satisfy a churn lookup")
}

func TestPredictionRepository_StoreBatch(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "analytics")
	defer cleanup()

	repo := NewPredictionRepository(db.Conn(), zerolog.Nop())
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	batch := []domain.Prediction{
		testPrediction(1, now),
		testPrediction(2, now),
		testPrediction(3, now),
	}
	require.NoError(t, repo.StoreBatch(batch))

	for _, p := range batch {
		stored, err := repo.LatestForCustomer(p.CustomerID, domain.PredictionTypeCLV)
		require.NoError(t, err)
		require.NotNil(t, stored)
	}

	// Empty batch is a no-op
	require.NoError(t, repo.StoreBatch(nil))
}

func TestPredictionRepository_DeleteExpiredBefore(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "analytics")
	defer cleanup()

	repo := NewPredictionRepository(db.Conn(), zerolog.Nop())
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	expired := testPrediction(1, now.AddDate(0, -2, 0))
	fresh := testPrediction(2, now)

	_, err := repo.Store(expired)
	require.NoError(t, err)
	_, err = repo.Store(fresh)
	require.NoError(t, err)

	removed, err := repo.DeleteExpiredBefore(now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	gone, err := repo.LatestForCustomer(1, domain.PredictionTypeCLV)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := repo.LatestForCustomer(2, domain.PredictionTypeCLV)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestRecommendationRepository_ReplaceAllAndList(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "analytics")
	defer cleanup()

	repo := NewRecommendationRepository(db.Conn(), zerolog.Nop())

	first := []domain.ProductRecommendation{
		{SourceProductID: 1, RecommendedProductID: 2, RecommendationType: domain.RecommendationUpSell, Confidence: 0.6, Support: 0.2, Lift: 1.1, CoOccurrenceCount: 4},
		{SourceProductID: 2, RecommendedProductID: 3, RecommendationType: domain.RecommendationCrossSell, Confidence: 0.9, Support: 0.3, Lift: 2.5, CoOccurrenceCount: 6},
	}
	require.NoError(t, repo.ReplaceAll(first))

	recs, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 0.9, recs[0].Confidence, "listing is confidence descending")

	// A refresh replaces the old set wholesale
	second := []domain.ProductRecommendation{
		{SourceProductID: 5, RecommendedProductID: 6, RecommendationType: domain.RecommendationUpSell, Confidence: 0.4, Support: 0.1, Lift: 1.0, CoOccurrenceCount: 2},
	}
	require.NoError(t, repo.ReplaceAll(second))

	recs, err = repo.List(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(5), recs[0].SourceProductID)
}

func TestRecommendationRepository_ListLimitAndProductFilter(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "analytics")
	defer cleanup()

	repo := NewRecommendationRepository(db.Conn(), zerolog.Nop())

	set := []domain.ProductRecommendation{
		{SourceProductID: 1, RecommendedProductID: 2, RecommendationType: domain.RecommendationUpSell, Confidence: 0.7, Support: 0.2, Lift: 1.2, CoOccurrenceCount: 3},
		{SourceProductID: 1, RecommendedProductID: 3, RecommendationType: domain.RecommendationUpSell, Confidence: 0.5, Support: 0.15, Lift: 1.1, CoOccurrenceCount: 2},
		{SourceProductID: 4, RecommendedProductID: 1, RecommendationType: domain.RecommendationCrossSell, Confidence: 0.8, Support: 0.25, Lift: 2.2, CoOccurrenceCount: 5},
	}
	require.NoError(t, repo.ReplaceAll(set))

	limited, err := repo.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	forProduct, err := repo.ListForProduct(1)
	require.NoError(t, err)
	require.Len(t, forProduct, 2)
	assert.Equal(t, 0.7, forProduct[0].Confidence)
	assert.Equal(t, 0.5, forProduct[1].Confidence)
}

func TestRetrainRepository_RecordAndLastRun(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "analytics")
	defer cleanup()

	repo := NewRetrainRepository(db.Conn(), zerolog.Nop())

	none, err := repo.LastRun("clv")
	require.NoError(t, err)
	assert.Nil(t, none)

	first := domain.RetrainResult{
		ModelType: "clv",
		Success:   true,
		Accuracy:  0.91,
		Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	second := domain.RetrainResult{
		ModelType: "clv",
		Success:   true,
		Accuracy:  0.93,
		Timestamp: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Record(first))
	require.NoError(t, repo.Record(second))

	last, err := repo.LastRun("clv")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 0.93, last.Accuracy)
	assert.Equal(t, second.Timestamp, last.Timestamp)

	other, err := repo.LastRun("churn")
	require.NoError(t, err)
	assert.Nil(t, other)
}
