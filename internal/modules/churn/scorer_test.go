package churn

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightlab/insight/internal/domain"
)

func newTestScorer(seed int64) *Scorer {
	s := New(DefaultConfig(), rand.New(rand.NewSource(seed)), zerolog.Nop())
	s.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestScore_HealthyHighSpenderClampsToZero(t *testing.T) {
	s := newTestScorer(1)
	now := s.now()

	// Recent purchase, high frequency, spend at the high-spend boundary,
	// active account: only the -0.1 discount applies, clamped to 0.
	lastPurchase := now.AddDate(0, 0, -10)
	prediction, err := s.Score(domain.Customer{
		ID:               1,
		TotalSpent:       1000,
		OrderCount:       8,
		RegistrationDate: now.AddDate(-1, 0, 0),
		LastPurchaseDate: &lastPurchase,
		IsActive:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, prediction.PredictedValue)
	assert.Equal(t, domain.PredictionTypeChurn, prediction.PredictionType)
}

func TestScore_WorstCaseCustomer(t *testing.T) {
	s := newTestScorer(1)
	now := s.now()

	// Never purchased (365-day sentinel), zero frequency, zero spend,
	// inactive: 0.4 + 0.3 + 0.2 + 0.1 = 1.0
	prediction, err := s.Score(domain.Customer{
		ID:               2,
		TotalSpent:       0,
		OrderCount:       0,
		RegistrationDate: now.AddDate(-2, 0, 0),
		LastPurchaseDate: nil,
		IsActive:         false,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, prediction.PredictedValue)
}

func TestScore_RecencyTiersAreMutuallyExclusive(t *testing.T) {
	s := newTestScorer(1)
	now := s.now()

	cases := []struct {
		name     string
		daysAgo  int
		expected float64
	}{
		{"over 90 days", 120, 0.4},
		{"over 60 days", 75, 0.2},
		{"over 30 days", 45, 0.1},
		{"within 30 days", 10, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lastPurchase := now.AddDate(0, 0, -tc.daysAgo)
			// High frequency and spend so only recency contributes;
			// the high-spend discount is offset by adding it back.
			prediction, err := s.Score(domain.Customer{
				ID:               3,
				TotalSpent:       1000,
				OrderCount:       10,
				RegistrationDate: now.AddDate(-1, 0, 0),
				LastPurchaseDate: &lastPurchase,
				IsActive:         true,
			})
			require.NoError(t, err)

			expected := tc.expected - 0.1 // high-spend discount
			if expected < 0 {
				expected = 0
			}
			assert.InDelta(t, expected, prediction.PredictedValue, 0.0001)
		})
	}
}

func TestScore_ConfidenceWithinBounds(t *testing.T) {
	s := newTestScorer(99)
	now := s.now()

	for i := 0; i < 50; i++ {
		prediction, err := s.Score(domain.Customer{
			ID:               int64(i),
			RegistrationDate: now.AddDate(-1, 0, 0),
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, prediction.Confidence, 0.82)
		assert.Less(t, prediction.Confidence, 0.92)
	}
}

func TestScoreBatch_EmptyInput(t *testing.T) {
	s := newTestScorer(1)

	predictions, err := s.ScoreBatch(nil)
	require.NoError(t, err)
	assert.Empty(t, predictions)
}

func TestScoreBatch_OnePredictionPerCustomerInOrder(t *testing.T) {
	s := newTestScorer(1)
	now := s.now()

	customers := make([]domain.Customer, 20)
	for i := range customers {
		customers[i] = domain.Customer{
			ID:               int64(i + 1),
			TotalSpent:       float64(i * 50),
			OrderCount:       i,
			RegistrationDate: now.AddDate(-1, 0, 0),
		}
	}

	predictions, err := s.ScoreBatch(customers)
	require.NoError(t, err)
	require.Len(t, predictions, len(customers))

	for i, p := range predictions {
		assert.Equal(t, customers[i].ID, p.CustomerID)
		assert.GreaterOrEqual(t, p.PredictedValue, 0.0)
		assert.LessOrEqual(t, p.PredictedValue, 1.0)
	}
}

func TestScoreBatch_DeterministicUnderFixedSeed(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	customers := make([]domain.Customer, 37)
	for i := range customers {
		lastPurchase := now.AddDate(0, 0, -i*7)
		customers[i] = domain.Customer{
			ID:               int64(i + 1),
			TotalSpent:       float64(i * 123),
			OrderCount:       i % 12,
			RegistrationDate: now.AddDate(0, 0, -i*40-1),
			LastPurchaseDate: &lastPurchase,
			IsActive:         i%3 != 0,
		}
	}

	first, err := newTestScorer(7).ScoreBatch(customers)
	require.NoError(t, err)
	second, err := newTestScorer(7).ScoreBatch(customers)
	require.NoError(t, err)

	// Identical seed and inputs give identical output, regardless of
	// worker scheduling
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].CustomerID, second[i].CustomerID)
		assert.Equal(t, first[i].PredictedValue, second[i].PredictedValue)
		assert.Equal(t, first[i].Confidence, second[i].Confidence)
	}
}

func TestScoreBatch_SequentialMatchesParallel(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	customers := make([]domain.Customer, 15)
	for i := range customers {
		customers[i] = domain.Customer{
			ID:               int64(i + 1),
			TotalSpent:       float64(i * 80),
			OrderCount:       i,
			RegistrationDate: now.AddDate(-1, 0, 0),
		}
	}

	parallel := newTestScorer(3)
	sequentialCfg := DefaultConfig()
	sequentialCfg.Workers = 1
	sequential := New(sequentialCfg, rand.New(rand.NewSource(3)), zerolog.Nop())
	sequential.now = parallel.now

	a, err := parallel.ScoreBatch(customers)
	require.NoError(t, err)
	b, err := sequential.ScoreBatch(customers)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestScoreBatch_InvalidCustomerRejected(t *testing.T) {
	s := newTestScorer(1)

	_, err := s.ScoreBatch([]domain.Customer{
		{ID: 1, OrderCount: 2},
		{ID: 2, OrderCount: -3},
	})
	assert.Error(t, err)
}

func TestScore_ExpiryIsSevenDays(t *testing.T) {
	s := newTestScorer(1)

	prediction, err := s.Score(domain.Customer{ID: 1, RegistrationDate: s.now().AddDate(-1, 0, 0)})
	require.NoError(t, err)

	assert.Equal(t, s.now(), prediction.CreatedAt)
	assert.Equal(t, s.now().Add(7*24*time.Hour), prediction.ExpiresAt)
}
