package clv

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightlab/insight/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPredict_KnownInputs(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	p := New(DefaultConfig(), zerolog.Nop())
	p.now = fixedClock(now)

	registered := now.AddDate(0, 0, -730) // 2 years tenure
	lastPurchase := now.AddDate(0, 0, -10)

	prediction, err := p.Predict(domain.Customer{
		ID:               42,
		TotalSpent:       1200, // AOV 120 with 10 orders
		OrderCount:       10,
		RegistrationDate: registered,
		LastPurchaseDate: &lastPurchase,
		IsActive:         true,
	})
	require.NoError(t, err)

	// AOV 120 > 100 (+1y) and recency 10 < 30 (+0.5y): lifespan 3.5y.
	// Frequency: 10 orders / 2 years = 5/year.
	// CLV = 120 * 5 * 3.5 = 2100.
	assert.Equal(t, 2100.0, prediction.PredictedValue)

	// Base 0.70 + repeat 0.10 + recent 0.10 + tenure 0.05 = 0.95 (capped)
	assert.Equal(t, 0.95, prediction.Confidence)

	assert.Equal(t, int64(42), prediction.CustomerID)
	assert.Equal(t, domain.PredictionTypeCLV, prediction.PredictionType)
	assert.Equal(t, now, prediction.CreatedAt)
	assert.Equal(t, now.Add(30*24*time.Hour), prediction.ExpiresAt)
}

func TestPredict_NewCustomerBaseline(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	p := New(DefaultConfig(), zerolog.Nop())
	p.now = fixedClock(now)

	prediction, err := p.Predict(domain.Customer{
		ID:               7,
		TotalSpent:       0,
		OrderCount:       0,
		RegistrationDate: now.AddDate(0, 0, -1),
		LastPurchaseDate: nil,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, prediction.PredictedValue)
	assert.Equal(t, 0.70, prediction.Confidence)
}

func TestPredict_LifespanCapped(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.BaseLifespanYears = 4.0 // 4 + 1 + 0.5 + 1 would exceed the 5y cap
	p := New(cfg, zerolog.Nop())
	p.now = fixedClock(now)

	lastPurchase := now.AddDate(0, 0, -5)
	prediction, err := p.Predict(domain.Customer{
		ID:               8,
		TotalSpent:       3000, // AOV 150
		OrderCount:       20,
		RegistrationDate: now.AddDate(-1, 0, 0),
		LastPurchaseDate: &lastPurchase,
	})
	require.NoError(t, err)

	// Frequency 20/year, lifespan capped at 5: 150 * 20 * 5
	assert.Equal(t, 15000.0, prediction.PredictedValue)
}

func TestPredict_ConfidenceWithinBounds(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	p := New(DefaultConfig(), zerolog.Nop())
	p.now = fixedClock(now)

	customers := []domain.Customer{
		{ID: 1, RegistrationDate: now.AddDate(0, 0, -1)},
		{ID: 2, TotalSpent: 50, OrderCount: 1, RegistrationDate: now.AddDate(0, -6, 0)},
		{ID: 3, TotalSpent: 5000, OrderCount: 40, RegistrationDate: now.AddDate(-3, 0, 0)},
	}

	for _, c := range customers {
		prediction, err := p.Predict(c)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, prediction.Confidence, 0.70)
		assert.LessOrEqual(t, prediction.Confidence, 0.95)
		assert.GreaterOrEqual(t, prediction.PredictedValue, 0.0)
	}
}

func TestPredict_InvalidCustomerRejected(t *testing.T) {
	p := New(DefaultConfig(), zerolog.Nop())

	_, err := p.Predict(domain.Customer{ID: 9, OrderCount: -1})
	assert.Error(t, err)

	_, err = p.Predict(domain.Customer{ID: 10, TotalSpent: -5})
	assert.Error(t, err)
}

func TestPredict_Deterministic(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	p := New(DefaultConfig(), zerolog.Nop())
	p.now = fixedClock(now)

	lastPurchase := now.AddDate(0, 0, -45)
	customer := domain.Customer{
		ID:               11,
		TotalSpent:       800,
		OrderCount:       6,
		RegistrationDate: now.AddDate(-2, 0, 0),
		LastPurchaseDate: &lastPurchase,
	}

	first, err := p.Predict(customer)
	require.NoError(t, err)
	second, err := p.Predict(customer)
	require.NoError(t, err)

	assert.Equal(t, first.PredictedValue, second.PredictedValue)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Features, second.Features)
}
