// Package churn scores customers for churn risk.
package churn

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/domain"
	"github.com/insightlab/insight/internal/modules/features"
)

// Config holds the churn scoring weights and thresholds. The weights are
// undocumented heuristics inherited from the original scoring model;
// preserve them as tunable defaults rather than inferring "correct" values.
type Config struct {
	RecencyHighDays   int // recency above this adds RecencyHighWeight
	RecencyMedDays    int // else above this adds RecencyMedWeight
	RecencyLowDays    int // else above this adds RecencyLowWeight
	RecencyHighWeight float64
	RecencyMedWeight  float64
	RecencyLowWeight  float64

	LowFrequency            float64 // orders/year below this adds LowFrequencyWeight
	ModerateFrequency       float64 // else below this adds ModerateFrequencyWeight
	LowFrequencyWeight      float64
	ModerateFrequencyWeight float64

	LowSpend          float64 // total spent below this adds LowSpendWeight
	HighSpend         float64 // total spent at or above this subtracts HighSpendDiscount
	LowSpendWeight    float64
	HighSpendDiscount float64

	InactivityWeight float64 // added when the account is flagged inactive

	ConfidenceMin float64 // confidence drawn uniformly from [min, max)
	ConfidenceMax float64

	Validity time.Duration // how long a score stays fresh

	Workers int // batch fan-out width; <=1 means sequential
}

// DefaultConfig returns the default churn scoring configuration.
func DefaultConfig() Config {
	return Config{
		RecencyHighDays:   90,
		RecencyMedDays:    60,
		RecencyLowDays:    30,
		RecencyHighWeight: 0.4,
		RecencyMedWeight:  0.2,
		RecencyLowWeight:  0.1,

		LowFrequency:            2,
		ModerateFrequency:       4,
		LowFrequencyWeight:      0.3,
		ModerateFrequencyWeight: 0.1,

		LowSpend:          100,
		HighSpend:         1000,
		LowSpendWeight:    0.2,
		HighSpendDiscount: 0.1,

		InactivityWeight: 0.1,

		ConfidenceMin: 0.82,
		ConfidenceMax: 0.92,

		Validity: 7 * 24 * time.Hour,

		Workers: 4,
	}
}

// Scorer produces churn-risk predictions. The random source is injected so
// confidences are reproducible under a fixed seed; the rng is only touched
// from the goroutine calling Score/ScoreBatch.
type Scorer struct {
	cfg Config
	rng *rand.Rand
	now func() time.Time
	log zerolog.Logger
}

// New creates a new churn scorer.
func New(cfg Config, rng *rand.Rand, log zerolog.Logger) *Scorer {
	return &Scorer{
		cfg: cfg,
		rng: rng,
		now: time.Now,
		log: log.With().Str("engine", "churn").Logger(),
	}
}

// Score computes the churn prediction for a single customer.
func (s *Scorer) Score(customer domain.Customer) (domain.Prediction, error) {
	if customer.OrderCount < 0 || customer.TotalSpent < 0 {
		return domain.Prediction{}, fmt.Errorf("invalid customer %d: order_count=%d total_spent=%.2f",
			customer.ID, customer.OrderCount, customer.TotalSpent)
	}
	confidence := s.drawConfidence()
	return s.score(customer, confidence, s.now()), nil
}

// ScoreBatch scores a slice of customers independently, one prediction per
// input. An empty input yields an empty output. Confidences are drawn from
// the rng in input order before fan-out, so a fixed seed produces identical
// results regardless of worker scheduling.
func (s *Scorer) ScoreBatch(customers []domain.Customer) ([]domain.Prediction, error) {
	if len(customers) == 0 {
		return []domain.Prediction{}, nil
	}

	for _, c := range customers {
		if c.OrderCount < 0 || c.TotalSpent < 0 {
			return nil, fmt.Errorf("invalid customer %d: order_count=%d total_spent=%.2f",
				c.ID, c.OrderCount, c.TotalSpent)
		}
	}

	now := s.now()
	confidences := make([]float64, len(customers))
	for i := range customers {
		confidences[i] = s.drawConfidence()
	}

	predictions := make([]domain.Prediction, len(customers))

	workers := s.cfg.Workers
	if workers <= 1 || len(customers) < 2 {
		for i, c := range customers {
			predictions[i] = s.score(c, confidences[i], now)
		}
		return predictions, nil
	}
	if workers > len(customers) {
		workers = len(customers)
	}

	// Each customer's computation is independent; fan out with no shared
	// mutable state. Results land at their input index.
	var wg sync.WaitGroup
	indexes := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				predictions[i] = s.score(customers[i], confidences[i], now)
			}
		}()
	}

	for i := range customers {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	s.log.Debug().Int("customers", len(customers)).Int("workers", workers).
		Msg("Churn batch scored")

	return predictions, nil
}

// score computes the additive churn score for one customer. Pure except for
// the pre-drawn confidence.
func (s *Scorer) score(customer domain.Customer, confidence float64, now time.Time) domain.Prediction {
	f := features.Extract(customer, now)
	orderFrequency := f.PurchaseFrequency()

	risk := 0.0

	// Recency tiers, mutually exclusive, evaluated high to low
	switch {
	case f.DaysSinceLastPurchase > s.cfg.RecencyHighDays:
		risk += s.cfg.RecencyHighWeight
	case f.DaysSinceLastPurchase > s.cfg.RecencyMedDays:
		risk += s.cfg.RecencyMedWeight
	case f.DaysSinceLastPurchase > s.cfg.RecencyLowDays:
		risk += s.cfg.RecencyLowWeight
	}

	switch {
	case orderFrequency < s.cfg.LowFrequency:
		risk += s.cfg.LowFrequencyWeight
	case orderFrequency < s.cfg.ModerateFrequency:
		risk += s.cfg.ModerateFrequencyWeight
	}

	switch {
	case f.TotalSpent < s.cfg.LowSpend:
		risk += s.cfg.LowSpendWeight
	case f.TotalSpent >= s.cfg.HighSpend:
		risk -= s.cfg.HighSpendDiscount
	}

	if !f.IsActive {
		risk += s.cfg.InactivityWeight
	}

	risk = clamp(risk, 0, 1)

	return domain.Prediction{
		CustomerID:     customer.ID,
		PredictionType: domain.PredictionTypeChurn,
		PredictedValue: risk,
		Confidence:     confidence,
		Features:       f.Snapshot(),
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.cfg.Validity),
	}
}

func (s *Scorer) drawConfidence() float64 {
	return s.cfg.ConfidenceMin + s.rng.Float64()*(s.cfg.ConfidenceMax-s.cfg.ConfidenceMin)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
