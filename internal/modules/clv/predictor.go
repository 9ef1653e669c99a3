// Package clv estimates customer lifetime value from extracted features.
package clv

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/domain"
	"github.com/insightlab/insight/internal/modules/features"
)

// Config holds the CLV heuristic thresholds. The defaults are tuned
// heuristics, not fitted parameters - keep them configurable.
type Config struct {
	BaseLifespanYears float64 // starting customer lifespan estimate
	MaxLifespanYears  float64 // hard cap on the lifespan estimate

	HighValueAOV       float64 // avg order value above which lifespan extends by 1y
	RecentPurchaseDays int     // recency below which lifespan extends by 0.5y
	LoyalOrderCount    int     // order count above which lifespan extends by 1y

	BaseConfidence    float64 // starting confidence
	MaxConfidence     float64 // hard cap on confidence
	RepeatOrderCount  int     // order count above which confidence gains 0.10
	EstablishedTenure int     // tenure days above which confidence gains 0.05

	Validity time.Duration // how long a prediction stays fresh
}

// DefaultConfig returns the default CLV configuration.
func DefaultConfig() Config {
	return Config{
		BaseLifespanYears:  2.0,
		MaxLifespanYears:   5.0,
		HighValueAOV:       100,
		RecentPurchaseDays: 30,
		LoyalOrderCount:    10,
		BaseConfidence:     0.70,
		MaxConfidence:      0.95,
		RepeatOrderCount:   5,
		EstablishedTenure:  365,
		Validity:           30 * 24 * time.Hour,
	}
}

// Predictor produces CLV predictions. It is stateless apart from its
// configuration; safe for concurrent use.
type Predictor struct {
	cfg Config
	now func() time.Time
	log zerolog.Logger
}

// New creates a new CLV predictor.
func New(cfg Config, log zerolog.Logger) *Predictor {
	return &Predictor{
		cfg: cfg,
		now: time.Now,
		log: log.With().Str("engine", "clv").Logger(),
	}
}

// Predict computes a CLV prediction for one customer. The caller is
// responsible for resolving the customer reference; this engine assumes a
// valid, fully-populated record and fails fast otherwise.
func (p *Predictor) Predict(customer domain.Customer) (domain.Prediction, error) {
	if customer.OrderCount < 0 || customer.TotalSpent < 0 {
		return domain.Prediction{}, fmt.Errorf("invalid customer %d: order_count=%d total_spent=%.2f",
			customer.ID, customer.OrderCount, customer.TotalSpent)
	}

	now := p.now()
	f := features.Extract(customer, now)

	purchaseFrequency := f.PurchaseFrequency()

	lifespan := p.cfg.BaseLifespanYears
	if f.AvgOrderValue > p.cfg.HighValueAOV {
		lifespan += 1.0
	}
	if f.DaysSinceLastPurchase < p.cfg.RecentPurchaseDays {
		lifespan += 0.5
	}
	if f.OrderCount > p.cfg.LoyalOrderCount {
		lifespan += 1.0
	}
	if lifespan > p.cfg.MaxLifespanYears {
		lifespan = p.cfg.MaxLifespanYears
	}

	predicted := math.Round(f.AvgOrderValue*purchaseFrequency*lifespan*100) / 100

	confidence := p.cfg.BaseConfidence
	if f.OrderCount > p.cfg.RepeatOrderCount {
		confidence += 0.10
	}
	if f.OrderCount > p.cfg.LoyalOrderCount {
		confidence += 0.10
	}
	if f.DaysSinceLastPurchase < p.cfg.RecentPurchaseDays {
		confidence += 0.10
	}
	if f.DaysSinceRegistration > p.cfg.EstablishedTenure {
		confidence += 0.05
	}
	if confidence > p.cfg.MaxConfidence {
		confidence = p.cfg.MaxConfidence
	}

	p.log.Debug().
		Int64("customer_id", customer.ID).
		Float64("predicted_clv", predicted).
		Float64("confidence", confidence).
		Msg("CLV prediction computed")

	return domain.Prediction{
		CustomerID:     customer.ID,
		PredictionType: domain.PredictionTypeCLV,
		PredictedValue: predicted,
		Confidence:     confidence,
		Features:       f.Snapshot(),
		CreatedAt:      now,
		ExpiresAt:      now.Add(p.cfg.Validity),
	}, nil
}
