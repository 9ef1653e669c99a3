// Package features derives normalized numeric features from raw customer
// records. Both the CLV predictor and the churn scorer consume the same
// feature set, so units (days, currency, counts) are defined once here.
package features

import (
	"time"

	"github.com/insightlab/insight/internal/domain"
)

// NoPurchaseSentinelDays is the recency assigned to customers with no
// recorded purchase. 365 days reads as "long inactive" in every tier the
// scorers apply.
const NoPurchaseSentinelDays = 365

// daysPerYear converts tenure days to years for frequency calculations.
const daysPerYear = 365.0

// CustomerFeatures is the normalized feature set for one customer.
type CustomerFeatures struct {
	DaysSinceRegistration int
	DaysSinceLastPurchase int
	AvgOrderValue         float64
	TotalSpent            float64
	OrderCount            int
	IsActive              bool
}

// Extract derives features from a customer record relative to now.
// It is a pure function with no side effects.
func Extract(c domain.Customer, now time.Time) CustomerFeatures {
	f := CustomerFeatures{
		TotalSpent: c.TotalSpent,
		OrderCount: c.OrderCount,
		IsActive:   c.IsActive,
	}

	f.DaysSinceRegistration = daysBetween(c.RegistrationDate, now)

	if c.LastPurchaseDate != nil {
		f.DaysSinceLastPurchase = daysBetween(*c.LastPurchaseDate, now)
	} else {
		f.DaysSinceLastPurchase = NoPurchaseSentinelDays
	}

	// Guard against division by zero for customers with no orders
	if c.OrderCount > 0 {
		f.AvgOrderValue = c.TotalSpent / float64(c.OrderCount)
	}

	return f
}

// PurchaseFrequency returns orders per year. The denominator is floored at
// one year so brand-new customers do not get inflated frequencies.
func (f CustomerFeatures) PurchaseFrequency() float64 {
	years := float64(f.DaysSinceRegistration) / daysPerYear
	if years < 1 {
		years = 1
	}
	return float64(f.OrderCount) / years
}

// Snapshot returns the feature map stored alongside a prediction, so a
// stored prediction records exactly the inputs it was computed from.
func (f CustomerFeatures) Snapshot() map[string]float64 {
	active := 0.0
	if f.IsActive {
		active = 1.0
	}
	return map[string]float64{
		"days_since_registration":  float64(f.DaysSinceRegistration),
		"days_since_last_purchase": float64(f.DaysSinceLastPurchase),
		"avg_order_value":          f.AvgOrderValue,
		"total_spent":              f.TotalSpent,
		"order_count":              float64(f.OrderCount),
		"purchase_frequency":       f.PurchaseFrequency(),
		"is_active":                active,
	}
}

// daysBetween returns the floored number of whole days from t to now.
func daysBetween(t, now time.Time) int {
	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
