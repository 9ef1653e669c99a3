// Package domain holds the shared commerce and prediction types used by the
// engines and the storage layer. The engines operate on these values only;
// they never touch the database themselves.
package domain

import "time"

// Customer represents a raw customer record supplied by the commerce store.
type Customer struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email,omitempty"`
	TotalSpent       float64    `json:"total_spent"`
	OrderCount       int        `json:"order_count"`
	RegistrationDate time.Time  `json:"registration_date"`
	LastPurchaseDate *time.Time `json:"last_purchase_date,omitempty"` // nil = never purchased
	IsActive         bool       `json:"is_active"`
}

// Order represents a single order header.
type Order struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrderItem represents one line item of an order.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// SalesMetric is one row of the daily sales aggregate series.
type SalesMetric struct {
	Date           time.Time `json:"date"`
	Revenue        float64   `json:"revenue"`
	OrderCount     int       `json:"order_count"`
	CustomerCount  int       `json:"customer_count"`
	AvgOrderValue  float64   `json:"avg_order_value"`
	ConversionRate float64   `json:"conversion_rate"`
}

// PredictionType identifies which engine produced a prediction.
type PredictionType string

const (
	PredictionTypeCLV   PredictionType = "clv"
	PredictionTypeChurn PredictionType = "churn"
)

// Prediction is a value object produced per engine call. It is created
// fresh on each invocation and never mutated; expiry is advisory metadata
// for the storage layer, not enforced by the engines.
type Prediction struct {
	CustomerID     int64              `json:"customer_id"`
	PredictionType PredictionType     `json:"prediction_type"`
	PredictedValue float64            `json:"predicted_value"`
	Confidence     float64            `json:"confidence"`
	Features       map[string]float64 `json:"features"`
	CreatedAt      time.Time          `json:"created_at"`
	ExpiresAt      time.Time          `json:"expires_at"`
}

// RecommendationType classifies a product recommendation.
type RecommendationType string

const (
	RecommendationCrossSell RecommendationType = "cross_sell"
	RecommendationUpSell    RecommendationType = "up_sell"
)

// ProductRecommendation is a directional product pairing: (A→B) and (B→A)
// are distinct records with independent statistics.
type ProductRecommendation struct {
	SourceProductID      int64              `json:"source_product_id"`
	RecommendedProductID int64              `json:"recommended_product_id"`
	RecommendationType   RecommendationType `json:"recommendation_type"`
	Confidence           float64            `json:"confidence"`
	Support              float64            `json:"support"`
	Lift                 float64            `json:"lift"`
	CoOccurrenceCount    int                `json:"co_occurrence_count"`
}

// ForecastPoint is one day of the rolling sales forecast. Forecasts are
// computed per call and returned to the caller, never persisted.
type ForecastPoint struct {
	Date             time.Time `json:"date"`
	PredictedRevenue float64   `json:"predicted_revenue"`
	ConfidenceLower  float64   `json:"confidence_lower"`
	ConfidenceUpper  float64   `json:"confidence_upper"`
	Trend            float64   `json:"trend"`
	SeasonalFactor   float64   `json:"seasonal_factor"`
}

// RetrainResult is the outcome of a (simulated) model retrain.
type RetrainResult struct {
	ModelType string    `json:"model_type"`
	Success   bool      `json:"success"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}
