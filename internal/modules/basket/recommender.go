// Package basket computes market-basket product recommendations from
// pairwise co-occurrence statistics (support, confidence, lift).
package basket

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/domain"
)

// Config holds the recommendation thresholds.
//
// The cross-sell boundary (lift > 2) is an inherited heuristic with no
// documented derivation; it stays a configurable default.
type Config struct {
	MinConfidence      float64 // pairs at or below this are dropped
	MinSupport         float64 // pairs at or below this are dropped
	CrossSellLift      float64 // lift above this classifies as cross_sell
	MaxRecommendations int     // output cap after sorting
}

// DefaultConfig returns the default recommender configuration.
func DefaultConfig() Config {
	return Config{
		MinConfidence:      0.10,
		MinSupport:         0.05,
		CrossSellLift:      2.0,
		MaxRecommendations: 50,
	}
}

// pairKey is a directional product pair: (A,B) and (B,A) are tracked
// separately. A structured key avoids the ID-collision hazard of
// string-concatenated keys.
type pairKey struct {
	source      int64
	recommended int64
}

// Recommender computes ranked product recommendations. Stateless apart
// from configuration; safe for concurrent use.
type Recommender struct {
	cfg Config
	log zerolog.Logger
}

// New creates a new market basket recommender.
func New(cfg Config, log zerolog.Logger) *Recommender {
	return &Recommender{
		cfg: cfg,
		log: log.With().Str("engine", "basket").Logger(),
	}
}

// Recommend aggregates co-occurrence statistics over the full order/item
// set and returns surviving pairs ranked by confidence, capped at
// MaxRecommendations. Zero orders or degenerate counts yield an empty
// result, never a division failure.
//
// The aggregation is a single pass over all items; the per-pair statistics
// are only final once every order has been counted.
func (r *Recommender) Recommend(orders []domain.Order, items []domain.OrderItem) []domain.ProductRecommendation {
	totalOrders := len(orders)
	if totalOrders == 0 || len(items) == 0 {
		return []domain.ProductRecommendation{}
	}

	// Group line items by order
	itemsByOrder := make(map[int64][]domain.OrderItem)
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	coOccurrence := make(map[pairKey]int)
	occurrence := make(map[int64]int)

	for _, orderItems := range itemsByOrder {
		for _, item := range orderItems {
			occurrence[item.ProductID]++
		}
		for _, a := range orderItems {
			for _, b := range orderItems {
				if a.ProductID == b.ProductID {
					continue
				}
				coOccurrence[pairKey{source: a.ProductID, recommended: b.ProductID}]++
			}
		}
	}

	recommendations := make([]domain.ProductRecommendation, 0, len(coOccurrence))

	for pair, count := range coOccurrence {
		sourceCount := occurrence[pair.source]
		recommendedCount := occurrence[pair.recommended]
		if sourceCount == 0 || recommendedCount == 0 {
			continue
		}

		support := float64(count) / float64(totalOrders)
		confidence := float64(count) / float64(sourceCount)
		lift := confidence / (float64(recommendedCount) / float64(totalOrders))

		if confidence <= r.cfg.MinConfidence || support <= r.cfg.MinSupport {
			continue
		}

		recType := domain.RecommendationUpSell
		if lift > r.cfg.CrossSellLift {
			recType = domain.RecommendationCrossSell
		}

		recommendations = append(recommendations, domain.ProductRecommendation{
			SourceProductID:      pair.source,
			RecommendedProductID: pair.recommended,
			RecommendationType:   recType,
			Confidence:           confidence,
			Support:              support,
			Lift:                 lift,
			CoOccurrenceCount:    count,
		})
	}

	// Confidence descending; product IDs break ties so output order is
	// stable across runs despite map iteration order
	sort.Slice(recommendations, func(i, j int) bool {
		a, b := recommendations[i], recommendations[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.SourceProductID != b.SourceProductID {
			return a.SourceProductID < b.SourceProductID
		}
		return a.RecommendedProductID < b.RecommendedProductID
	})

	if len(recommendations) > r.cfg.MaxRecommendations {
		recommendations = recommendations[:r.cfg.MaxRecommendations]
	}

	r.log.Debug().
		Int("orders", totalOrders).
		Int("pairs_tracked", len(coOccurrence)).
		Msg("Recommendations computed")

	return recommendations
}
