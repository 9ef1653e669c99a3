// Package retrain simulates model retraining. No real training occurs -
// the operation sleeps for a configured delay and reports a randomized
// accuracy, standing in for a training pipeline that lives elsewhere.
package retrain

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/domain"
)

// Model type tags accepted by the simulator.
const (
	ModelCLV             = "clv"
	ModelChurn           = "churn"
	ModelForecast        = "forecast"
	ModelRecommendations = "recommendations"
)

// AccuracyRange bounds the randomized accuracy for one model type.
type AccuracyRange struct {
	Min float64
	Max float64
}

// Config holds the simulator settings.
type Config struct {
	Delay           time.Duration // simulated training time
	DefaultAccuracy float64       // reported for unknown model types
	Ranges          map[string]AccuracyRange
}

// DefaultConfig returns the default retrain configuration.
func DefaultConfig() Config {
	return Config{
		Delay:           2 * time.Second,
		DefaultAccuracy: 0.85,
		Ranges: map[string]AccuracyRange{
			ModelCLV:             {Min: 0.87, Max: 0.95},
			ModelChurn:           {Min: 0.82, Max: 0.92},
			ModelForecast:        {Min: 0.91, Max: 0.96},
			ModelRecommendations: {Min: 0.79, Max: 0.91},
		},
	}
}

// Simulator pretends to retrain a model.
type Simulator struct {
	cfg Config
	rng *rand.Rand
	now func() time.Time
	log zerolog.Logger
}

// New creates a new retrain simulator.
func New(cfg Config, rng *rand.Rand, log zerolog.Logger) *Simulator {
	return &Simulator{
		cfg: cfg,
		rng: rng,
		now: time.Now,
		log: log.With().Str("engine", "retrain").Logger(),
	}
}

// KnownModelType reports whether modelType has a configured accuracy range.
func (s *Simulator) KnownModelType(modelType string) bool {
	_, ok := s.cfg.Ranges[modelType]
	return ok
}

// Retrain simulates a retrain run for the given model type. The context
// cancels the simulated delay early.
func (s *Simulator) Retrain(ctx context.Context, modelType string) (domain.RetrainResult, error) {
	if s.cfg.Delay > 0 {
		timer := time.NewTimer(s.cfg.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.RetrainResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	accuracy := s.cfg.DefaultAccuracy
	if r, ok := s.cfg.Ranges[modelType]; ok {
		accuracy = r.Min + s.rng.Float64()*(r.Max-r.Min)
	}

	s.log.Info().
		Str("model_type", modelType).
		Float64("accuracy", accuracy).
		Msg("Simulated retrain completed")

	return domain.RetrainResult{
		ModelType: modelType,
		Success:   true,
		Accuracy:  accuracy,
		Timestamp: s.now(),
	}, nil
}
