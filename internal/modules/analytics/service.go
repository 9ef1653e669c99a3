package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/domain"
	"github.com/insightlab/insight/internal/modules/basket"
	"github.com/insightlab/insight/internal/modules/churn"
	"github.com/insightlab/insight/internal/modules/clv"
	"github.com/insightlab/insight/internal/modules/commerce"
	"github.com/insightlab/insight/internal/modules/forecast"
	"github.com/insightlab/insight/internal/modules/retrain"
)

// ErrCustomerNotFound signals a precondition violation: the referenced
// customer does not exist. The engines are never invoked in this state.
var ErrCustomerNotFound = errors.New("customer not found")

// Service wires the prediction engines to the commerce store and persists
// their outputs. The engines stay pure; all I/O happens here.
type Service struct {
	clvPredictor *clv.Predictor
	churnScorer  *churn.Scorer
	forecaster   *forecast.Forecaster
	recommender  *basket.Recommender
	simulator    *retrain.Simulator

	customers *commerce.CustomerRepository
	orders    *commerce.OrderRepository
	sales     *commerce.SalesRepository

	predictions     *PredictionRepository
	recommendations *RecommendationRepository
	retrainRuns     *RetrainRepository

	log zerolog.Logger
}

// ServiceConfig holds the service dependencies.
type ServiceConfig struct {
	CLVPredictor *clv.Predictor
	ChurnScorer  *churn.Scorer
	Forecaster   *forecast.Forecaster
	Recommender  *basket.Recommender
	Simulator    *retrain.Simulator

	Customers *commerce.CustomerRepository
	Orders    *commerce.OrderRepository
	Sales     *commerce.SalesRepository

	Predictions     *PredictionRepository
	Recommendations *RecommendationRepository
	RetrainRuns     *RetrainRepository

	Log zerolog.Logger
}

// NewService creates the analytics service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		clvPredictor:    cfg.CLVPredictor,
		churnScorer:     cfg.ChurnScorer,
		forecaster:      cfg.Forecaster,
		recommender:     cfg.Recommender,
		simulator:       cfg.Simulator,
		customers:       cfg.Customers,
		orders:          cfg.Orders,
		sales:           cfg.Sales,
		predictions:     cfg.Predictions,
		recommendations: cfg.Recommendations,
		retrainRuns:     cfg.RetrainRuns,
		log:             cfg.Log.With().Str("service", "analytics").Logger(),
	}
}

// PredictCLV computes and persists a CLV prediction for one customer.
// Returns ErrCustomerNotFound when the customer reference is invalid.
func (s *Service) PredictCLV(customerID int64) (domain.Prediction, error) {
	customer, err := s.customers.GetByID(customerID)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}
	if customer == nil {
		return domain.Prediction{}, fmt.Errorf("%w: %d", ErrCustomerNotFound, customerID)
	}

	prediction, err := s.clvPredictor.Predict(*customer)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("clv prediction failed for customer %d: %w", customerID, err)
	}

	if _, err := s.predictions.Store(prediction); err != nil {
		return domain.Prediction{}, fmt.Errorf("failed to store clv prediction: %w", err)
	}

	return prediction, nil
}

// ScoreChurnAll scores every customer in the store and persists the
// resulting predictions. An empty store yields an empty result.
func (s *Service) ScoreChurnAll() ([]domain.Prediction, error) {
	customers, err := s.customers.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	return s.scoreChurn(customers)
}

// ScoreChurnCustomers scores the given customers only. Unknown ids are a
// precondition violation.
func (s *Service) ScoreChurnCustomers(customerIDs []int64) ([]domain.Prediction, error) {
	customers := make([]domain.Customer, 0, len(customerIDs))
	for _, id := range customerIDs {
		c, err := s.customers.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load customer %d: %w", id, err)
		}
		if c == nil {
			return nil, fmt.Errorf("%w: %d", ErrCustomerNotFound, id)
		}
		customers = append(customers, *c)
	}
	return s.scoreChurn(customers)
}

func (s *Service) scoreChurn(customers []domain.Customer) ([]domain.Prediction, error) {
	predictions, err := s.churnScorer.ScoreBatch(customers)
	if err != nil {
		return nil, fmt.Errorf("churn scoring failed: %w", err)
	}

	if err := s.predictions.StoreBatch(predictions); err != nil {
		return nil, fmt.Errorf("failed to store churn predictions: %w", err)
	}

	s.log.Info().Int("customers", len(predictions)).Msg("Churn scores refreshed")

	return predictions, nil
}

// LatestPrediction returns the most recent stored prediction of the given
// type for a customer, or nil when none exists.
func (s *Service) LatestPrediction(customerID int64, predictionType string) (*StoredPrediction, error) {
	return s.predictions.LatestForCustomer(customerID, domain.PredictionType(predictionType))
}

// ForecastSales returns a forecast for the requested horizon. Forecast
// points are computed per call and returned, never persisted.
func (s *Service) ForecastSales(days int) ([]domain.ForecastPoint, error) {
	history, err := s.sales.ListMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to load sales history: %w", err)
	}

	points, err := s.forecaster.Forecast(history, days)
	if err != nil {
		return nil, fmt.Errorf("forecast failed: %w", err)
	}

	return points, nil
}

// RefreshRecommendations recomputes the market-basket recommendation set
// over the full order history and replaces the stored set.
func (s *Service) RefreshRecommendations() ([]domain.ProductRecommendation, error) {
	orders, err := s.orders.ListOrders()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	items, err := s.orders.ListItems()
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	recs := s.recommender.Recommend(orders, items)

	if err := s.recommendations.ReplaceAll(recs); err != nil {
		return nil, fmt.Errorf("failed to store recommendations: %w", err)
	}

	return recs, nil
}

// ListRecommendations returns the stored recommendation set, confidence
// descending. A limit of 0 returns all rows.
func (s *Service) ListRecommendations(limit int) ([]domain.ProductRecommendation, error) {
	return s.recommendations.List(limit)
}

// PruneExpiredPredictions removes stored predictions whose validity window
// has passed and returns the number removed.
func (s *Service) PruneExpiredPredictions() (int, error) {
	removed, err := s.predictions.DeleteExpiredBefore(time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune expired predictions: %w", err)
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("Pruned expired predictions")
	}

	return removed, nil
}

// Retrain simulates a retrain for the given model type and records the
// run. Unknown model types are not an error; the simulator reports its
// default accuracy for them.
func (s *Service) Retrain(ctx context.Context, modelType string) (domain.RetrainResult, error) {
	result, err := s.simulator.Retrain(ctx, modelType)
	if err != nil {
		return domain.RetrainResult{}, fmt.Errorf("retrain failed for %s: %w", modelType, err)
	}

	if err := s.retrainRuns.Record(result); err != nil {
		return domain.RetrainResult{}, fmt.Errorf("failed to record retrain run: %w", err)
	}

	return result, nil
}
