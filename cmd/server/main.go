// Package main is the entry point for the Insight commerce prediction engine.
// The application loads customer and order data from the commerce store,
// runs the prediction engines (CLV, churn, forecasting, market basket) and
// serves their results over HTTP.
//
// The application follows clean architecture principles:
// - Prediction engines are pure (no infrastructure dependencies)
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/insightlab/insight/internal/config"
	"github.com/insightlab/insight/internal/database"
	"github.com/insightlab/insight/internal/modules/analytics"
	analyticshandlers "github.com/insightlab/insight/internal/modules/analytics/handlers"
	"github.com/insightlab/insight/internal/modules/basket"
	"github.com/insightlab/insight/internal/modules/churn"
	"github.com/insightlab/insight/internal/modules/clv"
	"github.com/insightlab/insight/internal/modules/commerce"
	"github.com/insightlab/insight/internal/modules/forecast"
	"github.com/insightlab/insight/internal/modules/retrain"
	"github.com/insightlab/insight/internal/scheduler"
	"github.com/insightlab/insight/internal/server"
	"github.com/insightlab/insight/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting Insight")

	// Two-database architecture:
	// - commerce.db: source-of-truth customer/order/sales data
	// - analytics.db: derived predictions and recommendations (recomputable)
	commerceDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "commerce.db"),
		Profile: database.ProfileStandard,
		Name:    "commerce",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open commerce database")
	}
	defer commerceDB.Close()

	analyticsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "analytics.db"),
		Profile: database.ProfileAnalytics,
		Name:    "analytics",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open analytics database")
	}
	defer analyticsDB.Close()

	for _, db := range []*database.DB{commerceDB, analyticsDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	// Seed the engines' random sources. A fixed seed makes churn
	// confidences, forecast noise and retrain accuracies reproducible.
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Info().Int64("seed", seed).Msg("Seeding prediction engines")

	churnScorer := churn.New(churn.DefaultConfig(), rand.New(rand.NewSource(seed)), log)
	forecaster := forecast.New(forecast.DefaultConfig(), rand.New(rand.NewSource(seed+1)), log)
	simulator := retrain.New(retrain.DefaultConfig(), rand.New(rand.NewSource(seed+2)), log)
	clvPredictor := clv.New(clv.DefaultConfig(), log)
	recommender := basket.New(basket.DefaultConfig(), log)

	customerRepo := commerce.NewCustomerRepository(commerceDB.Conn(), log)
	orderRepo := commerce.NewOrderRepository(commerceDB.Conn(), log)
	salesRepo := commerce.NewSalesRepository(commerceDB.Conn(), log)

	predictionRepo := analytics.NewPredictionRepository(analyticsDB.Conn(), log)
	recommendationRepo := analytics.NewRecommendationRepository(analyticsDB.Conn(), log)
	retrainRepo := analytics.NewRetrainRepository(analyticsDB.Conn(), log)

	service := analytics.NewService(analytics.ServiceConfig{
		CLVPredictor: clvPredictor,
		ChurnScorer:  churnScorer,
		Forecaster:   forecaster,
		Recommender:  recommender,
		Simulator:    simulator,

		Customers: customerRepo,
		Orders:    orderRepo,
		Sales:     salesRepo,

		Predictions:     predictionRepo,
		Recommendations: recommendationRepo,
		RetrainRuns:     retrainRepo,

		Log: log,
	})

	// Background maintenance jobs
	sched := scheduler.New(log)
	if cfg.SchedulerEnabled {
		jobs := []struct {
			spec string
			job  scheduler.Job
		}{
			{cfg.ChurnRescoreSpec, scheduler.NewChurnRescoreJob(service, log)},
			{cfg.RecommendationRefreshSpec, scheduler.NewRecommendationRefreshJob(service, log)},
			{cfg.PredictionPruneSpec, scheduler.NewPredictionPruneJob(service, log)},
			{cfg.WALCheckpointSpec, scheduler.NewWALCheckpointJob([]*database.DB{commerceDB, analyticsDB}, log)},
		}
		for _, j := range jobs {
			if err := sched.AddJob(j.spec, j.job); err != nil {
				log.Fatal().Err(err).Str("job", j.job.Name()).Msg("Failed to register job")
			}
		}
		sched.Start()
		defer sched.Stop()
	} else {
		log.Warn().Msg("Scheduler disabled")
	}

	srv := server.New(server.Config{
		Log:              log,
		CommerceDB:       commerceDB,
		AnalyticsDB:      analyticsDB,
		Config:           cfg,
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
		AnalyticsHandler: analyticshandlers.NewHandler(service, log),
		Scheduler:        sched,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// The HTTP server gets up to 10 seconds to finish in-flight requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
