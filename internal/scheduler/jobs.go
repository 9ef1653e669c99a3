package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/database"
	"github.com/insightlab/insight/internal/modules/analytics"
)

// ChurnRescoreJob rescores churn risk for every customer so stored scores
// never age past their validity window.
type ChurnRescoreJob struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewChurnRescoreJob creates the nightly churn rescore job
func NewChurnRescoreJob(service *analytics.Service, log zerolog.Logger) *ChurnRescoreJob {
	return &ChurnRescoreJob{
		service: service,
		log:     log.With().Str("job", "churn_rescore").Logger(),
	}
}

// Name returns the job name
func (j *ChurnRescoreJob) Name() string {
	return "churn_rescore"
}

// Run rescores all customers and persists the predictions.
func (j *ChurnRescoreJob) Run() error {
	predictions, err := j.service.ScoreChurnAll()
	if err != nil {
		return err
	}

	j.log.Info().Int("customers", len(predictions)).Msg("Nightly churn rescore complete")
	return nil
}

// RecommendationRefreshJob recomputes the market-basket recommendation set
// from the full order history.
type RecommendationRefreshJob struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewRecommendationRefreshJob creates the nightly recommendation refresh job
func NewRecommendationRefreshJob(service *analytics.Service, log zerolog.Logger) *RecommendationRefreshJob {
	return &RecommendationRefreshJob{
		service: service,
		log:     log.With().Str("job", "recommendation_refresh").Logger(),
	}
}

// Name returns the job name
func (j *RecommendationRefreshJob) Name() string {
	return "recommendation_refresh"
}

// Run replaces the stored recommendation set with a fresh computation.
func (j *RecommendationRefreshJob) Run() error {
	recs, err := j.service.RefreshRecommendations()
	if err != nil {
		return err
	}

	j.log.Info().Int("recommendations", len(recs)).Msg("Nightly recommendation refresh complete")
	return nil
}

// PredictionPruneJob deletes stored predictions that have outlived their
// validity window.
type PredictionPruneJob struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewPredictionPruneJob creates the prediction prune job
func NewPredictionPruneJob(service *analytics.Service, log zerolog.Logger) *PredictionPruneJob {
	return &PredictionPruneJob{
		service: service,
		log:     log.With().Str("job", "prediction_prune").Logger(),
	}
}

// Name returns the job name
func (j *PredictionPruneJob) Name() string {
	return "prediction_prune"
}

// Run removes expired predictions.
func (j *PredictionPruneJob) Run() error {
	removed, err := j.service.PruneExpiredPredictions()
	if err != nil {
		return err
	}

	if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("Expired predictions pruned")
	}
	return nil
}

// WALCheckpointJob truncates each database's WAL file so it cannot grow
// unbounded between restarts.
type WALCheckpointJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates the WAL checkpoint maintenance job
func NewWALCheckpointJob(databases []*database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checkpoints every database. All databases are attempted even when
// one fails; the first failure is reported.
func (j *WALCheckpointJob) Run() error {
	var firstErr error
	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("wal checkpoint for %s: %w", db.Name(), err)
			}
			continue
		}
		j.log.Debug().Str("database", db.Name()).Msg("WAL checkpointed")
	}
	return firstErr
}
