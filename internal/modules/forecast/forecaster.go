// Package forecast produces rolling day-by-day sales forecasts from the
// daily sales aggregate series.
package forecast

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/insightlab/insight/internal/domain"
)

// Config holds the forecasting heuristics.
//
// The synthetic-history factors deliberately differ from the forecast
// factors (0.7/1.2 vs 0.8/1.1); the asymmetry is inherited from the original
// model and must not be "unified".
type Config struct {
	MinHistoryDays int // below this, a synthetic history is generated
	SyntheticDays  int // length of the generated history

	SyntheticBaseRevenue     float64 // daily revenue baseline for synthetic data
	SyntheticWeekendFactor   float64
	SyntheticWeekdayFactor   float64
	SyntheticRevenuePerOrder float64 // divides revenue into an order count
	SyntheticCustomerRatio   float64 // customers per order

	ForecastWeekendFactor float64
	ForecastWeekdayFactor float64

	NoisePercent    float64 // random perturbation, fraction of the seasonal value
	BandLowerFactor float64 // confidence_lower multiplier
	BandUpperFactor float64 // confidence_upper multiplier
}

// DefaultConfig returns the default forecasting configuration.
func DefaultConfig() Config {
	return Config{
		MinHistoryDays:           7,
		SyntheticDays:            30,
		SyntheticBaseRevenue:     40000,
		SyntheticWeekendFactor:   0.7,
		SyntheticWeekdayFactor:   1.2,
		SyntheticRevenuePerOrder: 150,
		SyntheticCustomerRatio:   0.8,
		ForecastWeekendFactor:    0.8,
		ForecastWeekdayFactor:    1.1,
		NoisePercent:             0.10,
		BandLowerFactor:          0.85,
		BandUpperFactor:          1.15,
	}
}

// Forecaster computes sales forecasts. The random source is injected so the
// noise is reproducible under a fixed seed.
type Forecaster struct {
	cfg Config
	rng *rand.Rand
	now func() time.Time
	log zerolog.Logger
}

// New creates a new sales forecaster.
func New(cfg Config, rng *rand.Rand, log zerolog.Logger) *Forecaster {
	return &Forecaster{
		cfg: cfg,
		rng: rng,
		now: time.Now,
		log: log.With().Str("engine", "forecast").Logger(),
	}
}

// Forecast returns exactly `days` forecast points in date order, starting
// the day after the last historical point. A series shorter than the
// configured minimum is not an error: a synthetic history is generated and
// forecast from exactly as real history would be, so the forecaster
// degrades gracefully with no stored data.
func (f *Forecaster) Forecast(history []domain.SalesMetric, days int) ([]domain.ForecastPoint, error) {
	if days <= 0 {
		return nil, fmt.Errorf("forecast horizon must be positive, got %d", days)
	}

	if len(history) < f.cfg.MinHistoryDays {
		f.log.Debug().
			Int("history_points", len(history)).
			Int("min_required", f.cfg.MinHistoryDays).
			Msg("Insufficient history, generating synthetic series")
		history = f.syntheticHistory()
	}

	// Work on a sorted copy; the caller's slice stays untouched
	series := make([]domain.SalesMetric, len(history))
	copy(series, history)
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	revenues := make([]float64, len(series))
	for i, m := range series {
		revenues[i] = m.Revenue
	}

	avgRevenue := stat.Mean(revenues, nil)

	trend := 0.0
	if len(series) > 1 {
		trend = (revenues[len(revenues)-1] - revenues[0]) / float64(len(series))
	}

	lastDate := series[len(series)-1].Date
	points := make([]domain.ForecastPoint, 0, days)

	for i := 1; i <= days; i++ {
		date := lastDate.AddDate(0, 0, i)

		seasonal := f.cfg.ForecastWeekdayFactor
		if isWeekend(date) {
			seasonal = f.cfg.ForecastWeekendFactor
		}

		base := avgRevenue + trend*float64(i)
		value := base * seasonal

		// Perturbation of up to ±NoisePercent of the seasonal value
		value += value * (f.rng.Float64()*2 - 1) * f.cfg.NoisePercent
		if value < 0 {
			value = 0
		}

		points = append(points, domain.ForecastPoint{
			Date:             date,
			PredictedRevenue: value,
			ConfidenceLower:  value * f.cfg.BandLowerFactor,
			ConfidenceUpper:  value * f.cfg.BandUpperFactor,
			Trend:            trend,
			SeasonalFactor:   seasonal,
		})
	}

	return points, nil
}

// syntheticHistory generates a plausible daily series ending yesterday.
// It exists purely so forecasting works with no stored history; it is not
// a correctness feature.
func (f *Forecaster) syntheticHistory() []domain.SalesMetric {
	today := f.now().Truncate(24 * time.Hour)
	series := make([]domain.SalesMetric, 0, f.cfg.SyntheticDays)

	for i := f.cfg.SyntheticDays; i >= 1; i-- {
		date := today.AddDate(0, 0, -i)

		seasonal := f.cfg.SyntheticWeekdayFactor
		if isWeekend(date) {
			seasonal = f.cfg.SyntheticWeekendFactor
		}

		randomFactor := 0.8 + f.rng.Float64()*0.4 // [0.8, 1.2)
		revenue := f.cfg.SyntheticBaseRevenue * seasonal * randomFactor
		orderCount := int(revenue / f.cfg.SyntheticRevenuePerOrder)
		customerCount := int(float64(orderCount) * f.cfg.SyntheticCustomerRatio)

		series = append(series, domain.SalesMetric{
			Date:           date,
			Revenue:        revenue,
			OrderCount:     orderCount,
			CustomerCount:  customerCount,
			AvgOrderValue:  revenue / float64(max(orderCount, 1)),
			ConversionRate: 0.02 + f.rng.Float64()*0.03, // [0.02, 0.05)
		})
	}

	return series
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
