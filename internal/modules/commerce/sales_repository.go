package commerce

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/domain"
)

// dateLayout stores sales metric dates as YYYY-MM-DD so lexicographic
// ordering in SQLite matches chronological ordering.
const dateLayout = "2006-01-02"

// SalesRepository handles the daily sales aggregate series.
// Database: commerce.db (sales_metrics table)
type SalesRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSalesRepository creates a new sales metrics repository
func NewSalesRepository(db *sql.DB, log zerolog.Logger) *SalesRepository {
	return &SalesRepository{
		db:  db,
		log: log.With().Str("repository", "sales").Logger(),
	}
}

// ListMetrics returns the full daily series in ascending date order.
func (r *SalesRepository) ListMetrics() ([]domain.SalesMetric, error) {
	rows, err := r.db.Query(`
		SELECT date, revenue, order_count, customer_count, avg_order_value, conversion_rate
		FROM sales_metrics
		ORDER BY date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales metrics: %w", err)
	}
	defer rows.Close()

	var metrics []domain.SalesMetric
	for rows.Next() {
		var m domain.SalesMetric
		var dateStr string

		if err := rows.Scan(&dateStr, &m.Revenue, &m.OrderCount, &m.CustomerCount, &m.AvgOrderValue, &m.ConversionRate); err != nil {
			return nil, fmt.Errorf("failed to scan sales metric: %w", err)
		}

		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid sales metric date %q: %w", dateStr, err)
		}
		m.Date = date

		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

// Upsert inserts or replaces the row for the metric's calendar day.
func (r *SalesRepository) Upsert(m domain.SalesMetric) error {
	_, err := r.db.Exec(`
		INSERT INTO sales_metrics (date, revenue, order_count, customer_count, avg_order_value, conversion_rate)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			revenue = excluded.revenue,
			order_count = excluded.order_count,
			customer_count = excluded.customer_count,
			avg_order_value = excluded.avg_order_value,
			conversion_rate = excluded.conversion_rate
	`,
		m.Date.Format(dateLayout),
		m.Revenue,
		m.OrderCount,
		m.CustomerCount,
		m.AvgOrderValue,
		m.ConversionRate,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert sales metric for %s: %w", m.Date.Format(dateLayout), err)
	}

	return nil
}

// CountDays returns the number of days in the stored series.
func (r *SalesRepository) CountDays() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM sales_metrics`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sales metrics: %w", err)
	}
	return count, nil
}
