package testing

import (
	"time"

	"github.com/insightlab/insight/internal/domain"
)

// CustomerFixture builds a customer with sensible defaults for tests.
// Override fields via the modifier functions.
func CustomerFixture(mods ...func(*domain.Customer)) domain.Customer {
	registered := time.Now().AddDate(-1, 0, 0)
	lastPurchase := time.Now().AddDate(0, 0, -14)

	c := domain.Customer{
		ID:               1,
		Email:            "customer@example.com",
		RegistrationDate: registered,
		LastPurchaseDate: &lastPurchase,
		TotalSpent:       500,
		OrderCount:       5,
	}

	for _, mod := range mods {
		mod(&c)
	}

	return c
}

// OrderFixture builds an order with sensible defaults for tests.
func OrderFixture(id, customerID int64, mods ...func(*domain.Order)) domain.Order {
	o := domain.Order{
		ID:         id,
		CustomerID: customerID,
		CreatedAt:  time.Now().AddDate(0, 0, -7),
	}

	for _, mod := range mods {
		mod(&o)
	}

	return o
}

// SalesHistoryFixture builds a daily sales history of the given length
// ending yesterday.
func SalesHistoryFixture(days int, revenuePerDay float64) []domain.SalesMetric {
	metrics := make([]domain.SalesMetric, 0, days)
	start := time.Now().AddDate(0, 0, -days)

	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		orders := int(revenuePerDay / 150)
		metrics = append(metrics, domain.SalesMetric{
			Date:          day,
			Revenue:       revenuePerDay,
			OrderCount:    orders,
			CustomerCount: int(float64(orders) * 0.8),
		})
	}

	return metrics
}
