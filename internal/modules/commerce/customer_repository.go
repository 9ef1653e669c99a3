// Package commerce provides repositories over the raw transactional store
// (customers, orders, order items, daily sales metrics). It supplies the
// engines' inputs; the engines themselves never touch the database.
package commerce

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/domain"
)

// CustomerRepository handles customer record access.
// Database: commerce.db (customers table)
type CustomerRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *sql.DB, log zerolog.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:  db,
		log: log.With().Str("repository", "customer").Logger(),
	}
}

// GetByID returns the customer with the given id, or nil if absent.
func (r *CustomerRepository) GetByID(id int64) (*domain.Customer, error) {
	var c domain.Customer
	var registrationUnix int64
	var lastPurchaseUnix sql.NullInt64

	err := r.db.QueryRow(`
		SELECT id, email, total_spent, order_count, registration_date, last_purchase_date, is_active
		FROM customers
		WHERE id = ?
	`, id).Scan(
		&c.ID,
		&c.Email,
		&c.TotalSpent,
		&c.OrderCount,
		&registrationUnix,
		&lastPurchaseUnix,
		&c.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %d: %w", id, err)
	}

	c.RegistrationDate = time.Unix(registrationUnix, 0).UTC()
	if lastPurchaseUnix.Valid {
		t := time.Unix(lastPurchaseUnix.Int64, 0).UTC()
		c.LastPurchaseDate = &t
	}

	return &c, nil
}

// ListAll returns every customer, ordered by id.
func (r *CustomerRepository) ListAll() ([]domain.Customer, error) {
	rows, err := r.db.Query(`
		SELECT id, email, total_spent, order_count, registration_date, last_purchase_date, is_active
		FROM customers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		var registrationUnix int64
		var lastPurchaseUnix sql.NullInt64

		if err := rows.Scan(
			&c.ID,
			&c.Email,
			&c.TotalSpent,
			&c.OrderCount,
			&registrationUnix,
			&lastPurchaseUnix,
			&c.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}

		c.RegistrationDate = time.Unix(registrationUnix, 0).UTC()
		if lastPurchaseUnix.Valid {
			t := time.Unix(lastPurchaseUnix.Int64, 0).UTC()
			c.LastPurchaseDate = &t
		}

		customers = append(customers, c)
	}

	return customers, rows.Err()
}

// Create inserts a customer record.
func (r *CustomerRepository) Create(c domain.Customer) error {
	var lastPurchase interface{}
	if c.LastPurchaseDate != nil {
		lastPurchase = c.LastPurchaseDate.Unix()
	}

	_, err := r.db.Exec(`
		INSERT INTO customers (id, email, total_spent, order_count, registration_date, last_purchase_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.Email,
		c.TotalSpent,
		c.OrderCount,
		c.RegistrationDate.Unix(),
		lastPurchase,
		c.IsActive,
	)

	if err != nil {
		return fmt.Errorf("failed to insert customer %d: %w", c.ID, err)
	}

	return nil
}
