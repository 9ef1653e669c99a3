package commerce

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/domain"
)

// OrderRepository handles order and line-item access.
// Database: commerce.db (orders, order_items tables)
type OrderRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, log zerolog.Logger) *OrderRepository {
	return &OrderRepository{
		db:  db,
		log: log.With().Str("repository", "order").Logger(),
	}
}

// ListOrders returns all order headers, ordered by id.
func (r *OrderRepository) ListOrders() ([]domain.Order, error) {
	rows, err := r.db.Query(`
		SELECT id, customer_id, created_at
		FROM orders
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var createdUnix int64

		if err := rows.Scan(&o.ID, &o.CustomerID, &createdUnix); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.CreatedAt = time.Unix(createdUnix, 0).UTC()
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// ListItems returns all order line items, ordered by order then id.
func (r *OrderRepository) ListItems() ([]domain.OrderItem, error) {
	rows, err := r.db.Query(`
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		ORDER BY order_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// CreateOrder inserts an order header.
func (r *OrderRepository) CreateOrder(o domain.Order) error {
	_, err := r.db.Exec(`
		INSERT INTO orders (id, customer_id, created_at)
		VALUES (?, ?, ?)
	`, o.ID, o.CustomerID, o.CreatedAt.Unix())

	if err != nil {
		return fmt.Errorf("failed to insert order %d: %w", o.ID, err)
	}

	return nil
}

// AddItem inserts one order line item.
func (r *OrderRepository) AddItem(item domain.OrderItem) error {
	_, err := r.db.Exec(`
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES (?, ?, ?, ?, ?)
	`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price)

	if err != nil {
		return fmt.Errorf("failed to insert order item %d: %w", item.ID, err)
	}

	return nil
}
