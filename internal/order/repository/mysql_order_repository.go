// Package repository provides data persistence implementations for order entities.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/turgayozgur/eshop-ordering/internal/database"
	"github.com/turgayozgur/eshop-ordering/internal/order/domain"

	apperrors "github.com/turgayozgur/eshop-ordering/internal/errors"
)

// MySQLOrderRepository handles order persistence for MySQL
type MySQLOrderRepository struct {
	db *sql.DB
}

// NewMySQLOrderRepository creates a new MySQLOrderRepository
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{
		db: db,
	}
}

// Create inserts a new order
func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO orders (buyer_id, status, total, currency, transaction_id, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := querier.ExecContext(ctx, query,
		order.BuyerID, order.Status, order.Total, order.Currency, order.TransactionID)
	if err != nil {
		return apperrors.Wrap(err, "failed to create order")
	}

	order.ID, err = result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(err, "failed to get order id")
	}
	return nil
}

// GetByID retrieves an order by ID
func (r *MySQLOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT id, buyer_id, status, total, currency, transaction_id, created_at, updated_at
			  FROM orders WHERE id = ?`

	return r.getOne(ctx, query, id)
}

// GetByIDForUpdate retrieves an order by ID and takes a row lock. Must be
// called inside a transaction; it is what serializes concurrent payment
// attempts for the same order.
func (r *MySQLOrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT id, buyer_id, status, total, currency, transaction_id, created_at, updated_at
			  FROM orders WHERE id = ?
			  FOR UPDATE`

	return r.getOne(ctx, query, id)
}

// Update persists the mutable fields of an order
func (r *MySQLOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE orders
			  SET status = ?, transaction_id = ?, updated_at = NOW()
			  WHERE id = ?`

	_, err := querier.ExecContext(ctx, query, order.Status, order.TransactionID, order.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order")
	}
	return nil
}

// getOne runs a single-row order query and maps sql.ErrNoRows to the domain error
func (r *MySQLOrderRepository) getOne(ctx context.Context, query string, id int64) (*domain.Order, error) {
	var order domain.Order
	querier := database.GetTx(ctx, r.db)

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.BuyerID, &order.Status, &order.Total,
		&order.Currency, &order.TransactionID, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order by id")
	}

	return &order, nil
}
