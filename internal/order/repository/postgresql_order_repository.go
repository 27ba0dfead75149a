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

// PostgreSQLOrderRepository handles order persistence for PostgreSQL
type PostgreSQLOrderRepository struct {
	db *sql.DB
}

// NewPostgreSQLOrderRepository creates a new PostgreSQLOrderRepository
func NewPostgreSQLOrderRepository(db *sql.DB) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{
		db: db,
	}
}

// Create inserts a new order
func (r *PostgreSQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO orders (buyer_id, status, total, currency, transaction_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			  RETURNING id`

	err := querier.QueryRowContext(ctx, query,
		order.BuyerID, order.Status, order.Total, order.Currency, order.TransactionID).Scan(&order.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to create order")
	}
	return nil
}

// GetByID retrieves an order by ID
func (r *PostgreSQLOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT id, buyer_id, status, total, currency, transaction_id, created_at, updated_at
			  FROM orders WHERE id = $1`

	return r.getOne(ctx, query, id)
}

// GetByIDForUpdate retrieves an order by ID and takes a row lock. Must be
// called inside a transaction; it is what serializes concurrent payment
// attempts for the same order.
func (r *PostgreSQLOrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT id, buyer_id, status, total, currency, transaction_id, created_at, updated_at
			  FROM orders WHERE id = $1
			  FOR UPDATE`

	return r.getOne(ctx, query, id)
}

// Update persists the mutable fields of an order
func (r *PostgreSQLOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE orders
			  SET status = $1, transaction_id = $2, updated_at = NOW()
			  WHERE id = $3`

	_, err := querier.ExecContext(ctx, query, order.Status, order.TransactionID, order.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order")
	}
	return nil
}

// getOne runs a single-row order query and maps sql.ErrNoRows to the domain error
func (r *PostgreSQLOrderRepository) getOne(ctx context.Context, query string, id int64) (*domain.Order, error) {
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
