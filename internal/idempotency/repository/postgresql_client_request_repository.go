// Package repository provides data persistence implementations for client
// request markers.
package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/turgayozgur/eshop-ordering/internal/database"
	"github.com/turgayozgur/eshop-ordering/internal/errors"
	"github.com/turgayozgur/eshop-ordering/internal/idempotency/domain"
)

const pqUniqueViolation = "23505"

// PostgreSQLClientRequestRepository handles client request persistence for PostgreSQL
type PostgreSQLClientRequestRepository struct {
	db *sql.DB
}

// NewPostgreSQLClientRequestRepository creates a new PostgreSQLClientRequestRepository
func NewPostgreSQLClientRequestRepository(db *sql.DB) *PostgreSQLClientRequestRepository {
	return &PostgreSQLClientRequestRepository{
		db: db,
	}
}

// Create inserts a client request marker. A primary key collision with a
// still valid marker returns ErrDuplicateRequest; expired markers are
// replaced in place so their ids can be reused.
func (r *PostgreSQLClientRequestRepository) Create(ctx context.Context, request *domain.ClientRequest) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO client_requests (id, name, created_at, expires_at)
			  VALUES ($1, $2, NOW(), $3)
			  ON CONFLICT (id) DO UPDATE
			  SET name = EXCLUDED.name, created_at = NOW(), expires_at = EXCLUDED.expires_at
			  WHERE client_requests.expires_at IS NOT NULL AND client_requests.expires_at <= NOW()`

	result, err := querier.ExecContext(ctx, query, request.ID, request.Name, request.ExpiresAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return domain.ErrDuplicateRequest
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrDuplicateRequest
	}

	return nil
}
