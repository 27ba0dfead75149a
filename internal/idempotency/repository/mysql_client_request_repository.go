package repository

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"

	"github.com/turgayozgur/eshop-ordering/internal/database"
	"github.com/turgayozgur/eshop-ordering/internal/errors"
	"github.com/turgayozgur/eshop-ordering/internal/idempotency/domain"
)

const mysqlDuplicateEntry = 1062

// MySQLClientRequestRepository handles client request persistence for MySQL
type MySQLClientRequestRepository struct {
	db *sql.DB
}

// NewMySQLClientRequestRepository creates a new MySQLClientRequestRepository
func NewMySQLClientRequestRepository(db *sql.DB) *MySQLClientRequestRepository {
	return &MySQLClientRequestRepository{
		db: db,
	}
}

// Create inserts a client request marker. A primary key collision with a
// still valid marker returns ErrDuplicateRequest; expired markers are
// replaced in place so their ids can be reused.
func (r *MySQLClientRequestRepository) Create(ctx context.Context, request *domain.ClientRequest) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := request.ID.MarshalBinary()
	if err != nil {
		return err
	}

	deleteExpired := `DELETE FROM client_requests
					  WHERE id = ? AND expires_at IS NOT NULL AND expires_at <= NOW()`
	if _, err := querier.ExecContext(ctx, deleteExpired, idBytes); err != nil {
		return err
	}

	query := `INSERT INTO client_requests (id, name, created_at, expires_at)
			  VALUES (?, ?, NOW(), ?)`

	_, err = querier.ExecContext(ctx, query, idBytes, request.Name, request.ExpiresAt)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return domain.ErrDuplicateRequest
		}
		return err
	}

	return nil
}
