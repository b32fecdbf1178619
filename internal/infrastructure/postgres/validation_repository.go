package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-connector/internal/domain"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/domain/repository"
)

var _ repository.ValidationRepository = (*ValidationRepo)(nil)

// ValidationRepo traza de validaciones de pedidos. Importes NUMERIC vía pgx-shopspring-decimal.
type ValidationRepo struct {
	q Querier
}

// NewValidationRepository construye el adaptador.
func NewValidationRepository(q Querier) *ValidationRepo {
	return &ValidationRepo{q: q}
}

// Create persiste una traza.
func (r *ValidationRepo) Create(ctx context.Context, rec *entity.ValidationRecord) error {
	query := `
		INSERT INTO order_validations (id, order_id, connector_id, cashier_email, customer_email, success,
			error_kind, message, total_amount, employee_share, employer_share, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.OrderID, rec.ConnectorID, rec.CashierEmail, rec.CustomerEmail, rec.Success,
		rec.ErrorKind, rec.Message, rec.TotalAmount, rec.EmployeeShare, rec.EmployerShare,
		rec.TransactionID, rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert order validation: %w", err)
	}
	return nil
}

// ListRecent más recientes primero, con paginación.
func (r *ValidationRepo) ListRecent(ctx context.Context, limit, offset int) ([]*entity.ValidationRecord, error) {
	query := `
		SELECT id::text, order_id, connector_id, cashier_email, customer_email, success, error_kind, message,
			total_amount, employee_share, employer_share, transaction_id, created_at
		FROM order_validations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list order validations: %w", err)
	}
	defer rows.Close()
	var list []*entity.ValidationRecord
	for rows.Next() {
		var rec entity.ValidationRecord
		if err := rows.Scan(
			&rec.ID, &rec.OrderID, &rec.ConnectorID, &rec.CashierEmail, &rec.CustomerEmail, &rec.Success,
			&rec.ErrorKind, &rec.Message, &rec.TotalAmount, &rec.EmployeeShare, &rec.EmployerShare,
			&rec.TransactionID, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order validation: %w", err)
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}
