package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/domain/repository"
)

var _ repository.ConnectorRepository = (*ConnectorRepo)(nil)

// ConnectorRepo implementación de ConnectorRepository (usable con pool o tx).
type ConnectorRepo struct {
	q Querier
}

// NewConnectorRepository construye el adaptador.
func NewConnectorRepository(q Querier) *ConnectorRepo {
	return &ConnectorRepo{q: q}
}

const connectorColumns = `id, name, api_url, timeout_ms, active, created_at`

// Upsert crea o actualiza un conector por ID.
func (r *ConnectorRepo) Upsert(ctx context.Context, c *entity.Connector) error {
	query := `
		INSERT INTO payment_connectors (` + connectorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, api_url = EXCLUDED.api_url,
			timeout_ms = EXCLUDED.timeout_ms, active = EXCLUDED.active`
	_, err := r.q.Exec(ctx, query, c.ID, c.Name, c.APIURL, c.Timeout.Milliseconds(), c.Active, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert connector: %w", err)
	}
	return nil
}

// GetByID obtiene un conector por ID; nil si no existe.
func (r *ConnectorRepo) GetByID(ctx context.Context, id string) (*entity.Connector, error) {
	query := `SELECT ` + connectorColumns + ` FROM payment_connectors WHERE id = $1`
	c, err := scanConnector(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get connector: %w", err)
	}
	return c, nil
}

// FirstActive primer conector activo por fecha de alta; nil si no hay ninguno.
func (r *ConnectorRepo) FirstActive(ctx context.Context) (*entity.Connector, error) {
	query := `SELECT ` + connectorColumns + ` FROM payment_connectors
		WHERE active ORDER BY created_at, id LIMIT 1`
	c, err := scanConnector(r.q.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("first active connector: %w", err)
	}
	return c, nil
}

// List conectores por fecha de alta.
func (r *ConnectorRepo) List(ctx context.Context, activeOnly bool) ([]*entity.Connector, error) {
	query := `SELECT ` + connectorColumns + ` FROM payment_connectors
		WHERE ($1 = FALSE OR active) ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list connectors: %w", err)
	}
	defer rows.Close()
	var list []*entity.Connector
	for rows.Next() {
		c, err := scanConnector(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connector: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanConnector(row pgx.Row) (*entity.Connector, error) {
	var (
		c         entity.Connector
		timeoutMS int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.APIURL, &timeoutMS, &c.Active, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Timeout = time.Duration(timeoutMS) * time.Millisecond
	return &c, nil
}
