package repository

import (
	"context"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// ConnectorRepository define el puerto de persistencia de conectores de pago.
type ConnectorRepository interface {
	Upsert(ctx context.Context, c *entity.Connector) error
	GetByID(ctx context.Context, id string) (*entity.Connector, error)
	FirstActive(ctx context.Context) (*entity.Connector, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Connector, error)
}
