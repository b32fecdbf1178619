package repository

import (
	"context"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// ValidationRepository traza de validaciones de pedidos enviadas al backend.
type ValidationRepository interface {
	Create(ctx context.Context, rec *entity.ValidationRecord) error
	ListRecent(ctx context.Context, limit, offset int) ([]*entity.ValidationRecord, error)
}
