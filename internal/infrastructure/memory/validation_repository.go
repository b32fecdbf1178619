package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/domain/repository"
)

var _ repository.ValidationRepository = (*ValidationRepository)(nil)

// ValidationRepository traza de validaciones en memoria.
type ValidationRepository struct {
	mu   sync.RWMutex
	recs []entity.ValidationRecord
}

func NewValidationRepository() *ValidationRepository {
	return &ValidationRepository{}
}

func (r *ValidationRepository) Create(_ context.Context, rec *entity.ValidationRecord) error {
	r.mu.Lock()
	r.recs = append(r.recs, *rec)
	r.mu.Unlock()
	return nil
}

// ListRecent más recientes primero.
func (r *ValidationRepository) ListRecent(_ context.Context, limit, offset int) ([]*entity.ValidationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.ValidationRecord
	for i := len(r.recs) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		rec := r.recs[i]
		out = append(out, &rec)
	}
	return out, nil
}
