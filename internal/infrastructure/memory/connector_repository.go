package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/domain/repository"
)

var _ repository.ConnectorRepository = (*ConnectorRepository)(nil)

// ConnectorRepository conectores en memoria, ordenados por fecha de alta.
type ConnectorRepository struct {
	mu    sync.RWMutex
	items map[string]entity.Connector
}

// NewConnectorRepository construye el repositorio con los conectores dados.
func NewConnectorRepository(initial ...*entity.Connector) *ConnectorRepository {
	r := &ConnectorRepository{items: make(map[string]entity.Connector)}
	for _, c := range initial {
		r.items[c.ID] = *c
	}
	return r
}

func (r *ConnectorRepository) Upsert(_ context.Context, c *entity.Connector) error {
	r.mu.Lock()
	r.items[c.ID] = *c
	r.mu.Unlock()
	return nil
}

func (r *ConnectorRepository) GetByID(_ context.Context, id string) (*entity.Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *ConnectorRepository) FirstActive(ctx context.Context) (*entity.Connector, error) {
	list, _ := r.List(ctx, true)
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (r *ConnectorRepository) List(_ context.Context, activeOnly bool) ([]*entity.Connector, error) {
	r.mu.RLock()
	list := make([]*entity.Connector, 0, len(r.items))
	for _, c := range r.items {
		if activeOnly && !c.Active {
			continue
		}
		c := c
		list = append(list, &c)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}
