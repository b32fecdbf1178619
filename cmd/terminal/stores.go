package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-connector/internal/domain/repository"
	"github.com/jhoicas/pos-connector/internal/infrastructure/memory"
	"github.com/jhoicas/pos-connector/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/pos-connector/internal/infrastructure/redis"
	"github.com/jhoicas/pos-connector/pkg/config"
)

// stores persistencia del terminal según STORE_DRIVER.
type stores struct {
	credentials repository.CredentialStore
	connectors  repository.ConnectorRepository
	history     repository.ValidationRepository
	close       func()
}

// openStores abre el almacén configurado. Con redis, conectores e historial quedan en memoria.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, postgres.NewTxRunner(pool)); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			credentials: postgres.NewCredentialStore(pool, cfg.App.TerminalID),
			connectors:  postgres.NewConnectorRepository(pool),
			history:     postgres.NewValidationRepository(pool),
			close:       pool.Close,
		}, nil
	case "redis":
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &stores{
			credentials: infraredis.NewCredentialStore(client, cfg.Redis.KeyPrefix, cfg.App.TerminalID),
			connectors:  memory.NewConnectorRepository(),
			history:     memory.NewValidationRepository(),
			close:       func() { _ = client.Close() },
		}, nil
	case "memory":
		return &stores{
			credentials: memory.NewCredentialStore(),
			connectors:  memory.NewConnectorRepository(),
			history:     memory.NewValidationRepository(),
			close:       func() {},
		}, nil
	default:
		return nil, fmt.Errorf("store driver %q no soportado", cfg.Store.Driver)
	}
}
