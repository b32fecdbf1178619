package repository

import (
	"context"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// CredentialStore define el puerto de persistencia de la sesión del terminal y de los PIN offline.
// Load devuelve (nil, nil) si no hay sesión o si ya expiró; en ese caso borra la entrada (expiración perezosa).
// Los PIN no se borran con Clear.
type CredentialStore interface {
	Save(ctx context.Context, session *entity.Session) error
	Load(ctx context.Context) (*entity.Session, error)
	Clear(ctx context.Context) error
	SavePIN(ctx context.Context, record *entity.OfflinePINRecord) error
	LoadPIN(ctx context.Context, email string) (*entity.OfflinePINRecord, error)
}
