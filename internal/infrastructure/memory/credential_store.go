package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/domain/repository"
)

var _ repository.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implementación en memoria del CredentialStore (tests y modo "memory").
type CredentialStore struct {
	mu      sync.Mutex
	session *entity.Session
	pins    map[string]entity.OfflinePINRecord
	now     func() time.Time
}

// NewCredentialStore construye el store vacío.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		pins: make(map[string]entity.OfflinePINRecord),
		now:  time.Now,
	}
}

// WithClock reemplaza el reloj usado para la expiración perezosa.
func (s *CredentialStore) WithClock(now func() time.Time) *CredentialStore {
	s.now = now
	return s
}

// Save guarda una copia de la sesión (last-write-wins).
func (s *CredentialStore) Save(_ context.Context, session *entity.Session) error {
	c := *session
	s.mu.Lock()
	s.session = &c
	s.mu.Unlock()
	return nil
}

// Load devuelve la sesión vigente; si expiró la borra y devuelve nil.
func (s *CredentialStore) Load(_ context.Context) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	if s.session.IsExpired(s.now()) {
		s.session = nil
		return nil, nil
	}
	c := *s.session
	return &c, nil
}

// Clear borra la sesión. Los PIN se conservan.
func (s *CredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	return nil
}

// SavePIN guarda el registro indexado por email normalizado.
func (s *CredentialStore) SavePIN(_ context.Context, record *entity.OfflinePINRecord) error {
	rec := *record
	rec.Email = entity.NormalizeEmail(rec.Email)
	s.mu.Lock()
	s.pins[rec.Email] = rec
	s.mu.Unlock()
	return nil
}

// LoadPIN devuelve el registro del email o nil.
func (s *CredentialStore) LoadPIN(_ context.Context, email string) (*entity.OfflinePINRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.pins[entity.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
