package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/domain/repository"
)

var _ repository.CredentialStore = (*CredentialStore)(nil)

// CredentialStore sesión del terminal con TTL nativo de Redis y PIN offline sin caducidad.
//
//	<prefix>:session:<terminal>  → JSON de la sesión, expira en ExpiresAt
//	<prefix>:pin:<email>         → JSON del registro PIN
type CredentialStore struct {
	client     goredis.Cmdable
	prefix     string
	terminalID string
	now        func() time.Time
}

// NewCredentialStore construye el store. prefix vacío = "pos".
func NewCredentialStore(client goredis.Cmdable, prefix, terminalID string) *CredentialStore {
	if prefix == "" {
		prefix = "pos"
	}
	return &CredentialStore{client: client, prefix: prefix, terminalID: terminalID, now: time.Now}
}

// WithClock reemplaza el reloj usado para calcular TTL y expiración.
func (s *CredentialStore) WithClock(now func() time.Time) *CredentialStore {
	s.now = now
	return s
}

func (s *CredentialStore) sessionKey() string { return s.prefix + ":session:" + s.terminalID }

func (s *CredentialStore) pinKey(email string) string {
	return s.prefix + ":pin:" + entity.NormalizeEmail(email)
}

type storedSession struct {
	Token     string          `json:"token"`
	Cashier   entity.Identity `json:"cashier"`
	Mode      string          `json:"mode"`
	ExpiresAt time.Time       `json:"expires_at"`
	CreatedAt time.Time       `json:"created_at"`
}

type storedPIN struct {
	Email     string          `json:"email"`
	PINHash   string          `json:"pin_hash"`
	Identity  entity.Identity `json:"identity"`
	CreatedAt time.Time       `json:"created_at"`
}

// Save guarda la sesión con TTL hasta ExpiresAt. Una sesión ya vencida borra la clave.
func (s *CredentialStore) Save(ctx context.Context, sess *entity.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.Clear(ctx)
	}
	data, err := json.Marshal(storedSession{
		Token: sess.Token, Cashier: sess.Cashier, Mode: string(sess.Mode),
		ExpiresAt: sess.ExpiresAt, CreatedAt: sess.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(), data, ttl).Err(); err != nil {
		return fmt.Errorf("session: set: %w", err)
	}
	return nil
}

// Load devuelve la sesión vigente o nil.
func (s *CredentialStore) Load(ctx context.Context) (*entity.Session, error) {
	val, err := s.client.Get(ctx, s.sessionKey()).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}
	var st storedSession
	if err := json.Unmarshal(val, &st); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	sess := &entity.Session{
		Token: st.Token, Cashier: st.Cashier, Mode: entity.SessionMode(st.Mode),
		ExpiresAt: st.ExpiresAt, CreatedAt: st.CreatedAt,
	}
	if sess.IsExpired(s.now()) {
		return nil, s.Clear(ctx)
	}
	return sess, nil
}

// Clear borra la sesión. Los PIN se conservan.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.sessionKey()).Err(); err != nil {
		return fmt.Errorf("session: del: %w", err)
	}
	return nil
}

// SavePIN guarda el registro del email normalizado (sin TTL).
func (s *CredentialStore) SavePIN(ctx context.Context, rec *entity.OfflinePINRecord) error {
	data, err := json.Marshal(storedPIN{
		Email: entity.NormalizeEmail(rec.Email), PINHash: rec.PINHash,
		Identity: rec.Identity, CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("pin: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.pinKey(rec.Email), data, 0).Err(); err != nil {
		return fmt.Errorf("pin: set: %w", err)
	}
	return nil
}

// LoadPIN devuelve el registro del email o nil.
func (s *CredentialStore) LoadPIN(ctx context.Context, email string) (*entity.OfflinePINRecord, error) {
	val, err := s.client.Get(ctx, s.pinKey(email)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pin: get: %w", err)
	}
	var st storedPIN
	if err := json.Unmarshal(val, &st); err != nil {
		return nil, fmt.Errorf("pin: unmarshal: %w", err)
	}
	return &entity.OfflinePINRecord{Email: st.Email, PINHash: st.PINHash, Identity: st.Identity, CreatedAt: st.CreatedAt}, nil
}
