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

var _ repository.CredentialStore = (*CredentialStore)(nil)

// CredentialStore sesión del terminal (una fila por terminal_id) y PIN offline por email.
type CredentialStore struct {
	q          Querier
	terminalID string
	now        func() time.Time
}

// NewCredentialStore construye el adaptador. Pasar pool o tx (Querier).
func NewCredentialStore(q Querier, terminalID string) *CredentialStore {
	return &CredentialStore{q: q, terminalID: terminalID, now: time.Now}
}

// WithClock reemplaza el reloj usado para la expiración perezosa.
func (s *CredentialStore) WithClock(now func() time.Time) *CredentialStore {
	s.now = now
	return s
}

// Save persiste la sesión del terminal (last-write-wins).
func (s *CredentialStore) Save(ctx context.Context, sess *entity.Session) error {
	query := `
		INSERT INTO terminal_sessions (terminal_id, token, email, first_name, last_name, role, mode, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (terminal_id) DO UPDATE SET
			token = EXCLUDED.token, email = EXCLUDED.email, first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name, role = EXCLUDED.role, mode = EXCLUDED.mode,
			expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at`
	_, err := s.q.Exec(ctx, query,
		s.terminalID, sess.Token, sess.Cashier.Email, sess.Cashier.FirstName, sess.Cashier.LastName,
		sess.Cashier.Role, string(sess.Mode), sess.ExpiresAt, sess.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load devuelve la sesión vigente; si expiró la borra y devuelve nil.
func (s *CredentialStore) Load(ctx context.Context) (*entity.Session, error) {
	query := `
		SELECT token, email, first_name, last_name, role, mode, expires_at, created_at
		FROM terminal_sessions WHERE terminal_id = $1`
	var (
		sess entity.Session
		mode string
	)
	err := s.q.QueryRow(ctx, query, s.terminalID).Scan(
		&sess.Token, &sess.Cashier.Email, &sess.Cashier.FirstName, &sess.Cashier.LastName,
		&sess.Cashier.Role, &mode, &sess.ExpiresAt, &sess.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess.Mode = entity.SessionMode(mode)
	if sess.IsExpired(s.now()) {
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &sess, nil
}

// Clear borra la sesión del terminal. Los PIN se conservan.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM terminal_sessions WHERE terminal_id = $1`, s.terminalID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SavePIN guarda (o reemplaza) el registro del email normalizado.
func (s *CredentialStore) SavePIN(ctx context.Context, rec *entity.OfflinePINRecord) error {
	query := `
		INSERT INTO offline_pins (email, pin_hash, identity_email, first_name, last_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			pin_hash = EXCLUDED.pin_hash, identity_email = EXCLUDED.identity_email,
			first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			role = EXCLUDED.role, created_at = EXCLUDED.created_at`
	_, err := s.q.Exec(ctx, query,
		entity.NormalizeEmail(rec.Email), rec.PINHash, rec.Identity.Email, rec.Identity.FirstName,
		rec.Identity.LastName, rec.Identity.Role, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save offline pin: %w", err)
	}
	return nil
}

// LoadPIN devuelve el registro del email o nil.
func (s *CredentialStore) LoadPIN(ctx context.Context, email string) (*entity.OfflinePINRecord, error) {
	query := `
		SELECT email, pin_hash, identity_email, first_name, last_name, role, created_at
		FROM offline_pins WHERE email = $1`
	var rec entity.OfflinePINRecord
	err := s.q.QueryRow(ctx, query, entity.NormalizeEmail(email)).Scan(
		&rec.Email, &rec.PINHash, &rec.Identity.Email, &rec.Identity.FirstName,
		&rec.Identity.LastName, &rec.Identity.Role, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load offline pin: %w", err)
	}
	return &rec, nil
}
