package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pos-connector/internal/application/ports"
	"github.com/jhoicas/pos-connector/internal/domain"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/domain/repository"
)

// DefaultSessionTTL duración de una sesión de cajero.
const DefaultSessionTTL = 8 * time.Hour

// DefaultMaxPINAttempts intentos para registrar el PIN offline obligatorio.
const DefaultMaxPINAttempts = 3

// Mensajes visibles para el cajero.
const (
	MsgAuthFailed           = "authentication failed"
	MsgAccountVerification  = "account verification failed"
	MsgOfflineNotConfigured = "offline credential not configured, online setup required"
	MsgIncorrectPIN         = "incorrect PIN"
	MsgEnrollmentAborted    = "mandatory offline setup cancelled/failed: session closed for security"
	MsgInvalidPINFormat     = "PIN must be exactly 4 digits and match its confirmation"
	MsgSessionExpired       = "session expired"
	MsgNoSession            = "no active cashier session"
	MsgLoginInProgress      = "a login is already in progress"
	MsgMissingCredentials   = "email and credential are required"
	MsgNoEnrollmentPending  = "no offline PIN enrollment is pending"
	MsgSessionPersistFailed = "could not persist the session on this terminal"

	MsgOfflineStoreUnavailable = "offline credentials unavailable on this terminal"
)

// Config parámetros del Manager.
type Config struct {
	SessionTTL     time.Duration
	AllowedRoles   []string
	MaxPINAttempts int
	BcryptCost     int
}

func (c Config) withDefaults() Config {
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if len(c.AllowedRoles) == 0 {
		c.AllowedRoles = entity.DefaultAllowedRoles
	}
	if c.MaxPINAttempts <= 0 {
		c.MaxPINAttempts = DefaultMaxPINAttempts
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	return c
}

// enrollment registro de PIN pendiente tras el primer login online.
type enrollment struct {
	email        string
	attemptsLeft int
}

// Manager orquesta el login online/offline, el registro obligatorio del PIN y el ciclo de vida de la sesión.
// Es el único escritor del CredentialStore.
type Manager struct {
	store        repository.CredentialStore
	gateway      ports.AuthGateway
	connectivity ports.ConnectivityReader
	cfg          Config
	log          zerolog.Logger
	now          func() time.Time

	mu        sync.Mutex
	state     State
	session   *entity.Session
	pending   *enrollment
	listeners []Listener
}

// NewManager construye el Manager.
func NewManager(
	store repository.CredentialStore,
	gateway ports.AuthGateway,
	connectivity ports.ConnectivityReader,
	cfg Config,
	log zerolog.Logger,
) *Manager {
	return &Manager{
		store:        store,
		gateway:      gateway,
		connectivity: connectivity,
		cfg:          cfg.withDefaults(),
		log:          log,
		now:          time.Now,
		state:        StateUnauthenticated,
	}
}

// WithClock reemplaza el reloj (tests).
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Subscribe registra un listener de transiciones de sesión.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// State estado actual.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session copia de la sesión en memoria (puede estar pendiente de PIN); nil si no hay.
func (m *Manager) Session() *entity.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySession(m.session)
}

// EnrollmentAttemptsLeft intentos restantes del registro de PIN (0 si no hay registro pendiente).
func (m *Manager) EnrollmentAttemptsLeft() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return 0
	}
	return m.pending.attemptsLeft
}

// Login autentica al cajero. credential es el password (online) o el PIN de 4 dígitos (offline);
// la rama se decide una sola vez con el estado de conectividad al inicio.
// Si ya hay una sesión, solo se reemplaza cuando el nuevo login tiene éxito.
func (m *Manager) Login(ctx context.Context, email, credential string) LoginResult {
	email = strings.TrimSpace(email)
	if email == "" || credential == "" {
		return failed(domain.KindClientError, MsgMissingCredentials)
	}

	online := m.connectivity.Online()

	m.mu.Lock()
	if m.state == StateOnlineAuthenticating || m.state == StateOfflineAuthenticating {
		m.mu.Unlock()
		return failed(domain.KindClientError, MsgLoginInProgress)
	}
	replaced, prevState, prevPending := m.session, m.state, m.pending
	if online {
		m.state = StateOnlineAuthenticating
	} else {
		m.state = StateOfflineAuthenticating
	}
	m.mu.Unlock()

	logger := m.log.With().Str("email", email).Bool("online", online).Logger()
	logger.Info().Msg("inicio de login")

	var res LoginResult
	if online {
		res = m.loginOnline(ctx, email, credential)
	} else {
		res = m.loginOffline(ctx, email, credential)
	}

	if res.Status == LoginFailed {
		m.rollbackLogin(ctx, replaced, prevState, prevPending)
		logger.Warn().Str("kind", string(res.ErrorKind)).Str("reason", res.Message).Msg("login rechazado")
		return res
	}

	m.mu.Lock()
	superseded := replaced != nil && m.session == replaced
	m.mu.Unlock()
	if superseded {
		m.emit(Event{Type: EventSessionCleared, Session: replaced, Reason: ReasonLogout})
	}

	sess := res.Session
	if res.Status == LoginPendingEnrollment {
		res.AttemptsLeft = m.beginEnrollment(sess, entity.NormalizeEmail(email))
	} else {
		m.establish(sess)
	}
	res.Session = copySession(sess)
	logger.Info().Str("status", string(res.Status)).Msg("login completado")
	return res
}

// rollbackLogin restaura la sesión previa a un login fallido, también en el store,
// porque el intento pudo sobrescribirla o borrarla.
func (m *Manager) rollbackLogin(ctx context.Context, replaced *entity.Session, prevState State, prevPending *enrollment) {
	m.mu.Lock()
	restore := replaced != nil && m.session == replaced
	if restore {
		m.state = prevState
		m.pending = prevPending
	} else {
		m.state = StateUnauthenticated
		m.session = nil
		m.pending = nil
	}
	m.mu.Unlock()
	if !restore {
		return
	}
	if err := m.store.Save(ctx, replaced); err != nil {
		m.log.Error().Err(err).Msg("restaurar sesión anterior")
	}
}

// loginOnline intercambio de credenciales → verificación de cuenta → control de rol → sesión.
// No toca el estado del Manager: Login confirma el resultado.
func (m *Manager) loginOnline(ctx context.Context, email, password string) LoginResult {
	token, err := m.gateway.Authenticate(ctx, email, password)
	if err != nil {
		return failed(domain.KindOf(err), domain.MessageOf(err, MsgAuthFailed))
	}
	if token == "" {
		return failed(domain.KindAuthRejected, MsgAuthFailed)
	}

	identity, err := m.gateway.FetchAccount(ctx, token)
	if err != nil {
		kind := domain.KindOf(err)
		if kind != domain.KindNetworkTimeout && kind != domain.KindConnectionError {
			kind = domain.KindAuthRejected
		}
		return failed(kind, MsgAccountVerification)
	}
	if identity.Email == "" {
		identity.Email = email
	}
	if !entity.RoleAllowed(identity.Role, m.cfg.AllowedRoles) {
		return failed(domain.KindAuthRejected, fmt.Sprintf("role %q is not allowed on this terminal", identity.Role))
	}

	now := m.now()
	sess := &entity.Session{
		Token:     token,
		Cashier:   *identity,
		Mode:      entity.ModeOnline,
		ExpiresAt: now.Add(m.cfg.SessionTTL),
		CreatedAt: now,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		m.log.Error().Err(err).Msg("guardar sesión")
		return failed(domain.KindClientError, MsgSessionPersistFailed)
	}

	rec, err := m.store.LoadPIN(ctx, entity.NormalizeEmail(email))
	if err != nil {
		// un error de lectura no prueba que el cajero no tenga PIN
		m.log.Error().Err(err).Msg("leer PIN offline")
		if err := m.store.Clear(ctx); err != nil {
			m.log.Error().Err(err).Msg("borrar sesión recién guardada")
		}
		return failed(domain.KindClientError, MsgOfflineStoreUnavailable)
	}
	if rec == nil {
		return LoginResult{Status: LoginPendingEnrollment, Session: sess}
	}
	return LoginResult{Status: LoginAuthenticated, Session: sess}
}

// loginOffline valida el PIN contra el registro local y arma una sesión offline.
func (m *Manager) loginOffline(ctx context.Context, email, pin string) LoginResult {
	rec, err := m.store.LoadPIN(ctx, entity.NormalizeEmail(email))
	if err != nil {
		m.log.Error().Err(err).Msg("leer PIN offline")
		return failed(domain.KindClientError, MsgOfflineStoreUnavailable)
	}
	if rec == nil {
		return failed(domain.KindAuthRejected, MsgOfflineNotConfigured)
	}
	if !entity.ValidPINFormat(pin) || bcrypt.CompareHashAndPassword([]byte(rec.PINHash), []byte(pin)) != nil {
		return failed(domain.KindAuthRejected, MsgIncorrectPIN)
	}
	if !entity.RoleAllowed(rec.Identity.Role, m.cfg.AllowedRoles) {
		return failed(domain.KindAuthRejected, fmt.Sprintf("role %q is not allowed on this terminal", rec.Identity.Role))
	}

	now := m.now()
	sess := &entity.Session{
		Token:     entity.OfflineToken,
		Cashier:   rec.Identity,
		Mode:      entity.ModeOffline,
		ExpiresAt: now.Add(m.cfg.SessionTTL),
		CreatedAt: now,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		m.log.Error().Err(err).Msg("guardar sesión offline")
		return failed(domain.KindClientError, MsgSessionPersistFailed)
	}
	return LoginResult{Status: LoginAuthenticated, Session: sess}
}

// beginEnrollment deja la sesión pendiente del registro de PIN y devuelve los intentos disponibles.
func (m *Manager) beginEnrollment(sess *entity.Session, pinKey string) int {
	m.mu.Lock()
	m.session = sess
	m.state = StatePendingPINEnrollment
	m.pending = &enrollment{email: pinKey, attemptsLeft: m.cfg.MaxPINAttempts}
	attempts := m.pending.attemptsLeft
	m.mu.Unlock()
	m.emit(Event{Type: EventEnrollmentRequired, Session: sess})
	return attempts
}

// EnrollPIN registra el PIN offline obligatorio. Cada PIN con formato inválido o que no coincide
// con la confirmación consume un intento; al agotarlos se cierra la sesión.
func (m *Manager) EnrollPIN(ctx context.Context, pin, confirmation string) LoginResult {
	m.mu.Lock()
	if m.state != StatePendingPINEnrollment || m.pending == nil || m.session == nil {
		m.mu.Unlock()
		return failed(domain.KindClientError, MsgNoEnrollmentPending)
	}
	sess := m.session
	pending := m.pending

	if !entity.ValidPINFormat(pin) || pin != confirmation {
		pending.attemptsLeft--
		left := pending.attemptsLeft
		m.mu.Unlock()
		if left <= 0 {
			return m.abortEnrollment(ctx)
		}
		return LoginResult{
			Status:       LoginPendingEnrollment,
			Session:      copySession(sess),
			ErrorKind:    domain.KindClientError,
			Message:      MsgInvalidPINFormat,
			AttemptsLeft: left,
		}
	}
	m.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), m.cfg.BcryptCost)
	if err == nil {
		err = m.store.SavePIN(ctx, &entity.OfflinePINRecord{
			Email:     pending.email,
			PINHash:   string(hash),
			Identity:  sess.Cashier,
			CreatedAt: m.now(),
		})
	}
	if err != nil {
		m.log.Error().Err(err).Msg("guardar PIN offline")
		m.mu.Lock()
		pending.attemptsLeft--
		left := pending.attemptsLeft
		m.mu.Unlock()
		if left <= 0 {
			return m.abortEnrollment(ctx)
		}
		return LoginResult{
			Status:       LoginPendingEnrollment,
			Session:      copySession(sess),
			ErrorKind:    domain.KindClientError,
			Message:      "could not store the offline PIN, try again",
			AttemptsLeft: left,
		}
	}

	m.mu.Lock()
	if m.session != sess {
		// la sesión cambió mientras se guardaba el PIN (logout concurrente)
		m.mu.Unlock()
		return failed(domain.KindSessionExpired, MsgNoSession)
	}
	m.mu.Unlock()
	m.log.Info().Str("email", pending.email).Msg("PIN offline registrado")
	m.establish(sess)
	return LoginResult{Status: LoginAuthenticated, Session: copySession(sess)}
}

// CancelEnrollment cancela explícitamente el registro de PIN: fuerza el logout.
func (m *Manager) CancelEnrollment(ctx context.Context) LoginResult {
	m.mu.Lock()
	pending := m.state == StatePendingPINEnrollment
	m.mu.Unlock()
	if !pending {
		return failed(domain.KindClientError, MsgNoEnrollmentPending)
	}
	return m.abortEnrollment(ctx)
}

func (m *Manager) abortEnrollment(ctx context.Context) LoginResult {
	m.log.Warn().Msg("registro de PIN offline cancelado o fallido, cerrando sesión")
	m.clear(ctx, ReasonEnrollmentAborted)
	return failed(domain.KindEnrollmentCancelled, MsgEnrollmentAborted)
}

// ActiveSession devuelve la sesión autenticada vigente. Detecta la expiración localmente,
// antes de cualquier llamada remota.
func (m *Manager) ActiveSession(ctx context.Context) (*entity.Session, error) {
	m.mu.Lock()
	if m.state != StateAuthenticated || m.session == nil {
		m.mu.Unlock()
		return nil, domain.NewError(domain.KindSessionExpired, MsgNoSession, nil)
	}
	if m.session.IsExpired(m.now()) {
		m.mu.Unlock()
		m.clear(ctx, ReasonExpired)
		return nil, domain.NewError(domain.KindSessionExpired, MsgSessionExpired, nil)
	}
	sess := copySession(m.session)
	m.mu.Unlock()
	return sess, nil
}

// VerifyExistingToken revalida la sesión persistida: expiración local y luego rol vía el endpoint de cuenta.
// Cualquier fallo borra la sesión. Devuelve true solo si el terminal queda autenticado.
func (m *Manager) VerifyExistingToken(ctx context.Context) bool {
	sess, err := m.store.Load(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("cargar sesión persistida")
		m.clear(ctx, ReasonVerificationFailed)
		return false
	}
	if sess == nil {
		m.dropMemory(ReasonExpired)
		return false
	}
	if sess.IsExpired(m.now()) {
		m.clear(ctx, ReasonExpired)
		return false
	}

	if sess.IsOffline() {
		// sin bearer válido: la sesión offline solo se valida localmente
		if !entity.RoleAllowed(sess.Cashier.Role, m.cfg.AllowedRoles) {
			m.clear(ctx, ReasonVerificationFailed)
			return false
		}
		m.establish(sess)
		return true
	}

	identity, err := m.gateway.FetchAccount(ctx, sess.Token)
	if err != nil {
		m.log.Warn().Err(err).Msg("verificación de token fallida")
		m.clear(ctx, ReasonVerificationFailed)
		return false
	}
	if !entity.RoleAllowed(identity.Role, m.cfg.AllowedRoles) {
		m.log.Warn().Str("role", identity.Role).Msg("rol no permitido en verificación")
		m.clear(ctx, ReasonVerificationFailed)
		return false
	}
	if identity.Email == "" {
		identity.Email = sess.Cashier.Email
	}
	sess.Cashier = *identity

	pinKey := entity.NormalizeEmail(identity.Email)
	rec, err := m.store.LoadPIN(ctx, pinKey)
	if err != nil {
		m.log.Error().Err(err).Msg("leer PIN offline")
		m.clear(ctx, ReasonVerificationFailed)
		return false
	}
	if rec == nil {
		m.beginEnrollment(sess, pinKey)
		return false
	}
	m.establish(sess)
	return true
}

// Logout borra la sesión y notifica que no hay cajero activo. Los PIN offline se conservan.
func (m *Manager) Logout(ctx context.Context) error {
	m.log.Info().Msg("logout")
	return m.clear(ctx, ReasonLogout)
}

func (m *Manager) establish(sess *entity.Session) {
	m.mu.Lock()
	m.session = sess
	m.state = StateAuthenticated
	m.pending = nil
	m.mu.Unlock()
	m.emit(Event{Type: EventSessionEstablished, Session: sess})
}

// clear borra sesión en memoria y persistida y emite EventSessionCleared.
func (m *Manager) clear(ctx context.Context, reason string) error {
	err := m.store.Clear(ctx)
	if err != nil {
		m.log.Error().Err(err).Str("reason", reason).Msg("borrar sesión persistida")
	}
	m.dropMemory(reason)
	return err
}

func (m *Manager) dropMemory(reason string) {
	m.mu.Lock()
	prev := m.session
	m.session = nil
	m.pending = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()
	if prev != nil {
		m.emit(Event{Type: EventSessionCleared, Session: prev, Reason: reason})
	}
}

func (m *Manager) emit(ev Event) {
	ev.At = m.now()
	ev.Session = copySession(ev.Session)
	m.mu.Lock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l(ev)
	}
}

func copySession(s *entity.Session) *entity.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
