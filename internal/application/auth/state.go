package auth

import (
	"time"

	"github.com/jhoicas/pos-connector/internal/domain"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// State estado del ciclo de autenticación del terminal.
type State string

const (
	StateUnauthenticated       State = "unauthenticated"
	StateOnlineAuthenticating  State = "online_authenticating"
	StateOfflineAuthenticating State = "offline_authenticating"
	StatePendingPINEnrollment  State = "pending_pin_enrollment"
	StateAuthenticated         State = "authenticated"
)

// LoginStatus desenlace de Login / EnrollPIN.
type LoginStatus string

const (
	LoginAuthenticated     LoginStatus = "authenticated"
	LoginPendingEnrollment LoginStatus = "pending_enrollment"
	LoginFailed            LoginStatus = "failed"
)

// LoginResult resultado de un intento de login o de registro de PIN.
type LoginResult struct {
	Status       LoginStatus
	Session      *entity.Session // copia; nil en fallo
	ErrorKind    domain.ErrorKind
	Message      string
	AttemptsLeft int // solo relevante con LoginPendingEnrollment
}

// OK true si el cajero quedó autenticado.
func (r LoginResult) OK() bool { return r.Status == LoginAuthenticated }

func failed(kind domain.ErrorKind, message string) LoginResult {
	return LoginResult{Status: LoginFailed, ErrorKind: kind, Message: message}
}

// EventType tipo de transición observable.
type EventType string

const (
	EventSessionEstablished EventType = "session_established"
	EventEnrollmentRequired EventType = "enrollment_required"
	EventSessionCleared     EventType = "session_cleared"
)

// Motivos de EventSessionCleared.
const (
	ReasonLogout             = "logout"
	ReasonExpired            = "expired"
	ReasonEnrollmentAborted  = "enrollment_aborted"
	ReasonVerificationFailed = "verification_failed"
)

// Event transición de sesión notificada a los suscriptores (widgets de cajero, badges...).
type Event struct {
	Type    EventType
	Session *entity.Session
	Reason  string
	At      time.Time
}

// Listener recibe eventos de sesión. Se invoca fuera del lock del Manager.
type Listener func(Event)
