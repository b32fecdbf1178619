package entity

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Roles conocidos del backend de cuentas.
const (
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleCaissier   = "CAISSIER"
)

// DefaultAllowedRoles roles que pueden abrir sesión en el terminal.
var DefaultAllowedRoles = []string{RoleAdmin, RoleSuperAdmin, RoleCaissier}

// SessionMode indica cómo se autenticó la sesión.
type SessionMode string

const (
	ModeOnline  SessionMode = "online"
	ModeOffline SessionMode = "offline"
)

// OfflineToken token centinela de las sesiones offline; nunca se envía al backend.
const OfflineToken = "offline-session"

// Identity datos del cajero autenticado.
type Identity struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// DisplayName nombre para mostrar: "Prénom Nom" o el email si no hay nombre.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if name == "" {
		return i.Email
	}
	return name
}

// Session sesión activa del cajero en el terminal.
type Session struct {
	Token     string
	Cashier   Identity
	Mode      SessionMode
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired true cuando now >= ExpiresAt.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsOffline true si la sesión se abrió con PIN local.
func (s *Session) IsOffline() bool {
	return s.Mode == ModeOffline
}

var emailFolder = cases.Fold()

// NormalizeEmail clave canónica de un email (sin espacios, case folding Unicode).
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}

// RoleAllowed indica si role pertenece a allowed, sin distinguir mayúsculas.
func RoleAllowed(role string, allowed []string) bool {
	role = strings.TrimSpace(role)
	if role == "" {
		return false
	}
	for _, r := range allowed {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}
