package dto

import (
	"time"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// LoginRequest entrada de login: password si hay conexión, PIN de 4 dígitos si no.
type LoginRequest struct {
	Email      string `json:"email"`
	Credential string `json:"credential"`
}

// EnrollPINRequest registro del PIN offline obligatorio.
type EnrollPINRequest struct {
	PIN          string `json:"pin"`
	Confirmation string `json:"confirmation"`
}

// CashierResponse cajero autenticado.
type CashierResponse struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// SessionResponse sesión sin el token bearer.
type SessionResponse struct {
	Cashier   CashierResponse `json:"cashier"`
	Mode      string          `json:"mode"`
	ExpiresAt time.Time       `json:"expires_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// LoginResponse desenlace de login, registro de PIN o consulta de sesión.
type LoginResponse struct {
	Status       string           `json:"status"`
	State        string           `json:"state"`
	Session      *SessionResponse `json:"session,omitempty"`
	AttemptsLeft int              `json:"attempts_left,omitempty"`
	Message      string           `json:"message,omitempty"`
}

// FromSession convierte la sesión; nil si s es nil.
func FromSession(s *entity.Session) *SessionResponse {
	if s == nil {
		return nil
	}
	return &SessionResponse{
		Cashier: CashierResponse{
			Email:       s.Cashier.Email,
			FirstName:   s.Cashier.FirstName,
			LastName:    s.Cashier.LastName,
			DisplayName: s.Cashier.DisplayName(),
			Role:        s.Cashier.Role,
		},
		Mode:      string(s.Mode),
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
	}
}
