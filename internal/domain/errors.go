package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// ErrorKind categoría de fallo visible para la UI del terminal.
type ErrorKind string

const (
	KindNetworkTimeout      ErrorKind = "network_timeout"
	KindConnectionError     ErrorKind = "connection_error"
	KindClientError         ErrorKind = "client_error"
	KindAuthRejected        ErrorKind = "auth_rejected"
	KindSessionExpired      ErrorKind = "session_expired"
	KindValidationError     ErrorKind = "validation_error"
	KindServerError         ErrorKind = "server_error"
	KindEnrollmentCancelled ErrorKind = "enrollment_cancelled"
)

// Error error tipado con categoría y mensaje legible.
// Message es lo que ve el cajero; Err conserva la causa técnica para logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError construye un *Error.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf devuelve la categoría de err; client_error si no es un *Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindClientError
}

// MessageOf devuelve el mensaje legible de err o fallback si no es un *Error.
func MessageOf(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}

// ValidationError error de datos locales incompletos (carrito vacío, sin order id...).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }
