package ports

import (
	"context"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// AuthGateway puerto de salida hacia el servicio remoto de autenticación y cuentas.
// Los errores devueltos son *domain.Error con su categoría (timeout, conexión, rechazo...).
type AuthGateway interface {
	// Authenticate intercambia email+password por un bearer token.
	Authenticate(ctx context.Context, email, password string) (string, error)
	// FetchAccount obtiene la identidad y el rol de la cuenta asociada al token.
	FetchAccount(ctx context.Context, token string) (*entity.Identity, error)
}

// BadgeGateway resuelve un código de badge a un perfil de beneficiario.
type BadgeGateway interface {
	LookupBadge(ctx context.Context, token, code string) (*entity.CustomerProfile, error)
}

// ValidationGateway envía el pedido al endpoint de validación del conector.
// Nunca devuelve error: los fallos de transporte se traducen a un ValidationResult fallido.
type ValidationGateway interface {
	Validate(ctx context.Context, connector *entity.Connector, token string, payload *entity.OrderPayload) entity.ValidationResult
}

// HealthProber sondea el endpoint de salud del backend. nil = en línea.
type HealthProber interface {
	Probe(ctx context.Context) error
}

// ConnectivityReader lectura del estado online/offline.
type ConnectivityReader interface {
	Online() bool
}

// SessionProvider entrega la sesión activa o un *domain.Error session_expired.
type SessionProvider interface {
	ActiveSession(ctx context.Context) (*entity.Session, error)
}
