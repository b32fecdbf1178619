package entity

import (
	"strings"
	"time"
)

// DefaultConnectorTimeout timeout por defecto de la llamada de validación.
const DefaultConnectorTimeout = 15 * time.Second

// Connector endpoint remoto de validación de pagos.
type Connector struct {
	ID        string
	Name      string
	APIURL    string // base, ej. http://localhost:8080/api/payments
	Timeout   time.Duration
	Active    bool
	CreatedAt time.Time
}

// EndpointURL URL completa de validación: <APIURL>/v2/validate.
func (c *Connector) EndpointURL() string {
	return strings.TrimRight(c.APIURL, "/") + "/v2/validate"
}

// EffectiveTimeout Timeout o DefaultConnectorTimeout si no está definido.
func (c *Connector) EffectiveTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultConnectorTimeout
	}
	return c.Timeout
}
