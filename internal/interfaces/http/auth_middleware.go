package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-connector/internal/application/ports"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// LocalSession key de c.Locals con la sesión del cajero.
const LocalSession = "pos_session"

// SessionMiddleware exige una sesión de cajero autenticada y vigente. La expiración se detecta
// localmente, antes de cualquier llamada remota del handler.
func SessionMiddleware(sessions ports.SessionProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.ActiveSession(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		c.Locals(LocalSession, sess)
		return c.Next()
	}
}

// GetSession devuelve la sesión del contexto (después de SessionMiddleware).
func GetSession(c *fiber.Ctx) *entity.Session {
	s, _ := c.Locals(LocalSession).(*entity.Session)
	return s
}

// GetRole devuelve el rol del cajero de la sesión.
func GetRole(c *fiber.Ctx) string {
	if s := GetSession(c); s != nil {
		return s.Cashier.Role
	}
	return ""
}
