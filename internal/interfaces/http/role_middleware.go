package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-connector/internal/application/dto"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// RequireRole restringe la ruta a los roles indicados (sin distinguir mayúsculas).
// Debe usarse DESPUÉS de SessionMiddleware.
//
//   - 401 si no hay sesión en el contexto.
//   - 403 si el rol del cajero no está en la lista.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "MISSING_ROLE",
				Message: "sesión sin rol de cajero",
			})
		}
		if !entity.RoleAllowed(role, roles) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "el rol '" + role + "' no puede realizar esta operación",
			})
		}
		return c.Next()
	}
}
