package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-connector/internal/application/auth"
	"github.com/jhoicas/pos-connector/internal/application/connectivity"
	"github.com/jhoicas/pos-connector/internal/application/order"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Auth         *auth.Manager
	Connectivity *connectivity.Monitor
	Orders       *order.Service
	ServiceName  string
}

// Router registra las rutas de la API local del terminal.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName, "online": deps.Connectivity.Online()})
	})

	api := app.Group("/api")

	// Auth (público: la UI de login no tiene sesión todavía)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.Auth)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/offline-pin", authHandler.EnrollPIN)
	authGroup.Delete("/offline-pin", authHandler.CancelEnrollment)
	authGroup.Post("/verify", authHandler.Verify)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Get("/session", authHandler.Session)

	// Connectivity (público)
	conn := api.Group("/connectivity")
	connHandler := NewConnectivityHandler(deps.Connectivity)
	conn.Get("/", connHandler.Status)
	conn.Post("/check", connHandler.Check)

	// Rutas protegidas (requieren sesión de cajero vigente)
	protected := api.Group("/", SessionMiddleware(deps.Auth))
	orderHandler := NewOrderHandler(deps.Orders)

	badges := protected.Group("/badges")
	badges.Post("/scan", orderHandler.ScanBadge)
	badges.Get("/active", orderHandler.ActiveBadge)
	badges.Delete("/active", orderHandler.ClearBadge)

	orders := protected.Group("/orders")
	orders.Post("/validate", orderHandler.Validate)
	orders.Get("/validations", orderHandler.Validations)

	connectors := protected.Group("/connectors")
	connectors.Get("/", orderHandler.Connectors)
	connectors.Post("/:id/test", RequireRole(entity.RoleAdmin, entity.RoleSuperAdmin), orderHandler.TestConnector)
}
