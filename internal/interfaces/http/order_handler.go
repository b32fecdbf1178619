package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-connector/internal/application/dto"
	"github.com/jhoicas/pos-connector/internal/application/order"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// OrderHandler badges, validación de pedidos, trazas y conectores.
type OrderHandler struct {
	svc *order.Service
}

// NewOrderHandler construye el handler.
func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func validationResponse(c *fiber.Ctx, res entity.ValidationResult) error {
	status := fiber.StatusOK
	if !res.Success {
		status = statusForKind(res.ErrorKind)
	}
	return c.Status(status).JSON(dto.FromValidationResult(res))
}

// ScanBadge godoc
// @Summary      Identificar al beneficiario por su badge
// @Tags         badges
// @Security     Session
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BadgeScanRequest  true  "code"
// @Success      200   {object}  entity.CustomerProfile
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/badges/scan [post]
func (h *OrderHandler) ScanBadge(c *fiber.Ctx) error {
	var in dto.BadgeScanRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	p, err := h.svc.LookupBadge(c.UserContext(), in.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// ActiveBadge godoc
// @Summary      Beneficiario activo
// @Tags         badges
// @Security     Session
// @Produce      json
// @Success      200  {object}  entity.CustomerProfile
// @Success      204
// @Router       /api/badges/active [get]
func (h *OrderHandler) ActiveBadge(c *fiber.Ctx) error {
	p := h.svc.ActiveCustomer()
	if p == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(p)
}

// ClearBadge godoc
// @Summary      Olvidar el beneficiario activo
// @Tags         badges
// @Security     Session
// @Success      204
// @Router       /api/badges/active [delete]
func (h *OrderHandler) ClearBadge(c *fiber.Ctx) error {
	h.svc.ClearCustomer()
	return c.SendStatus(fiber.StatusNoContent)
}

// Validate godoc
// @Summary      Validar el pedido en curso contra el conector de pagos
// @Tags         orders
// @Security     Session
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateOrderRequest  true  "Carrito"
// @Success      200   {object}  dto.ValidationResponse
// @Failure      400   {object}  dto.ValidationResponse
// @Failure      422   {object}  dto.ValidationResponse
// @Failure      503   {object}  dto.ValidationResponse
// @Router       /api/orders/validate [post]
func (h *OrderHandler) Validate(c *fiber.Ctx) error {
	var in dto.ValidateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return validationResponse(c, h.svc.ValidateCart(c.UserContext(), in.ConnectorID, in.ToCart(), in.CustomerEmail))
}

// Validations godoc
// @Summary      Historial de validaciones
// @Tags         orders
// @Security     Session
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.ValidationListResponse
// @Router       /api/orders/validations [get]
func (h *OrderHandler) Validations(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	if page.Limit > 100 {
		page.Limit = 100
	}
	list, err := h.svc.History(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromValidationRecords(list, page))
}

// Connectors godoc
// @Summary      Conectores de pago
// @Tags         connectors
// @Security     Session
// @Produce      json
// @Param        active  query  bool  false  "Solo activos"
// @Success      200     {object}  dto.ConnectorListResponse
// @Router       /api/connectors [get]
func (h *OrderHandler) Connectors(c *fiber.Ctx) error {
	list, err := h.svc.Connectors(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromConnectors(list))
}

// TestConnector godoc
// @Summary      Probar la conexión con un conector
// @Tags         connectors
// @Security     Session
// @Produce      json
// @Param        id   path  string  true  "ID del conector"
// @Success      200  {object}  dto.ValidationResponse
// @Failure      503  {object}  dto.ValidationResponse
// @Router       /api/connectors/{id}/test [post]
func (h *OrderHandler) TestConnector(c *fiber.Ctx) error {
	return validationResponse(c, h.svc.TestConnection(c.UserContext(), c.Params("id")))
}
