package order

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-connector/internal/domain"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// Motivos de ValidationError de BuildPayload.
const (
	ReasonNoLines   = "no lines"
	ReasonNoOrderID = "order id required"
)

// BuildPayload normaliza el carrito en un OrderPayload.
// Descarta líneas sin producto resoluble o con cantidad <= 0; si no queda ninguna devuelve
// ValidationError("no lines"). Sin cliente escaneado se usa el email centinela.
func BuildPayload(cart entity.Cart, customerEmail, defaultEmail string) (*entity.OrderPayload, error) {
	lines := make([]entity.OrderLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		if l.ProductID <= 0 || !l.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		lines = append(lines, entity.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	if len(lines) == 0 {
		return nil, &domain.ValidationError{Reason: ReasonNoLines}
	}

	orderID := strings.TrimSpace(cart.OrderRef())
	if orderID == "" {
		return nil, &domain.ValidationError{Reason: ReasonNoOrderID}
	}

	email := strings.TrimSpace(customerEmail)
	if email == "" {
		email = defaultEmail
	}
	if email == "" {
		email = entity.DefaultCustomerEmail
	}

	return &entity.OrderPayload{
		OrderID:       orderID,
		CustomerEmail: email,
		Lines:         lines,
	}, nil
}
