package entity

import "github.com/shopspring/decimal"

// DefaultCustomerEmail email centinela cuando no se escaneó ningún badge.
const DefaultCustomerEmail = "unknown@pos.com"

// Cart estado del pedido en curso en la UI.
type Cart struct {
	Name  string // referencia del pedido en el POS (ej. "Order 00012-001-0003")
	UID   string
	Lines []CartLine
}

// OrderRef referencia del pedido: Name o, en su defecto, UID.
func (c Cart) OrderRef() string {
	if c.Name != "" {
		return c.Name
	}
	return c.UID
}

// CartLine línea del carrito. ProductID 0 = producto no resoluble.
type CartLine struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// OrderPayload pedido normalizado para el endpoint de validación.
type OrderPayload struct {
	OrderID       string
	CustomerEmail string
	Lines         []OrderLine
}

// OrderLine línea normalizada (Quantity > 0).
type OrderLine struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// CustomerProfile beneficiario identificado por badge.
type CustomerProfile struct {
	Badge     string          `json:"badge"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Category  string          `json:"category,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
}
