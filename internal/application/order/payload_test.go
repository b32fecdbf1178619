package order_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-connector/internal/application/order"
	"github.com/jhoicas/pos-connector/internal/domain"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

func TestBuildPayload_CarritoVacio_NoLines(t *testing.T) {
	_, err := order.BuildPayload(entity.Cart{Name: "Order 1"}, "", "")

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, order.ReasonNoLines, verr.Reason)
}

func TestBuildPayload_UnaLineaCantidad2(t *testing.T) {
	cart := entity.Cart{
		Name:  "Order 00012-001-0003",
		Lines: []entity.CartLine{{ProductID: 42, Quantity: decimal.NewFromInt(2)}},
	}

	p, err := order.BuildPayload(cart, "", "")

	require.NoError(t, err)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, int64(42), p.Lines[0].ProductID)
	assert.True(t, p.Lines[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "Order 00012-001-0003", p.OrderID)
	assert.Equal(t, entity.DefaultCustomerEmail, p.CustomerEmail)
}

func TestBuildPayload_DescartaLineasNoResolubles(t *testing.T) {
	cart := entity.Cart{
		UID: "uid-7",
		Lines: []entity.CartLine{
			{ProductID: 0, Quantity: decimal.NewFromInt(1)},
			{ProductID: 5, Quantity: decimal.Zero},
			{ProductID: 6, Quantity: decimal.NewFromInt(-1)},
			{ProductID: 7, Quantity: decimal.RequireFromString("0.5")},
		},
	}

	p, err := order.BuildPayload(cart, "badge@corp.com", "fallback@pos.com")

	require.NoError(t, err)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, int64(7), p.Lines[0].ProductID)
	assert.Equal(t, "uid-7", p.OrderID, "sin nombre se usa el UID")
	assert.Equal(t, "badge@corp.com", p.CustomerEmail)
}

func TestBuildPayload_SoloLineasInvalidas_NoLines(t *testing.T) {
	cart := entity.Cart{Name: "o", Lines: []entity.CartLine{{ProductID: 3, Quantity: decimal.Zero}}}

	_, err := order.BuildPayload(cart, "", "")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, order.ReasonNoLines, verr.Reason)
}

func TestBuildPayload_SinOrderID(t *testing.T) {
	cart := entity.Cart{Lines: []entity.CartLine{{ProductID: 3, Quantity: decimal.NewFromInt(1)}}}

	_, err := order.BuildPayload(cart, "", "")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, order.ReasonNoOrderID, verr.Reason)
}

func TestBuildPayload_EmailPorDefectoConfigurado(t *testing.T) {
	cart := entity.Cart{Name: "o", Lines: []entity.CartLine{{ProductID: 3, Quantity: decimal.NewFromInt(1)}}}

	p, err := order.BuildPayload(cart, "   ", "caisse@site.com")

	require.NoError(t, err)
	assert.Equal(t, "caisse@site.com", p.CustomerEmail)
}
