package simulator_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pos-connector/internal/simulator"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func newBackend(t *testing.T) (*simulator.Backend, *fiber.App) {
	t.Helper()
	b := simulator.New(simulator.Config{JWTSecret: "sim-secret", BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	require.NoError(t, simulator.Seed(b))
	return b, b.App()
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	status, out := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status)
	tok, _ := out["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func order(orderID, email string, items ...map[string]any) map[string]any {
	return map[string]any{"orderId": orderID, "customer": map[string]string{"email": email}, "items": items}
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth / cuenta / badge
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesInvalidas_401ConMensaje(t *testing.T) {
	_, app := newBackend(t)

	status, out := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "cashier@pos.com", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Invalid email or password", out["message"])
}

func TestAccount_DevuelveRolActual(t *testing.T) {
	b, app := newBackend(t)
	tok := login(t, app, "cashier@pos.com", "cashier123")
	require.NoError(t, b.SetRole("cashier@pos.com", "VIEWER"))

	status, out := call(t, app, http.MethodGet, "/api/auth/me", tok, nil)

	require.Equal(t, http.StatusOK, status)
	data := out["data"].(map[string]any)
	assert.Equal(t, "VIEWER", data["role"])
	assert.Equal(t, "Durand", data["nom"])
	assert.Equal(t, "Camille", data["prenom"])
}

func TestAccount_SinToken_401(t *testing.T) {
	_, app := newBackend(t)

	status, _ := call(t, app, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestBadge_ConocidoYDesconocido(t *testing.T) {
	_, app := newBackend(t)
	tok := login(t, app, "cashier@pos.com", "cashier123")

	status, out := call(t, app, http.MethodGet, "/api/badges/B-0001", tok, nil)
	require.Equal(t, http.StatusOK, status)
	data := out["data"].(map[string]any)
	assert.Equal(t, "marie.dupont@corp.fr", data["email"])
	assert.Equal(t, 50.0, data["solde"])

	status, _ = call(t, app, http.MethodGet, "/api/badges/NOPE", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealth_SegunEstado(t *testing.T) {
	b, app := newBackend(t)

	status, _ := call(t, app, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	b.SetHealthy(false)
	status, _ = call(t, app, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// /v2/validate
// ──────────────────────────────────────────────────────────────────────────────

func TestValidate_SubvencionLimitadaPorUnidades(t *testing.T) {
	b, app := newBackend(t)

	// 2 menús: solo 1 subvencionado (9.50 + 9.50 - 4.75 = 14.25 a cargo del empleado)
	status, out := call(t, app, http.MethodPost, "/api/payments/v2/validate", "",
		order("Order 1", "marie.dupont@corp.fr", map[string]any{"productId": 1, "quantity": 2}))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, 19.0, out["montantTotal"])
	assert.Equal(t, 4.75, out["partPatronale"])
	assert.Equal(t, 14.25, out["amountCharged"])
	assert.Equal(t, 50.0, out["soldeActuel"])
	assert.Equal(t, 35.75, out["remainingBalance"])
	assert.NotEmpty(t, out["transactionId"])
	require.Len(t, out["articles"], 1)

	bal, err := b.Balance("marie.dupont@corp.fr")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("35.75")))
}

func TestValidate_SaldoInsuficiente(t *testing.T) {
	b, app := newBackend(t)

	status, out := call(t, app, http.MethodPost, "/api/payments/v2/validate", "",
		order("Order 2", "paul.bernard@corp.fr", map[string]any{"productId": 2, "quantity": 1}))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, false, out["valide"])
	assert.Equal(t, "Solde insuffisant", out["message"])
	assert.Equal(t, "insufficient_funds", out["errorType"])
	assert.Equal(t, 4.2, out["required_amount"])
	assert.Equal(t, 2.5, out["current_balance"])

	bal, _ := b.Balance("paul.bernard@corp.fr")
	assert.True(t, bal.Equal(decimal.RequireFromString("2.50")))
}

func TestValidate_Errores4xx(t *testing.T) {
	_, app := newBackend(t)

	status, _ := call(t, app, http.MethodPost, "/api/payments/v2/validate", "",
		order("Order 3", "ghost@corp.fr", map[string]any{"productId": 1, "quantity": 1}))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, app, http.MethodPost, "/api/payments/v2/validate", "",
		order("Order 3", "marie.dupont@corp.fr", map[string]any{"productId": 999, "quantity": 1}))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodPost, "/api/payments/v2/validate", "", order("Order 3", "marie.dupont@corp.fr"))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestValidate_PedidoDuplicado_409(t *testing.T) {
	_, app := newBackend(t)
	body := order("Order 4", "marie.dupont@corp.fr", map[string]any{"productId": 3, "quantity": 1})

	status, _ := call(t, app, http.MethodPost, "/api/payments/v2/validate", "", body)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, http.MethodPost, "/api/payments/v2/validate", "", body)
	assert.Equal(t, http.StatusConflict, status)
}

func TestValidate_PedidoDePrueba(t *testing.T) {
	_, app := newBackend(t)

	status, out := call(t, app, http.MethodPost, "/api/payments/v2/validate", "",
		order("TEST_CONNECTION", "test@pos.com", map[string]any{"productId": 1, "quantity": 1}))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", out["status"])
}
