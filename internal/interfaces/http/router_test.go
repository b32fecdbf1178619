package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pos-connector/internal/application/auth"
	"github.com/jhoicas/pos-connector/internal/application/connectivity"
	"github.com/jhoicas/pos-connector/internal/application/order"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/infrastructure/memory"
	"github.com/jhoicas/pos-connector/internal/infrastructure/remote"
	apphttp "github.com/jhoicas/pos-connector/internal/interfaces/http"
	"github.com/jhoicas/pos-connector/internal/simulator"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type terminal struct {
	app     *fiber.App
	backend *simulator.Backend
	monitor *connectivity.Monitor
}

// newTerminal monta el terminal completo contra el simulador servido por httptest.
func newTerminal(t *testing.T) *terminal {
	t.Helper()
	b := simulator.New(simulator.Config{JWTSecret: "sim-secret", BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	require.NoError(t, simulator.Seed(b))
	srv := httptest.NewServer(adaptor.FiberApp(b.App()))
	t.Cleanup(srv.Close)

	client := remote.NewClient(remote.Config{BaseURL: srv.URL, Timeout: 2 * time.Second, ProbeTimeout: 500 * time.Millisecond},
		zerolog.Nop(), remote.WithHTTPClient(srv.Client()))
	monitor := connectivity.NewMonitor(client, 500*time.Millisecond, zerolog.Nop())
	require.True(t, monitor.CheckNow(context.Background()))

	mgr := auth.NewManager(memory.NewCredentialStore(), client, monitor,
		auth.Config{BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	connectors := memory.NewConnectorRepository(&entity.Connector{
		ID: "default", Name: "Payments API", APIURL: srv.URL + "/api/payments", Timeout: 2 * time.Second, Active: true,
	})
	svc := order.NewService(mgr, monitor, client, client, connectors, memory.NewValidationRepository(),
		order.Config{DefaultCustomerEmail: entity.DefaultCustomerEmail}, zerolog.Nop())
	mgr.Subscribe(func(ev auth.Event) {
		if ev.Type == auth.EventSessionCleared {
			svc.ClearCustomer()
		}
	})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{Auth: mgr, Connectivity: monitor, Orders: svc, ServiceName: "pos-test"})
	return &terminal{app: app, backend: b, monitor: monitor}
}

func (tm *terminal) call(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := tm.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (tm *terminal) login(t *testing.T, email, credential string) (int, map[string]any) {
	t.Helper()
	return tm.call(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "credential": credential})
}

func (tm *terminal) enroll(t *testing.T, pin, confirmation string) (int, map[string]any) {
	t.Helper()
	return tm.call(t, http.MethodPost, "/api/auth/offline-pin", map[string]string{"pin": pin, "confirmation": confirmation})
}

func dec(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "se esperaba un decimal serializado como string, llegó %v", v)
	return decimal.RequireFromString(s)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario completo
// ──────────────────────────────────────────────────────────────────────────────

func TestFlujoCompleto_LoginOnlinePINBadgeValidacionYOffline(t *testing.T) {
	tm := newTerminal(t)

	// 1. Primer login online: PIN offline obligatorio
	status, out := tm.login(t, "cashier@pos.com", "cashier123")
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "pending_enrollment", out["status"])
	assert.Equal(t, "pending_pin_enrollment", out["state"])
	assert.EqualValues(t, 3, out["attempts_left"])

	// sin PIN registrado las rutas de caja siguen cerradas
	status, _ = tm.call(t, http.MethodGet, "/api/connectors", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, out = tm.enroll(t, "4821", "4821")
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "authenticated", out["status"])
	sess := out["session"].(map[string]any)
	assert.Equal(t, "online", sess["mode"])
	assert.Equal(t, "Camille Durand", sess["cashier"].(map[string]any)["display_name"])

	// 2. Badge + validación
	status, out = tm.call(t, http.MethodPost, "/api/badges/scan", map[string]string{"code": "B-0001"})
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "marie.dupont@corp.fr", out["email"])

	status, out = tm.call(t, http.MethodPost, "/api/orders/validate", map[string]any{
		"name":  "Order 00001-001-0001",
		"lines": []map[string]any{{"product_id": 1, "quantity": "2"}, {"product_id": 3, "quantity": "1"}},
	})
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, true, out["success"])
	details := out["details"].(map[string]any)
	assert.True(t, dec(t, details["total_amount"]).Equal(decimal.RequireFromString("20.30")))
	assert.True(t, dec(t, details["employee_share"]).Equal(decimal.RequireFromString("15.55")))
	assert.Equal(t, "marie.dupont@corp.fr", details["beneficiary"].(map[string]any)["email"])

	status, out = tm.call(t, http.MethodGet, "/api/orders/validations?limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	items := out["items"].([]any)
	require.Len(t, items, 1)
	rec := items[0].(map[string]any)
	assert.Equal(t, "Order 00001-001-0001", rec["order_id"])
	assert.Equal(t, "cashier@pos.com", rec["cashier_email"])
	assert.Equal(t, true, rec["success"])

	// 3. Logout: el badge activo se olvida, el PIN se conserva
	status, _ = tm.call(t, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusNoContent, status)
	status, out = tm.call(t, http.MethodGet, "/api/auth/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "unauthenticated", out["state"])

	// 4. Backend caído: login offline con el PIN
	tm.backend.SetHealthy(false)
	status, out = tm.call(t, http.MethodPost, "/api/connectivity/check", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, out["online"])

	status, out = tm.login(t, "cashier@pos.com", "0000")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, auth.MsgIncorrectPIN, out["message"])

	status, out = tm.login(t, "Cashier@POS.com", "4821")
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "authenticated", out["status"])
	assert.Equal(t, "offline", out["session"].(map[string]any)["mode"])

	status, _ = tm.call(t, http.MethodGet, "/api/badges/active", nil)
	assert.Equal(t, http.StatusNoContent, status)

	// 5. Offline la validación no sale a la red
	status, out = tm.call(t, http.MethodPost, "/api/orders/validate", map[string]any{
		"name":  "Order 00001-001-0002",
		"lines": []map[string]any{{"product_id": 3, "quantity": "1"}},
	})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "connection_error", out["error_kind"])
}

func TestEnrollPIN_TresIntentosFallidos_CierraSesion(t *testing.T) {
	tm := newTerminal(t)
	status, _ := tm.login(t, "cashier@pos.com", "cashier123")
	require.Equal(t, http.StatusOK, status)

	status, out := tm.enroll(t, "12a4", "12a4")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, 2, out["attempts_left"])

	status, out = tm.enroll(t, "1234", "4321")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, 1, out["attempts_left"])

	status, out = tm.enroll(t, "12", "12")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ENROLLMENT_CANCELLED", out["code"])
	assert.Equal(t, auth.MsgEnrollmentAborted, out["message"])

	status, out = tm.call(t, http.MethodGet, "/api/auth/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "unauthenticated", out["state"])
}

func TestCancelEnrollment_CierraSesion(t *testing.T) {
	tm := newTerminal(t)

	status, _ := tm.call(t, http.MethodDelete, "/api/auth/offline-pin", nil)
	assert.Equal(t, http.StatusBadRequest, status, "sin registro pendiente")

	status, _ = tm.login(t, "cashier@pos.com", "cashier123")
	require.Equal(t, http.StatusOK, status)

	status, out := tm.call(t, http.MethodDelete, "/api/auth/offline-pin", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "unauthenticated", out["state"])
	assert.Equal(t, auth.MsgEnrollmentAborted, out["message"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Login / middlewares
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_Validaciones(t *testing.T) {
	tm := newTerminal(t)

	status, out := tm.login(t, "", "x")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", out["code"])

	status, out = tm.login(t, "cashier@pos.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_REJECTED", out["code"])
	assert.Equal(t, "Invalid email or password", out["message"])

	status, out = tm.login(t, "viewer@pos.com", "viewer123")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, out["message"], "VIEWER")
}

func TestRutasProtegidas_SinSesion_401(t *testing.T) {
	tm := newTerminal(t)

	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/badges/scan"},
		{http.MethodPost, "/api/orders/validate"},
		{http.MethodGet, "/api/orders/validations"},
		{http.MethodGet, "/api/connectors"},
	} {
		status, out := tm.call(t, r.method, r.path, nil)
		assert.Equal(t, http.StatusUnauthorized, status, r.path)
		assert.Equal(t, "SESSION_EXPIRED", out["code"], r.path)
	}
}

func TestTestConnector_SoloAdmin(t *testing.T) {
	tm := newTerminal(t)
	tm.login(t, "cashier@pos.com", "cashier123")
	status, _ := tm.enroll(t, "1111", "1111")
	require.Equal(t, http.StatusOK, status)

	status, out := tm.call(t, http.MethodPost, "/api/connectors/default/test", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", out["code"])

	tm.login(t, "admin@pos.com", "admin123")
	status, _ = tm.enroll(t, "2222", "2222")
	require.Equal(t, http.StatusOK, status)

	status, out = tm.call(t, http.MethodPost, "/api/connectors/default/test", nil)
	assert.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, true, out["success"])

	status, out = tm.call(t, http.MethodGet, "/api/connectors?active=true", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, out["items"], 1)
}

func TestHealthYConectividad(t *testing.T) {
	tm := newTerminal(t)

	status, out := tm.call(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["online"])

	status, out = tm.call(t, http.MethodGet, "/api/connectivity", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["online"])
	assert.NotEmpty(t, out["last_check"])
}
