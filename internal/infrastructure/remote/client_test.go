package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pos-connector/internal/domain"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/infrastructure/remote"
	"github.com/jhoicas/pos-connector/internal/simulator"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type env struct {
	backend   *simulator.Backend
	server    *httptest.Server
	client    *remote.Client
	connector *entity.Connector
}

func newEnv(t *testing.T) *env {
	t.Helper()
	b := simulator.New(simulator.Config{JWTSecret: "sim-secret", BcryptCost: bcrypt.MinCost}, zerolog.Nop())
	require.NoError(t, simulator.Seed(b))
	srv := httptest.NewServer(adaptor.FiberApp(b.App()))
	t.Cleanup(srv.Close)

	c := remote.NewClient(remote.Config{BaseURL: srv.URL, Timeout: 2 * time.Second, ProbeTimeout: 500 * time.Millisecond},
		zerolog.Nop(), remote.WithHTTPClient(srv.Client()))
	return &env{
		backend:   b,
		server:    srv,
		client:    c,
		connector: &entity.Connector{ID: "main", APIURL: srv.URL + "/api/payments", Timeout: 2 * time.Second, Active: true},
	}
}

// rawServer servidor con un handler fijo para respuestas que el simulador no produce.
func rawServer(t *testing.T, status int, body string) (*httptest.Server, *entity.Connector) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &entity.Connector{ID: "raw", APIURL: srv.URL, Active: true}
}

func payload(orderID, email string, lines ...entity.OrderLine) *entity.OrderPayload {
	return &entity.OrderPayload{OrderID: orderID, CustomerEmail: email, Lines: lines}
}

func line(id int64, qty int64) entity.OrderLine {
	return entity.OrderLine{ProductID: id, Quantity: decimal.NewFromInt(qty)}
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth / cuenta / badge / salud
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthenticate_YFetchAccount(t *testing.T) {
	e := newEnv(t)

	tok, err := e.client.Authenticate(context.Background(), "cashier@pos.com", "cashier123")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	id, err := e.client.FetchAccount(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "cashier@pos.com", id.Email)
	assert.Equal(t, entity.RoleCaissier, id.Role)
	assert.Equal(t, "Camille Durand", id.DisplayName())
}

func TestAuthenticate_Rechazo_ConMensajeRemoto(t *testing.T) {
	e := newEnv(t)

	_, err := e.client.Authenticate(context.Background(), "cashier@pos.com", "wrong")

	require.Error(t, err)
	assert.Equal(t, domain.KindAuthRejected, domain.KindOf(err))
	assert.Equal(t, "Invalid email or password", domain.MessageOf(err, ""))
}

func TestFetchAccount_TokenInvalido_AuthRejected(t *testing.T) {
	e := newEnv(t)

	_, err := e.client.FetchAccount(context.Background(), "garbage")

	assert.Equal(t, domain.KindAuthRejected, domain.KindOf(err))
}

func TestLookupBadge(t *testing.T) {
	e := newEnv(t)
	tok, err := e.client.Authenticate(context.Background(), "cashier@pos.com", "cashier123")
	require.NoError(t, err)

	p, err := e.client.LookupBadge(context.Background(), tok, "B-0001")
	require.NoError(t, err)
	assert.Equal(t, "marie.dupont@corp.fr", p.Email)
	assert.Equal(t, "Marie", p.FirstName)
	assert.True(t, p.Balance.Equal(decimal.NewFromInt(50)))

	_, err = e.client.LookupBadge(context.Background(), tok, "NOPE")
	assert.Equal(t, domain.KindClientError, domain.KindOf(err))
	assert.Equal(t, "Badge not found", domain.MessageOf(err, ""))
}

func TestProbe_SanoCaidoYTimeout(t *testing.T) {
	e := newEnv(t)
	assert.NoError(t, e.client.Probe(context.Background()))

	e.backend.SetHealthy(false)
	err := e.client.Probe(context.Background())
	assert.Equal(t, domain.KindServerError, domain.KindOf(err))

	e.backend.SetHealthy(true)
	e.backend.SetLatency(time.Second)
	err = e.client.Probe(context.Background())
	assert.Equal(t, domain.KindNetworkTimeout, domain.KindOf(err))
}

func TestProbe_ServidorInalcanzable_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := remote.NewClient(remote.Config{BaseURL: url, ProbeTimeout: time.Second}, zerolog.Nop())

	err := c.Probe(context.Background())

	assert.Equal(t, domain.KindConnectionError, domain.KindOf(err))
}

// ──────────────────────────────────────────────────────────────────────────────
// Validate
// ──────────────────────────────────────────────────────────────────────────────

func TestValidate_Exito_DetalleDeSubvencion(t *testing.T) {
	e := newEnv(t)

	res := e.client.Validate(context.Background(), e.connector, "", payload("Order 1", "marie.dupont@corp.fr", line(1, 2), line(3, 1)))

	require.True(t, res.Success, res.Message)
	d := res.Details
	require.NotNil(t, d)
	assert.True(t, d.TotalAmount.Equal(decimal.RequireFromString("20.30")))
	assert.True(t, d.EmployerShare.Equal(decimal.RequireFromString("4.75")))
	assert.True(t, d.EmployeeShare.Equal(decimal.RequireFromString("15.55")))
	assert.True(t, d.CurrentBalance.Equal(decimal.NewFromInt(50)))
	assert.True(t, d.NewBalance.Equal(decimal.RequireFromString("34.45")))
	assert.Equal(t, "Marie Dupont", d.Beneficiary.FullName)
	assert.NotEmpty(t, d.TransactionID)
	require.Len(t, d.Articles, 2)
	assert.Equal(t, "Menu du jour", d.Articles[0].Name)
	assert.True(t, d.Articles[0].QuantityWithSubsidy.Equal(decimal.NewFromInt(1)))
}

func TestValidate_SaldoInsuficiente_ValidationError(t *testing.T) {
	e := newEnv(t)

	res := e.client.Validate(context.Background(), e.connector, "", payload("Order 2", "paul.bernard@corp.fr", line(2, 1)))

	assert.False(t, res.Success)
	assert.Equal(t, domain.KindValidationError, res.ErrorKind)
	assert.Equal(t, "Solde insuffisant", res.Message)
	require.NotNil(t, res.Failure)
	assert.True(t, res.Failure.RequiredAmount.Valid)
	assert.True(t, res.Failure.RequiredAmount.Decimal.Equal(decimal.RequireFromString("4.20")))
	assert.True(t, res.Failure.CurrentBalance.Decimal.Equal(decimal.RequireFromString("2.50")))
	assert.NotEmpty(t, res.Failure.TransactionID)
}

func TestValidate_ClienteDesconocido_ClientError(t *testing.T) {
	e := newEnv(t)

	res := e.client.Validate(context.Background(), e.connector, "", payload("Order 3", "ghost@corp.fr", line(1, 1)))

	assert.Equal(t, domain.KindClientError, res.ErrorKind)
	assert.Equal(t, "Unknown beneficiary", res.Message)
	assert.Equal(t, http.StatusNotFound, res.Failure.StatusCode)
}

func TestValidate_Timeout_NetworkTimeout(t *testing.T) {
	e := newEnv(t)
	e.backend.SetLatency(300 * time.Millisecond)
	e.connector.Timeout = 50 * time.Millisecond

	res := e.client.Validate(context.Background(), e.connector, "", payload("Order 4", "marie.dupont@corp.fr", line(3, 1)))

	assert.Equal(t, domain.KindNetworkTimeout, res.ErrorKind)
}

func TestValidate_500_ServerError(t *testing.T) {
	_, conn := rawServer(t, http.StatusBadGateway, `{"error":"upstream down"}`)

	res := remote.NewClient(remote.Config{}, zerolog.Nop()).Validate(context.Background(), conn, "", payload("o", "x@y.z", line(1, 1)))

	assert.Equal(t, domain.KindServerError, res.ErrorKind)
	assert.Equal(t, "upstream down", res.Message)
}

func TestValidate_RespuestaIlegible_ClientError(t *testing.T) {
	_, conn := rawServer(t, http.StatusOK, `<html>oops</html>`)

	res := remote.NewClient(remote.Config{}, zerolog.Nop()).Validate(context.Background(), conn, "", payload("o", "x@y.z", line(1, 1)))

	assert.Equal(t, domain.KindClientError, res.ErrorKind)
	assert.Equal(t, remote.MsgMalformedAnswer, res.Message)
}

func TestValidate_TotalesDerivadosDeArticulos(t *testing.T) {
	body := `{"status":"success","remainingBalance":"10,00","transactionId":123,
		"articles":[{"odooId":1,"nom":"A","quantite":2,"montantTotal":8,"subventionTotale":3},
		            {"odooId":2,"montantTotal":"2.5","subventionTotale":null}]}`
	_, conn := rawServer(t, http.StatusOK, body)

	res := remote.NewClient(remote.Config{}, zerolog.Nop()).Validate(context.Background(), conn, "", payload("o", "x@y.z", line(1, 1)))

	require.True(t, res.Success)
	d := res.Details
	assert.True(t, d.TotalAmount.Equal(decimal.RequireFromString("10.5")))
	assert.True(t, d.EmployerShare.Equal(decimal.NewFromInt(3)))
	assert.True(t, d.EmployeeShare.Equal(decimal.RequireFromString("7.5")))
	assert.True(t, d.CurrentBalance.Equal(decimal.RequireFromString("17.5")))
	assert.Equal(t, "123", d.TransactionID)
	assert.Equal(t, "Article inconnu", d.Articles[1].Name)
	assert.True(t, d.Articles[1].Quantity.Equal(decimal.NewFromInt(1)))
}

func TestValidate_ValideFalseConErrorType(t *testing.T) {
	_, conn := rawServer(t, http.StatusOK, `{"valide":false,"errorType":"server_error"}`)

	res := remote.NewClient(remote.Config{}, zerolog.Nop()).Validate(context.Background(), conn, "", payload("o", "x@y.z", line(1, 1)))

	assert.False(t, res.Success)
	assert.Equal(t, domain.KindServerError, res.ErrorKind)
	assert.Equal(t, "Payment validation failed", res.Message)
}
