package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jhoicas/pos-connector/internal/domain"
)

const (
	// DefaultTimeout timeout de las llamadas de autenticación, cuenta y badge.
	DefaultTimeout = 15 * time.Second
	// DefaultProbeTimeout timeout del sondeo de salud.
	DefaultProbeTimeout = 2 * time.Second

	maxBodyBytes = 1 << 20
	userAgent    = "pos-connector/1.0"
)

// Mensajes para el cajero cuando el transporte falla.
const (
	MsgTimeout         = "remote service did not answer in time"
	MsgUnreachable     = "cannot reach remote service"
	MsgMalformedAnswer = "remote service returned an unreadable answer"
)

// Config rutas y timeouts del backend remoto.
type Config struct {
	BaseURL      string
	LoginPath    string
	AccountPath  string
	BadgePath    string // el código se añade como último segmento
	HealthPath   string
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.LoginPath == "" {
		c.LoginPath = "/api/auth/login"
	}
	if c.AccountPath == "" {
		c.AccountPath = "/api/auth/me"
	}
	if c.BadgePath == "" {
		c.BadgePath = "/api/badges"
	}
	if c.HealthPath == "" {
		c.HealthPath = "/api/health"
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	return c
}

func (c Config) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Client adaptador HTTP hacia el backend (auth, cuentas, badges, salud y validación de pedidos).
// Implementa ports.AuthGateway, ports.BadgeGateway, ports.HealthProber y ports.ValidationGateway.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

// Option personaliza el cliente.
type Option func(*Client)

// WithHTTPClient reemplaza el *http.Client (tests, transporte propio).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient construye el adaptador. El transporte por defecto va instrumentado con otelhttp;
// cada llamada impone su propio timeout vía context.
func NewClient(cfg Config, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg: cfg.withDefaults(),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope respuesta común {status, message, error, token, data}.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Token   string          `json:"token"`
	Data    json.RawMessage `json:"data"`
}

func (e *envelope) failed() bool {
	return strings.EqualFold(e.Status, "error") || strings.EqualFold(e.Status, "fail")
}

func (e *envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// response cuerpo crudo más el código HTTP.
type response struct {
	status int
	body   []byte
}

// do ejecuta la petición con timeout propio. Los fallos de transporte se devuelven ya clasificados.
func (c *Client) do(ctx context.Context, method, url, token string, timeout time.Duration, payload any) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, domain.NewError(domain.KindClientError, MsgMalformedAnswer, fmt.Errorf("remote: serializar request: %w", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, domain.NewError(domain.KindClientError, MsgUnreachable, fmt.Errorf("remote: crear request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, method+" "+url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(ctx, "leer respuesta "+url, err)
	}
	return &response{status: resp.StatusCode, body: raw}, nil
}

// classify traduce un error de transporte a network_timeout o connection_error.
func classify(ctx context.Context, op string, err error) *domain.Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return domain.NewError(domain.KindNetworkTimeout, MsgTimeout, fmt.Errorf("remote: %s: %w", op, err))
	}
	return domain.NewError(domain.KindConnectionError, MsgUnreachable, fmt.Errorf("remote: %s: %w", op, err))
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

// decodeEnvelope lee el sobre común; un cuerpo vacío o no JSON devuelve un sobre vacío.
func decodeEnvelope(body []byte) (*envelope, error) {
	env := &envelope{}
	if len(bytes.TrimSpace(body)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(body, env); err != nil {
		return env, err
	}
	return env, nil
}
