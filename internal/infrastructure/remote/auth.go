package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jhoicas/pos-connector/internal/application/ports"
	"github.com/jhoicas/pos-connector/internal/domain"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

var (
	_ ports.AuthGateway  = (*Client)(nil)
	_ ports.BadgeGateway = (*Client)(nil)
	_ ports.HealthProber = (*Client)(nil)
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// accountData datos de la cuenta tal como los expone el backend.
type accountData struct {
	Email  string `json:"email"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Role   string `json:"role"`
}

type badgeData struct {
	Badge     string      `json:"badge"`
	Email     string      `json:"email"`
	Nom       string      `json:"nom"`
	Prenom    string      `json:"prenom"`
	Categorie string      `json:"categorie"`
	Solde     json.Number `json:"solde"`
}

// Authenticate intercambia email+password por un bearer token.
// 4xx o status=error → auth_rejected con el mensaje remoto; 5xx → server_error.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.cfg.url(c.cfg.LoginPath), "", c.cfg.Timeout,
		loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	env, decErr := decodeEnvelope(resp.body)
	if !isSuccess(resp.status) {
		kind := domain.KindAuthRejected
		if resp.status >= http.StatusInternalServerError {
			kind = domain.KindServerError
		}
		return "", domain.NewError(kind, env.text(), fmt.Errorf("remote: login HTTP %d", resp.status))
	}
	if decErr != nil {
		return "", domain.NewError(domain.KindAuthRejected, "", fmt.Errorf("remote: login: %w", decErr))
	}
	if env.failed() || env.Token == "" {
		return "", domain.NewError(domain.KindAuthRejected, env.text(), fmt.Errorf("remote: login sin token"))
	}
	return env.Token, nil
}

// FetchAccount obtiene identidad y rol de la cuenta del token.
func (c *Client) FetchAccount(ctx context.Context, token string) (*entity.Identity, error) {
	resp, err := c.do(ctx, http.MethodGet, c.cfg.url(c.cfg.AccountPath), token, c.cfg.Timeout, nil)
	if err != nil {
		return nil, err
	}
	env, decErr := decodeEnvelope(resp.body)
	if !isSuccess(resp.status) {
		return nil, httpFailure("account", resp.status, env.text())
	}
	if decErr != nil || env.failed() || len(env.Data) == 0 {
		return nil, domain.NewError(domain.KindAuthRejected, env.text(), fmt.Errorf("remote: account: respuesta inválida"))
	}
	var acc accountData
	if err := json.Unmarshal(env.Data, &acc); err != nil {
		return nil, domain.NewError(domain.KindAuthRejected, "", fmt.Errorf("remote: account: %w", err))
	}
	return &entity.Identity{
		Email:     strings.TrimSpace(acc.Email),
		FirstName: acc.Prenom,
		LastName:  acc.Nom,
		Role:      strings.ToUpper(strings.TrimSpace(acc.Role)),
	}, nil
}

// LookupBadge resuelve un código de badge al perfil del beneficiario.
func (c *Client) LookupBadge(ctx context.Context, token, code string) (*entity.CustomerProfile, error) {
	endpoint := c.cfg.url(c.cfg.BadgePath) + "/" + url.PathEscape(code)
	resp, err := c.do(ctx, http.MethodGet, endpoint, token, c.cfg.Timeout, nil)
	if err != nil {
		return nil, err
	}
	env, decErr := decodeEnvelope(resp.body)
	if !isSuccess(resp.status) {
		return nil, httpFailure("badge", resp.status, env.text())
	}
	if decErr != nil || len(env.Data) == 0 {
		return nil, domain.NewError(domain.KindClientError, MsgMalformedAnswer, fmt.Errorf("remote: badge: respuesta inválida"))
	}
	if env.failed() {
		return nil, domain.NewError(domain.KindValidationError, env.text(), nil)
	}
	var b badgeData
	if err := json.Unmarshal(env.Data, &b); err != nil {
		return nil, domain.NewError(domain.KindClientError, MsgMalformedAnswer, fmt.Errorf("remote: badge: %w", err))
	}
	profile := &entity.CustomerProfile{
		Badge:     b.Badge,
		Email:     strings.TrimSpace(b.Email),
		FirstName: b.Prenom,
		LastName:  b.Nom,
		Category:  b.Categorie,
	}
	if profile.Badge == "" {
		profile.Badge = code
	}
	if b.Solde != "" {
		profile.Balance, _ = parseDecimal(b.Solde.String())
	}
	return profile, nil
}

// Probe sondea el endpoint de salud; cualquier respuesta no 2xx cuenta como fallo.
func (c *Client) Probe(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.cfg.url(c.cfg.HealthPath), "", c.cfg.ProbeTimeout, nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp.status) {
		return httpFailure("health", resp.status, "")
	}
	return nil
}

// httpFailure clasifica un código HTTP no exitoso: 401/403 auth_rejected, 5xx server_error, resto client_error.
func httpFailure(op string, status int, message string) *domain.Error {
	kind := domain.KindClientError
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = domain.KindAuthRejected
	case status >= http.StatusInternalServerError:
		kind = domain.KindServerError
	}
	if message == "" {
		message = fmt.Sprintf("remote %s error: HTTP %d", op, status)
	}
	return domain.NewError(kind, message, fmt.Errorf("remote: %s HTTP %d", op, status))
}
