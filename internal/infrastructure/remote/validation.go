package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-connector/internal/application/ports"
	"github.com/jhoicas/pos-connector/internal/domain"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

var _ ports.ValidationGateway = (*Client)(nil)

const (
	msgValidated        = "Payment validated successfully"
	msgValidationFailed = "Payment validation failed"
	unknownArticleName  = "Article inconnu"
)

// ── Protocolo /v2/validate ───────────────────────────────────────────────────

type validationRequest struct {
	OrderID     string           `json:"orderId"`
	Customer    validationClient `json:"customer"`
	Items       []validationItem `json:"items"`
	ConnectorID string           `json:"connectorId,omitempty"`
}

type validationClient struct {
	Email string `json:"email"`
}

type validationItem struct {
	ProductID int64       `json:"productId"`
	Quantity  json.Number `json:"quantity"`
}

type validationResponse struct {
	Status    string `json:"status"`
	Valide    *bool  `json:"valide"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	ErrorType string `json:"errorType"`

	AmountCharged    flexDecimal `json:"amountCharged"`
	RemainingBalance flexDecimal `json:"remainingBalance"`
	MontantTotal     flexDecimal `json:"montantTotal"`
	PartPatronale    flexDecimal `json:"partPatronale"`
	SoldeActuel      flexDecimal `json:"soldeActuel"`
	RequiredAmount   flexDecimal `json:"required_amount"`
	CurrentBalance   flexDecimal `json:"current_balance"`

	UtilisateurNom        string `json:"utilisateurNom"`
	UtilisateurPrenom     string `json:"utilisateurPrenom"`
	UtilisateurEmail      string `json:"utilisateurEmail"`
	UtilisateurCategorie  string `json:"utilisateurCategorie"`
	UtilisateurNomComplet string `json:"utilisateurNomComplet"`

	TransactionID flexString        `json:"transactionId"`
	Articles      []articleResponse `json:"articles"`
}

type articleResponse struct {
	OdooID                 int64       `json:"odooId"`
	Nom                    string      `json:"nom"`
	Quantite               flexDecimal `json:"quantite"`
	PrixUnitaire           flexDecimal `json:"prixUnitaire"`
	MontantTotal           flexDecimal `json:"montantTotal"`
	SubventionTotale       flexDecimal `json:"subventionTotale"`
	PartSalariale          flexDecimal `json:"partSalariale"`
	QuantiteAvecSubvention flexDecimal `json:"quantiteAvecSubvention"`
	QuantiteSansSubvention flexDecimal `json:"quantiteSansSubvention"`
}

// Validate envía el pedido al endpoint del conector. Nunca devuelve error: cualquier fallo
// termina en un ValidationResult con su categoría.
func (c *Client) Validate(ctx context.Context, connector *entity.Connector, token string, payload *entity.OrderPayload) entity.ValidationResult {
	req := validationRequest{
		OrderID:     payload.OrderID,
		Customer:    validationClient{Email: payload.CustomerEmail},
		Items:       make([]validationItem, 0, len(payload.Lines)),
		ConnectorID: connector.ID,
	}
	for _, l := range payload.Lines {
		req.Items = append(req.Items, validationItem{ProductID: l.ProductID, Quantity: json.Number(l.Quantity.String())})
	}

	timeout := connector.EffectiveTimeout()
	resp, err := c.do(ctx, http.MethodPost, connector.EndpointURL(), token, timeout, req)
	if err != nil {
		kind := domain.KindOf(err)
		msg := domain.MessageOf(err, MsgUnreachable)
		if kind == domain.KindNetworkTimeout {
			msg = fmt.Sprintf("API timeout after %d seconds", int(timeout.Seconds()))
		}
		c.log.Warn().Err(err).Str("order_id", payload.OrderID).Msg("validación: fallo de transporte")
		return entity.Failed(kind, msg, nil)
	}
	return parseValidation(resp.status, resp.body)
}

// parseValidation interpreta la respuesta de /v2/validate.
// 2xx con status=error o valide=false es un rechazo de negocio; 4xx client_error; 5xx server_error.
func parseValidation(status int, body []byte) entity.ValidationResult {
	if !isSuccess(status) {
		kind := domain.KindClientError
		fallback := fmt.Sprintf("Client error: %d", status)
		if status >= http.StatusInternalServerError {
			kind = domain.KindServerError
			fallback = fmt.Sprintf("Server error: %d", status)
		}
		msg := fallback
		var r validationResponse
		if json.Unmarshal(body, &r) == nil {
			if r.Message != "" {
				msg = r.Message
			} else if r.Error != "" {
				msg = r.Error
			}
		}
		return entity.Failed(kind, msg, &entity.FailureDetails{StatusCode: status})
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return entity.Succeeded(msgValidated, nil)
	}
	var r validationResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return entity.Failed(domain.KindClientError, MsgMalformedAnswer, &entity.FailureDetails{StatusCode: status})
	}

	if strings.EqualFold(r.Status, "error") || (r.Valide != nil && !*r.Valide) {
		kind := domain.KindValidationError
		if r.ErrorType != "" {
			kind = mapErrorType(r.ErrorType)
		}
		msg := r.Message
		if msg == "" {
			msg = msgValidationFailed
		}
		return entity.Failed(kind, msg, &entity.FailureDetails{
			StatusCode:     status,
			RequiredAmount: r.RequiredAmount.null(),
			CurrentBalance: r.CurrentBalance.null(),
			TransactionID:  string(r.TransactionID),
		})
	}

	msg := r.Message
	if msg == "" {
		msg = msgValidated
	}
	return entity.Succeeded(msg, extractSubsidy(&r))
}

// mapErrorType categorías que el backend puede enviar explícitamente.
func mapErrorType(t string) domain.ErrorKind {
	switch domain.ErrorKind(strings.ToLower(t)) {
	case domain.KindClientError:
		return domain.KindClientError
	case domain.KindServerError:
		return domain.KindServerError
	case domain.KindAuthRejected:
		return domain.KindAuthRejected
	case domain.KindSessionExpired:
		return domain.KindSessionExpired
	default:
		return domain.KindValidationError
	}
}

// extractSubsidy reparto y artículos. Si falta el total se deriva de los artículos.
func extractSubsidy(r *validationResponse) *entity.SubsidyDetails {
	d := &entity.SubsidyDetails{
		TotalAmount:    r.MontantTotal.Decimal,
		EmployeeShare:  r.AmountCharged.Decimal,
		EmployerShare:  r.PartPatronale.Decimal,
		CurrentBalance: r.SoldeActuel.Decimal,
		NewBalance:     r.RemainingBalance.Decimal,
		TransactionID:  string(r.TransactionID),
		Beneficiary: entity.Beneficiary{
			LastName:  r.UtilisateurNom,
			FirstName: r.UtilisateurPrenom,
			Email:     r.UtilisateurEmail,
			Category:  r.UtilisateurCategorie,
			FullName:  r.UtilisateurNomComplet,
		},
	}

	for _, a := range r.Articles {
		name := a.Nom
		if name == "" {
			name = unknownArticleName
		}
		qty := a.Quantite.Decimal
		if !a.Quantite.set {
			qty = decimal.NewFromInt(1)
		}
		d.Articles = append(d.Articles, entity.Article{
			ProductID:              a.OdooID,
			Name:                   name,
			Quantity:               qty,
			UnitPrice:              a.PrixUnitaire.Decimal,
			TotalAmount:            a.MontantTotal.Decimal,
			Subsidy:                a.SubventionTotale.Decimal,
			EmployeeShare:          a.PartSalariale.Decimal,
			QuantityWithSubsidy:    a.QuantiteAvecSubvention.Decimal,
			QuantityWithoutSubsidy: a.QuantiteSansSubvention.Decimal,
		})
	}

	if d.TotalAmount.IsZero() && len(d.Articles) > 0 {
		total, subsidy := decimal.Zero, decimal.Zero
		for _, a := range d.Articles {
			total = total.Add(a.TotalAmount)
			subsidy = subsidy.Add(a.Subsidy)
		}
		d.TotalAmount = total
		d.EmployerShare = subsidy
		if d.EmployeeShare.IsZero() {
			d.EmployeeShare = total.Sub(subsidy)
		}
		if d.CurrentBalance.IsZero() {
			d.CurrentBalance = d.NewBalance.Add(d.EmployeeShare)
		}
	}
	return d
}

// ── Tipos tolerantes ─────────────────────────────────────────────────────────

// flexDecimal acepta número, string ("12,50" incluido) o null.
type flexDecimal struct {
	decimal.Decimal
	set bool
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	d, err := parseDecimal(s)
	if err != nil {
		// valores ilegibles cuentan como ausentes
		return nil
	}
	f.Decimal, f.set = d, true
	return nil
}

func (f flexDecimal) null() decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: f.Decimal, Valid: f.set}
}

// flexString acepta string o número.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		*f = flexString(unq)
		return nil
	}
	*f = flexString(s)
	return nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.Replace(s, ",", ".", 1))
}
