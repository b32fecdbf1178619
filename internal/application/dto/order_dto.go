package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// CartLineRequest línea del carrito enviada por la UI.
type CartLineRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ValidateOrderRequest pedido a validar. ConnectorID vacío = primer conector activo.
type ValidateOrderRequest struct {
	ConnectorID   string            `json:"connector_id"`
	Name          string            `json:"name"`
	UID           string            `json:"uid"`
	CustomerEmail string            `json:"customer_email"`
	Lines         []CartLineRequest `json:"lines"`
}

// ToCart convierte la petición al carrito de dominio.
func (r ValidateOrderRequest) ToCart() entity.Cart {
	cart := entity.Cart{Name: r.Name, UID: r.UID, Lines: make([]entity.CartLine, 0, len(r.Lines))}
	for _, l := range r.Lines {
		cart.Lines = append(cart.Lines, entity.CartLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return cart
}

// BadgeScanRequest código leído por el lector de badges.
type BadgeScanRequest struct {
	Code string `json:"code"`
}

// BeneficiaryResponse titular del badge según el backend de validación.
type BeneficiaryResponse struct {
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Category  string `json:"category,omitempty"`
}

// ArticleResponse línea del ticket con su subvención.
type ArticleResponse struct {
	ProductID              int64           `json:"product_id"`
	Name                   string          `json:"name"`
	Quantity               decimal.Decimal `json:"quantity"`
	UnitPrice              decimal.Decimal `json:"unit_price"`
	TotalAmount            decimal.Decimal `json:"total_amount"`
	Subsidy                decimal.Decimal `json:"subsidy"`
	EmployeeShare          decimal.Decimal `json:"employee_share"`
	QuantityWithSubsidy    decimal.Decimal `json:"quantity_with_subsidy"`
	QuantityWithoutSubsidy decimal.Decimal `json:"quantity_without_subsidy"`
}

// SubsidyResponse reparto empleado/empleador.
type SubsidyResponse struct {
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	EmployeeShare  decimal.Decimal     `json:"employee_share"`
	EmployerShare  decimal.Decimal     `json:"employer_share"`
	CurrentBalance decimal.Decimal     `json:"current_balance"`
	NewBalance     decimal.Decimal     `json:"new_balance"`
	TransactionID  string              `json:"transaction_id,omitempty"`
	Beneficiary    BeneficiaryResponse `json:"beneficiary"`
	Articles       []ArticleResponse   `json:"articles"`
}

// FailureResponse datos del rechazo.
type FailureResponse struct {
	StatusCode     int              `json:"status_code,omitempty"`
	RequiredAmount *decimal.Decimal `json:"required_amount,omitempty"`
	CurrentBalance *decimal.Decimal `json:"current_balance,omitempty"`
	TransactionID  string           `json:"transaction_id,omitempty"`
}

// ValidationResponse resultado de validar un pedido o de probar un conector.
type ValidationResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	ErrorKind string           `json:"error_kind,omitempty"`
	Details   *SubsidyResponse `json:"details,omitempty"`
	Failure   *FailureResponse `json:"failure,omitempty"`
}

// FromValidationResult convierte el resultado de dominio.
func FromValidationResult(r entity.ValidationResult) ValidationResponse {
	out := ValidationResponse{Success: r.Success, Message: r.Message, ErrorKind: string(r.ErrorKind)}
	if d := r.Details; d != nil {
		s := &SubsidyResponse{
			TotalAmount:    d.TotalAmount,
			EmployeeShare:  d.EmployeeShare,
			EmployerShare:  d.EmployerShare,
			CurrentBalance: d.CurrentBalance,
			NewBalance:     d.NewBalance,
			TransactionID:  d.TransactionID,
			Beneficiary: BeneficiaryResponse{
				FullName:  d.Beneficiary.FullName,
				FirstName: d.Beneficiary.FirstName,
				LastName:  d.Beneficiary.LastName,
				Email:     d.Beneficiary.Email,
				Category:  d.Beneficiary.Category,
			},
			Articles: make([]ArticleResponse, 0, len(d.Articles)),
		}
		for _, a := range d.Articles {
			s.Articles = append(s.Articles, ArticleResponse{
				ProductID:              a.ProductID,
				Name:                   a.Name,
				Quantity:               a.Quantity,
				UnitPrice:              a.UnitPrice,
				TotalAmount:            a.TotalAmount,
				Subsidy:                a.Subsidy,
				EmployeeShare:          a.EmployeeShare,
				QuantityWithSubsidy:    a.QuantityWithSubsidy,
				QuantityWithoutSubsidy: a.QuantityWithoutSubsidy,
			})
		}
		out.Details = s
	}
	if f := r.Failure; f != nil {
		fr := &FailureResponse{StatusCode: f.StatusCode, TransactionID: f.TransactionID}
		if f.RequiredAmount.Valid {
			v := f.RequiredAmount.Decimal
			fr.RequiredAmount = &v
		}
		if f.CurrentBalance.Valid {
			v := f.CurrentBalance.Decimal
			fr.CurrentBalance = &v
		}
		out.Failure = fr
	}
	return out
}

// ConnectorResponse conector de pagos.
type ConnectorResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	APIURL         string    `json:"api_url"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConnectorListResponse listado de conectores.
type ConnectorListResponse struct {
	Items []ConnectorResponse `json:"items"`
}

// FromConnectors convierte el listado.
func FromConnectors(list []*entity.Connector) ConnectorListResponse {
	out := ConnectorListResponse{Items: make([]ConnectorResponse, 0, len(list))}
	for _, c := range list {
		out.Items = append(out.Items, ConnectorResponse{
			ID:             c.ID,
			Name:           c.Name,
			APIURL:         c.APIURL,
			TimeoutSeconds: int(c.EffectiveTimeout().Seconds()),
			Active:         c.Active,
			CreatedAt:      c.CreatedAt,
		})
	}
	return out
}

// ValidationRecordResponse traza de un envío.
type ValidationRecordResponse struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	ConnectorID   string          `json:"connector_id"`
	CashierEmail  string          `json:"cashier_email"`
	CustomerEmail string          `json:"customer_email"`
	Success       bool            `json:"success"`
	ErrorKind     string          `json:"error_kind,omitempty"`
	Message       string          `json:"message"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	EmployeeShare decimal.Decimal `json:"employee_share"`
	EmployerShare decimal.Decimal `json:"employer_share"`
	TransactionID string          `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ValidationListResponse página de trazas.
type ValidationListResponse struct {
	Items []ValidationRecordResponse `json:"items"`
	Page  PageResponse               `json:"page"`
}

// FromValidationRecords convierte una página de trazas.
func FromValidationRecords(list []*entity.ValidationRecord, page PageRequest) ValidationListResponse {
	out := ValidationListResponse{
		Items: make([]ValidationRecordResponse, 0, len(list)),
		Page:  PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, r := range list {
		out.Items = append(out.Items, ValidationRecordResponse{
			ID:            r.ID,
			OrderID:       r.OrderID,
			ConnectorID:   r.ConnectorID,
			CashierEmail:  r.CashierEmail,
			CustomerEmail: r.CustomerEmail,
			Success:       r.Success,
			ErrorKind:     r.ErrorKind,
			Message:       r.Message,
			TotalAmount:   r.TotalAmount,
			EmployeeShare: r.EmployeeShare,
			EmployerShare: r.EmployerShare,
			TransactionID: r.TransactionID,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out
}
