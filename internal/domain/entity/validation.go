package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-connector/internal/domain"
)

// ValidationResult resultado de validar un pedido: éxito con detalle de subvención o fallo tipado.
type ValidationResult struct {
	Success   bool
	Message   string
	ErrorKind domain.ErrorKind // vacío cuando Success
	Details   *SubsidyDetails  // solo en éxito
	Failure   *FailureDetails  // solo en fallo (opcional)
}

// Succeeded construye un resultado exitoso.
func Succeeded(message string, details *SubsidyDetails) ValidationResult {
	return ValidationResult{Success: true, Message: message, Details: details}
}

// Failed construye un resultado fallido.
func Failed(kind domain.ErrorKind, message string, details *FailureDetails) ValidationResult {
	return ValidationResult{Success: false, Message: message, ErrorKind: kind, Failure: details}
}

// SubsidyDetails reparto empleado/empleador devuelto por el backend de validación.
type SubsidyDetails struct {
	TotalAmount    decimal.Decimal
	EmployeeShare  decimal.Decimal // partSalariale (amountCharged)
	EmployerShare  decimal.Decimal // partPatronale
	CurrentBalance decimal.Decimal
	NewBalance     decimal.Decimal
	TransactionID  string
	Beneficiary    Beneficiary
	Articles       []Article
}

// Beneficiary titular del badge según el backend.
type Beneficiary struct {
	LastName  string
	FirstName string
	Email     string
	Category  string
	FullName  string
}

// Article línea del ticket con su subvención.
type Article struct {
	ProductID              int64
	Name                   string
	Quantity               decimal.Decimal
	UnitPrice              decimal.Decimal
	TotalAmount            decimal.Decimal
	Subsidy                decimal.Decimal
	EmployeeShare          decimal.Decimal
	QuantityWithSubsidy    decimal.Decimal
	QuantityWithoutSubsidy decimal.Decimal
}

// FailureDetails datos opcionales de un rechazo.
type FailureDetails struct {
	StatusCode     int
	RequiredAmount decimal.NullDecimal
	CurrentBalance decimal.NullDecimal
	TransactionID  string
}

// ValidationRecord traza persistida de cada envío de pedido.
type ValidationRecord struct {
	ID            string
	OrderID       string
	ConnectorID   string
	CashierEmail  string
	CustomerEmail string
	Success       bool
	ErrorKind     string
	Message       string
	TotalAmount   decimal.Decimal
	EmployeeShare decimal.Decimal
	EmployerShare decimal.Decimal
	TransactionID string
	CreatedAt     time.Time
}
