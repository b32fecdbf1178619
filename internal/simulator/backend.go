// Package simulator implementa un backend de demostración compatible con el protocolo remoto
// del terminal: login, cuenta, badges, salud y /v2/validate con cálculo de subvenciones.
package simulator

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pos-connector/internal/domain"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
)

// Config parámetros del simulador.
type Config struct {
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// User cuenta de cajero del backend.
type User struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
}

// Beneficiary titular de un badge con su saldo de subvención.
type Beneficiary struct {
	Badge     string
	Email     string
	FirstName string
	LastName  string
	Category  string
	Balance   decimal.Decimal
}

// Product artículo del catálogo con su subvención por unidad.
// SubsidizedQty limita las unidades subvencionadas por pedido (0 = sin límite).
type Product struct {
	ID             int64
	Name           string
	Price          decimal.Decimal
	SubsidyPerUnit decimal.Decimal
	SubsidizedQty  int64
}

// Backend estado en memoria del simulador.
type Backend struct {
	cfg Config
	log zerolog.Logger

	mu        sync.Mutex
	users     map[string]User
	badges    map[string]*Beneficiary
	byEmail   map[string]*Beneficiary
	products  map[int64]Product
	processed map[string]string // orderId → transactionId

	healthy atomic.Bool
	latency atomic.Int64
}

// New construye un backend vacío y sano.
func New(cfg Config, log zerolog.Logger) *Backend {
	if cfg.Issuer == "" {
		cfg.Issuer = "backend-sim"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 8 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	b := &Backend{
		cfg:       cfg,
		log:       log,
		users:     make(map[string]User),
		badges:    make(map[string]*Beneficiary),
		byEmail:   make(map[string]*Beneficiary),
		products:  make(map[int64]Product),
		processed: make(map[string]string),
	}
	b.healthy.Store(true)
	return b
}

// AddUser registra una cuenta con la contraseña hasheada con bcrypt.
func (b *Backend) AddUser(email, password, firstName, lastName, role string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return domain.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cfg.BcryptCost)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.users[entity.NormalizeEmail(email)] = User{
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
	}
	b.mu.Unlock()
	return nil
}

// SetRole cambia el rol de una cuenta existente.
func (b *Backend) SetRole(email, role string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := entity.NormalizeEmail(email)
	u, ok := b.users[key]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	b.users[key] = u
	return nil
}

// AddBeneficiary registra un badge.
func (b *Backend) AddBeneficiary(ben Beneficiary) {
	c := ben
	b.mu.Lock()
	b.badges[ben.Badge] = &c
	b.byEmail[entity.NormalizeEmail(ben.Email)] = &c
	b.mu.Unlock()
}

// AddProduct registra un artículo del catálogo.
func (b *Backend) AddProduct(p Product) {
	b.mu.Lock()
	b.products[p.ID] = p
	b.mu.Unlock()
}

// Balance saldo actual del beneficiario.
func (b *Backend) Balance(email string) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ben, ok := b.byEmail[entity.NormalizeEmail(email)]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	return ben.Balance, nil
}

// SetHealthy controla la respuesta de /api/health.
func (b *Backend) SetHealthy(ok bool) { b.healthy.Store(ok) }

// SetLatency retrasa todas las respuestas.
func (b *Backend) SetLatency(d time.Duration) { b.latency.Store(int64(d)) }

func (b *Backend) checkPassword(email, password string) (User, error) {
	b.mu.Lock()
	u, ok := b.users[entity.NormalizeEmail(email)]
	b.mu.Unlock()
	if !ok {
		return User{}, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, domain.ErrUnauthorized
	}
	return u, nil
}

func (b *Backend) user(email string) (User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[entity.NormalizeEmail(email)]
	return u, ok
}

func (b *Backend) beneficiary(code string) (Beneficiary, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ben, ok := b.badges[code]
	if !ok {
		return Beneficiary{}, false
	}
	return *ben, true
}

// Seed carga datos de demostración.
func Seed(b *Backend) error {
	users := []struct{ email, pw, first, last, role string }{
		{"cashier@pos.com", "cashier123", "Camille", "Durand", entity.RoleCaissier},
		{"admin@pos.com", "admin123", "Alex", "Martin", entity.RoleAdmin},
		{"viewer@pos.com", "viewer123", "Val", "Petit", "VIEWER"},
	}
	for _, u := range users {
		if err := b.AddUser(u.email, u.pw, u.first, u.last, u.role); err != nil {
			return errors.Join(errors.New("simulator: seed usuarios"), err)
		}
	}
	b.AddBeneficiary(Beneficiary{Badge: "B-0001", Email: "marie.dupont@corp.fr", FirstName: "Marie", LastName: "Dupont", Category: "CDI", Balance: decimal.NewFromInt(50)})
	b.AddBeneficiary(Beneficiary{Badge: "B-0002", Email: "paul.bernard@corp.fr", FirstName: "Paul", LastName: "Bernard", Category: "STAGIAIRE", Balance: decimal.RequireFromString("2.50")})
	b.AddProduct(Product{ID: 1, Name: "Menu du jour", Price: decimal.RequireFromString("9.50"), SubsidyPerUnit: decimal.RequireFromString("4.75"), SubsidizedQty: 1})
	b.AddProduct(Product{ID: 2, Name: "Salade", Price: decimal.RequireFromString("6.20"), SubsidyPerUnit: decimal.RequireFromString("2.00")})
	b.AddProduct(Product{ID: 3, Name: "Café", Price: decimal.RequireFromString("1.30")})
	return nil
}
