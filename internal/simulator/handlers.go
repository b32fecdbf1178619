package simulator

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/pkg/jwt"
)

const (
	localEmail = "sim_email"

	testConnectionOrderID = "TEST_CONNECTION"
)

// App construye la aplicación Fiber del simulador.
func (b *Backend) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true, AppName: "backend-sim"})
	app.Use(recover.New(), b.withLatency)

	api := app.Group("/api")
	api.Get("/health", b.health)
	api.Post("/auth/login", b.login)
	api.Get("/auth/me", b.requireToken, b.account)
	api.Get("/badges/:code", b.requireToken, b.badge)
	api.Post("/payments/v2/validate", b.validate)
	return app
}

func (b *Backend) withLatency(c *fiber.Ctx) error {
	if d := time.Duration(b.latency.Load()); d > 0 {
		time.Sleep(d)
	}
	return c.Next()
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": message})
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func (b *Backend) health(c *fiber.Ctx) error {
	if !b.healthy.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "DOWN"})
	}
	return c.JSON(fiber.Map{"status": "UP"})
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b *Backend) login(c *fiber.Ctx) error {
	var in loginBody
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return fail(c, fiber.StatusBadRequest, "email and password are required")
	}
	u, err := b.checkPassword(in.Email, in.Password)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	tok, err := jwt.Generate(b.cfg.JWTSecret, u.Email, u.Role, b.cfg.Issuer, b.cfg.TokenTTL)
	if err != nil {
		b.log.Error().Err(err).Msg("simulator: firmar token")
		return fail(c, fiber.StatusInternalServerError, "token generation failed")
	}
	return c.JSON(fiber.Map{"status": "success", "token": tok})
}

// requireToken valida el Bearer y deja el email en Locals.
func (b *Backend) requireToken(c *fiber.Ctx) error {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return fail(c, fiber.StatusUnauthorized, "missing bearer token")
	}
	email, _, err := jwt.Parse(b.cfg.JWTSecret, strings.TrimSpace(parts[1]))
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "invalid or expired token")
	}
	c.Locals(localEmail, email)
	return c.Next()
}

// account devuelve el rol vigente de la cuenta, no el del token.
func (b *Backend) account(c *fiber.Ctx) error {
	email, _ := c.Locals(localEmail).(string)
	u, ok := b.user(email)
	if !ok {
		return fail(c, fiber.StatusNotFound, "account not found")
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"email":  u.Email,
			"nom":    u.LastName,
			"prenom": u.FirstName,
			"role":   u.Role,
		},
	})
}

func (b *Backend) badge(c *fiber.Ctx) error {
	ben, ok := b.beneficiary(c.Params("code"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Badge not found")
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"badge":     ben.Badge,
			"email":     ben.Email,
			"nom":       ben.LastName,
			"prenom":    ben.FirstName,
			"categorie": ben.Category,
			"solde":     money(ben.Balance),
		},
	})
}

type validateBody struct {
	OrderID  string `json:"orderId"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
	Items []struct {
		ProductID int64       `json:"productId"`
		Quantity  json.Number `json:"quantity"`
	} `json:"items"`
}

func (b *Backend) validate(c *fiber.Ctx) error {
	var in validateBody
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if in.OrderID == testConnectionOrderID {
		return c.JSON(fiber.Map{"status": "success", "valide": true, "message": "Connection OK"})
	}
	if in.OrderID == "" || len(in.Items) == 0 {
		return fail(c, fiber.StatusBadRequest, "orderId and items are required")
	}

	items := make([]quoteItem, 0, len(in.Items))
	for _, it := range in.Items {
		qty, err := decimal.NewFromString(it.Quantity.String())
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid quantity")
		}
		items = append(items, quoteItem{productID: it.ProductID, qty: qty})
	}
	q, err := b.price(items)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if tx, done := b.processed[in.OrderID]; done {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status": "error", "message": "Order already validated", "transactionId": tx,
		})
	}
	ben, ok := b.byEmail[entity.NormalizeEmail(in.Customer.Email)]
	if !ok {
		return fail(c, fiber.StatusNotFound, "Unknown beneficiary")
	}

	txID := uuid.New().String()
	if q.employee.GreaterThan(ben.Balance) {
		b.log.Info().Str("order_id", in.OrderID).Str("customer", ben.Email).Msg("simulator: saldo insuficiente")
		return c.JSON(fiber.Map{
			"status":          "error",
			"valide":          false,
			"message":         "Solde insuffisant",
			"errorType":       "insufficient_funds",
			"required_amount": money(q.employee),
			"current_balance": money(ben.Balance),
			"transactionId":   txID,
		})
	}

	previous := ben.Balance
	ben.Balance = ben.Balance.Sub(q.employee)
	b.processed[in.OrderID] = txID

	articles := make([]fiber.Map, 0, len(q.lines))
	for _, l := range q.lines {
		articles = append(articles, fiber.Map{
			"odooId":                 l.product.ID,
			"nom":                    l.product.Name,
			"quantite":               json.Number(l.qty.String()),
			"prixUnitaire":           money(l.product.Price),
			"montantTotal":           money(l.total),
			"subventionTotale":       money(l.subsidy),
			"partSalariale":          money(l.employee),
			"quantiteAvecSubvention": json.Number(l.qtyWith.String()),
			"quantiteSansSubvention": json.Number(l.qtyWithout.String()),
		})
	}
	b.log.Info().Str("order_id", in.OrderID).Str("transaction_id", txID).Msg("simulator: pedido validado")
	return c.JSON(fiber.Map{
		"status":                "success",
		"valide":                true,
		"message":               "Paiement validé",
		"amountCharged":         money(q.employee),
		"remainingBalance":      money(ben.Balance),
		"montantTotal":          money(q.total),
		"partPatronale":         money(q.subsidy),
		"soldeActuel":           money(previous),
		"utilisateurNom":        ben.LastName,
		"utilisateurPrenom":     ben.FirstName,
		"utilisateurEmail":      ben.Email,
		"utilisateurCategorie":  ben.Category,
		"utilisateurNomComplet": strings.TrimSpace(ben.FirstName + " " + ben.LastName),
		"transactionId":         txID,
		"articles":              articles,
	})
}
