package order

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-connector/internal/application/ports"
	"github.com/jhoicas/pos-connector/internal/domain"
	"github.com/jhoicas/pos-connector/internal/domain/entity"
	"github.com/jhoicas/pos-connector/internal/domain/repository"
)

// Mensajes visibles para el cajero.
const (
	MsgSessionExpired      = "session expired"
	MsgSubmissionInFlight  = "this order is already being validated"
	MsgOffline             = "order validation unavailable offline"
	MsgNoConnector         = "no active payment connector found"
	MsgConnectorNotFound   = "payment connector not found"
	MsgConnectorInactive   = "payment connector is not active"
	MsgConnectionOK        = "connection successful"
	MsgBadgeRequired       = "badge code is required"
	testConnectionOrderID  = "TEST_CONNECTION"
	testConnectionCustomer = "test@pos.com"
)

// Config parámetros del servicio.
type Config struct {
	DefaultCustomerEmail string
}

// Service construye pedidos normalizados y los envía al endpoint de validación del conector.
type Service struct {
	sessions     ports.SessionProvider
	connectivity ports.ConnectivityReader
	validator    ports.ValidationGateway
	badges       ports.BadgeGateway
	connectors   repository.ConnectorRepository
	history      repository.ValidationRepository
	cfg          Config
	log          zerolog.Logger
	now          func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}

	customerMu sync.RWMutex
	customer   *entity.CustomerProfile
}

// NewService construye el servicio. history puede ser nil (sin traza).
func NewService(
	sessions ports.SessionProvider,
	connectivity ports.ConnectivityReader,
	validator ports.ValidationGateway,
	badges ports.BadgeGateway,
	connectors repository.ConnectorRepository,
	history repository.ValidationRepository,
	cfg Config,
	log zerolog.Logger,
) *Service {
	if cfg.DefaultCustomerEmail == "" {
		cfg.DefaultCustomerEmail = entity.DefaultCustomerEmail
	}
	return &Service{
		sessions:     sessions,
		connectivity: connectivity,
		validator:    validator,
		badges:       badges,
		connectors:   connectors,
		history:      history,
		cfg:          cfg,
		log:          log,
		now:          time.Now,
		inflight:     make(map[string]struct{}),
	}
}

// BuildPayload normaliza el carrito. Sin email explícito usa el cliente del badge activo y,
// en su defecto, el email centinela configurado.
func (s *Service) BuildPayload(cart entity.Cart, customerEmail string) (*entity.OrderPayload, error) {
	if strings.TrimSpace(customerEmail) == "" {
		if c := s.ActiveCustomer(); c != nil {
			customerEmail = c.Email
		}
	}
	return BuildPayload(cart, customerEmail, s.cfg.DefaultCustomerEmail)
}

// ValidateCart atajo BuildPayload + Submit; los errores de construcción se devuelven como client_error.
func (s *Service) ValidateCart(ctx context.Context, connectorID string, cart entity.Cart, customerEmail string) entity.ValidationResult {
	payload, err := s.BuildPayload(cart, customerEmail)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return entity.Failed(domain.KindClientError, verr.Reason, nil)
		}
		return entity.Failed(domain.KindClientError, err.Error(), nil)
	}
	return s.Submit(ctx, connectorID, payload)
}

// Submit envía el pedido al conector indicado (o al primero activo).
// Requiere sesión autenticada vigente: si no la hay responde session_expired sin tocar la red.
// Un segundo envío del mismo pedido mientras el primero sigue en curso se rechaza.
func (s *Service) Submit(ctx context.Context, connectorID string, payload *entity.OrderPayload) entity.ValidationResult {
	if payload == nil || len(payload.Lines) == 0 {
		return entity.Failed(domain.KindClientError, ReasonNoLines, nil)
	}

	sess, err := s.sessions.ActiveSession(ctx)
	if err != nil {
		return entity.Failed(domain.KindSessionExpired, domain.MessageOf(err, MsgSessionExpired), nil)
	}

	if !s.acquire(payload.OrderID) {
		s.log.Warn().Str("order_id", payload.OrderID).Msg("reenvío rechazado: validación en curso")
		return entity.Failed(domain.KindClientError, MsgSubmissionInFlight, nil)
	}
	defer s.release(payload.OrderID)

	if sess.IsOffline() || !s.connectivity.Online() {
		return entity.Failed(domain.KindConnectionError, MsgOffline, nil)
	}

	connector, failure := s.resolveConnector(ctx, connectorID)
	if failure != nil {
		return *failure
	}

	logger := s.log.With().
		Str("order_id", payload.OrderID).
		Str("connector", connector.ID).
		Int("lines", len(payload.Lines)).
		Logger()
	logger.Info().Str("endpoint", connector.EndpointURL()).Msg("validando pedido")

	result := s.validator.Validate(ctx, connector, sess.Token, payload)

	if result.Success {
		logger.Info().Msg("pedido validado")
	} else {
		logger.Warn().Str("kind", string(result.ErrorKind)).Str("reason", result.Message).Msg("validación rechazada")
	}
	s.record(ctx, sess, connector, payload, result)
	return result
}

// TestConnection envía un pedido de prueba; solo los fallos de transporte cuentan como error.
func (s *Service) TestConnection(ctx context.Context, connectorID string) entity.ValidationResult {
	connector, failure := s.resolveConnector(ctx, connectorID)
	if failure != nil {
		return *failure
	}
	payload := &entity.OrderPayload{
		OrderID:       testConnectionOrderID,
		CustomerEmail: testConnectionCustomer,
		Lines:         []entity.OrderLine{{ProductID: 1, Quantity: decimal.NewFromInt(1)}},
	}
	token := ""
	if sess, err := s.sessions.ActiveSession(ctx); err == nil && !sess.IsOffline() {
		token = sess.Token
	}
	res := s.validator.Validate(ctx, connector, token, payload)
	if res.ErrorKind == domain.KindNetworkTimeout || res.ErrorKind == domain.KindConnectionError {
		return res
	}
	return entity.Succeeded(MsgConnectionOK, nil)
}

// Connectors lista de conectores (solo activos si activeOnly).
func (s *Service) Connectors(ctx context.Context, activeOnly bool) ([]*entity.Connector, error) {
	return s.connectors.List(ctx, activeOnly)
}

// History validaciones recientes.
func (s *Service) History(ctx context.Context, limit, offset int) ([]*entity.ValidationRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListRecent(ctx, limit, offset)
}

// LookupBadge resuelve el badge con el token del cajero y lo fija como cliente activo.
func (s *Service) LookupBadge(ctx context.Context, code string) (*entity.CustomerProfile, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewError(domain.KindClientError, MsgBadgeRequired, domain.ErrInvalidInput)
	}
	sess, err := s.sessions.ActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess.IsOffline() || !s.connectivity.Online() {
		return nil, domain.NewError(domain.KindConnectionError, MsgOffline, nil)
	}
	profile, err := s.badges.LookupBadge(ctx, sess.Token, code)
	if err != nil {
		s.log.Warn().Err(err).Str("badge", code).Msg("lectura de badge fallida")
		return nil, err
	}
	if profile.Badge == "" {
		profile.Badge = code
	}
	s.customerMu.Lock()
	c := *profile
	s.customer = &c
	s.customerMu.Unlock()
	s.log.Info().Str("badge", code).Str("customer", profile.Email).Msg("cliente activo")
	return profile, nil
}

// ActiveCustomer copia del cliente escaneado o nil.
func (s *Service) ActiveCustomer() *entity.CustomerProfile {
	s.customerMu.RLock()
	defer s.customerMu.RUnlock()
	if s.customer == nil {
		return nil
	}
	c := *s.customer
	return &c
}

// ClearCustomer olvida el cliente activo (pedido terminado o cajero desconectado).
func (s *Service) ClearCustomer() {
	s.customerMu.Lock()
	s.customer = nil
	s.customerMu.Unlock()
}

func (s *Service) resolveConnector(ctx context.Context, id string) (*entity.Connector, *entity.ValidationResult) {
	var (
		c   *entity.Connector
		err error
	)
	if id != "" {
		c, err = s.connectors.GetByID(ctx, id)
	} else {
		c, err = s.connectors.FirstActive(ctx)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("consultar conector")
		res := entity.Failed(domain.KindClientError, MsgNoConnector, nil)
		return nil, &res
	}
	if c == nil {
		msg := MsgNoConnector
		if id != "" {
			msg = MsgConnectorNotFound
		}
		res := entity.Failed(domain.KindClientError, msg, nil)
		return nil, &res
	}
	if !c.Active {
		res := entity.Failed(domain.KindClientError, MsgConnectorInactive, nil)
		return nil, &res
	}
	return c, nil
}

func (s *Service) acquire(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[orderID]; busy {
		return false
	}
	s.inflight[orderID] = struct{}{}
	return true
}

func (s *Service) release(orderID string) {
	s.mu.Lock()
	delete(s.inflight, orderID)
	s.mu.Unlock()
}

// record guarda la traza del envío; un fallo de persistencia no altera el resultado.
func (s *Service) record(ctx context.Context, sess *entity.Session, c *entity.Connector, p *entity.OrderPayload, res entity.ValidationResult) {
	if s.history == nil {
		return
	}
	rec := &entity.ValidationRecord{
		ID:            uuid.New().String(),
		OrderID:       p.OrderID,
		ConnectorID:   c.ID,
		CashierEmail:  sess.Cashier.Email,
		CustomerEmail: p.CustomerEmail,
		Success:       res.Success,
		ErrorKind:     string(res.ErrorKind),
		Message:       res.Message,
		CreatedAt:     s.now(),
	}
	if d := res.Details; d != nil {
		rec.TotalAmount = d.TotalAmount
		rec.EmployeeShare = d.EmployeeShare
		rec.EmployerShare = d.EmployerShare
		rec.TransactionID = d.TransactionID
	} else if f := res.Failure; f != nil {
		rec.TransactionID = f.TransactionID
	}
	if err := s.history.Create(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("order_id", p.OrderID).Msg("guardar traza de validación")
	}
}
