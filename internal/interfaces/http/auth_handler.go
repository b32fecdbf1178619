package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-connector/internal/application/auth"
	"github.com/jhoicas/pos-connector/internal/application/dto"
	"github.com/jhoicas/pos-connector/internal/domain"
)

// AuthHandler login online/offline, registro del PIN y ciclo de vida de la sesión.
type AuthHandler struct {
	mgr *auth.Manager
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(mgr *auth.Manager) *AuthHandler {
	return &AuthHandler{mgr: mgr}
}

func (h *AuthHandler) loginResponse(c *fiber.Ctx, res auth.LoginResult) error {
	if res.Status == auth.LoginFailed {
		return respondKind(c, res.ErrorKind, res.Message)
	}
	status := fiber.StatusOK
	if res.ErrorKind != "" {
		// intento de PIN rechazado: el registro sigue pendiente
		status = statusForKind(res.ErrorKind)
	}
	return c.Status(status).JSON(dto.LoginResponse{
		Status:       string(res.Status),
		State:        string(h.mgr.State()),
		Session:      dto.FromSession(res.Session),
		AttemptsLeft: res.AttemptsLeft,
		Message:      res.Message,
	})
}

// Login godoc
// @Summary      Iniciar sesión de cajero (password online, PIN offline)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, credential"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(in.Email) == "" || in.Credential == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: auth.MsgMissingCredentials})
	}
	return h.loginResponse(c, h.mgr.Login(c.UserContext(), in.Email, in.Credential))
}

// EnrollPIN godoc
// @Summary      Registrar el PIN offline obligatorio
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EnrollPINRequest  true  "pin, confirmation"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/offline-pin [post]
func (h *AuthHandler) EnrollPIN(c *fiber.Ctx) error {
	var in dto.EnrollPINRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.loginResponse(c, h.mgr.EnrollPIN(c.UserContext(), in.PIN, in.Confirmation))
}

// CancelEnrollment godoc
// @Summary      Cancelar el registro del PIN (cierra la sesión)
// @Tags         auth
// @Produce      json
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/auth/offline-pin [delete]
func (h *AuthHandler) CancelEnrollment(c *fiber.Ctx) error {
	res := h.mgr.CancelEnrollment(c.UserContext())
	if res.ErrorKind == domain.KindEnrollmentCancelled {
		return c.JSON(dto.LoginResponse{Status: string(res.Status), State: string(h.mgr.State()), Message: res.Message})
	}
	return h.loginResponse(c, res)
}

// Verify godoc
// @Summary      Revalidar la sesión persistida contra el backend
// @Tags         auth
// @Produce      json
// @Success      200   {object}  dto.LoginResponse
// @Router       /api/auth/verify [post]
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	h.mgr.VerifyExistingToken(c.UserContext())
	return h.Session(c)
}

// Logout godoc
// @Summary      Cerrar la sesión del cajero (los PIN offline se conservan)
// @Tags         auth
// @Success      204
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.mgr.Logout(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Session godoc
// @Summary      Estado de autenticación del terminal
// @Tags         auth
// @Produce      json
// @Success      200   {object}  dto.LoginResponse
// @Router       /api/auth/session [get]
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	state := h.mgr.State()
	out := dto.LoginResponse{State: string(state)}
	switch state {
	case auth.StateAuthenticated:
		sess, err := h.mgr.ActiveSession(c.UserContext())
		if err != nil {
			out.Status = string(auth.LoginFailed)
			out.State = string(h.mgr.State())
			out.Message = domain.MessageOf(err, auth.MsgNoSession)
			return c.JSON(out)
		}
		out.Status = string(auth.LoginAuthenticated)
		out.Session = dto.FromSession(sess)
	case auth.StatePendingPINEnrollment:
		out.Status = string(auth.LoginPendingEnrollment)
		out.Session = dto.FromSession(h.mgr.Session())
		out.AttemptsLeft = h.mgr.EnrollmentAttemptsLeft()
	default:
		out.Status = string(auth.LoginFailed)
		out.Message = auth.MsgNoSession
	}
	return c.JSON(out)
}
