package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-connector/internal/application/connectivity"
	"github.com/jhoicas/pos-connector/internal/application/dto"
)

// ConnectivityHandler expone el estado del Monitor.
type ConnectivityHandler struct {
	monitor *connectivity.Monitor
}

// NewConnectivityHandler construye el handler.
func NewConnectivityHandler(monitor *connectivity.Monitor) *ConnectivityHandler {
	return &ConnectivityHandler{monitor: monitor}
}

func (h *ConnectivityHandler) response() dto.ConnectivityResponse {
	st := h.monitor.Status()
	out := dto.ConnectivityResponse{
		Online:              st.Online,
		LastError:           st.LastError,
		ConsecutiveFailures: st.ConsecutiveFailures,
		Monitoring:          h.monitor.Running(),
	}
	if !st.LastCheck.IsZero() {
		t := st.LastCheck
		out.LastCheck = &t
	}
	return out
}

// Status godoc
// @Summary      Estado online/offline del backend
// @Tags         connectivity
// @Produce      json
// @Success      200  {object}  dto.ConnectivityResponse
// @Router       /api/connectivity [get]
func (h *ConnectivityHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.response())
}

// Check godoc
// @Summary      Forzar un sondeo inmediato del backend
// @Tags         connectivity
// @Produce      json
// @Success      200  {object}  dto.ConnectivityResponse
// @Router       /api/connectivity/check [post]
func (h *ConnectivityHandler) Check(c *fiber.Ctx) error {
	h.monitor.CheckNow(c.UserContext())
	return c.JSON(h.response())
}
