package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-connector/internal/application/dto"
	"github.com/jhoicas/pos-connector/internal/domain"
)

// statusForKind código HTTP de cada categoría de fallo.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindClientError:
		return fiber.StatusBadRequest
	case domain.KindAuthRejected, domain.KindSessionExpired:
		return fiber.StatusUnauthorized
	case domain.KindEnrollmentCancelled:
		return fiber.StatusForbidden
	case domain.KindValidationError:
		return fiber.StatusUnprocessableEntity
	case domain.KindNetworkTimeout:
		return fiber.StatusGatewayTimeout
	case domain.KindConnectionError:
		return fiber.StatusServiceUnavailable
	case domain.KindServerError:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errorCode(kind domain.ErrorKind) string {
	return strings.ToUpper(string(kind))
}

// respondKind responde un fallo tipado con dto.ErrorResponse.
func respondKind(c *fiber.Ctx, kind domain.ErrorKind, message string) error {
	return c.Status(statusForKind(kind)).JSON(dto.ErrorResponse{Code: errorCode(kind), Message: message})
}

// respondError traduce un error de la capa de aplicación.
func respondError(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return respondKind(c, de.Kind, de.Message)
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: ve.Reason})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
