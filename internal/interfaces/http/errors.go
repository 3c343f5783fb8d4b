package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain"
)

// localErr guarda el error original para que RequestLogger lo registre.
const localErr = "handler_error"

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // vacío = err.Error()
}

// El orden importa: un error puede envolver varios sentinels.
var errorTable = []errorMapping{
	{domain.ErrOutcomeUnknown, fiber.StatusGatewayTimeout, "OUTCOME_UNKNOWN", domain.ErrOutcomeUnknown.Error()},
	{domain.ErrInvalidOrder, fiber.StatusBadRequest, "INVALID_ORDER", ""},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", ""},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", ""},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", ""},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", ""},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", ""},
	{domain.ErrAlreadyVoided, fiber.StatusConflict, "ALREADY_VOIDED", ""},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE", ""},
	{domain.ErrConflictRetryable, fiber.StatusServiceUnavailable, "CONFLICT_RETRY", "el sistema está ocupado, intente de nuevo"},
}

// writeError traduce un error de caso de uso a {code, message}.
// Persistencia y errores no previstos responden 500 sin detalle interno.
func writeError(c *fiber.Ctx, err error) error {
	c.Locals(localErr, err)
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			if m.status == fiber.StatusServiceUnavailable {
				c.Set(fiber.HeaderRetryAfter, "1")
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: msg})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Code:    "INTERNAL",
		Message: "error interno, intente más tarde",
	})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo JSON inválido"})
}
