package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain/permission"
)

// RequirePermission devuelve un middleware que exige el permiso p al rol del token.
// Debe usarse DESPUÉS de AuthMiddleware (necesita LocalRole).
//
// Comportamiento:
//   - 401 si no hay rol en el contexto.
//   - 403 si el rol no tiene el permiso (o no es un rol conocido).
//
// Los casos de uso vuelven a verificar el permiso; este filtro corta antes de leer el cuerpo.
func RequirePermission(p permission.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := GetRole(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "rol no encontrado en el token",
			})
		}
		role, _ := permission.ParseRole(raw)
		if !permission.Has(role, p) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "se requiere el permiso '" + string(p) + "'",
			})
		}
		return c.Next()
	}
}
