package http

import (
	"github.com/gofiber/fiber/v2"
)

// LogHandler expone la bitácora de actividad.
type LogHandler struct {
	uc LogLister
}

// NewLogHandler construye el handler.
func NewLogHandler(uc LogLister) *LogHandler {
	return &LogHandler{uc: uc}
}

// List godoc
// @Summary      Bitácora de actividad
// @Description  Entradas más recientes primero, con mensaje legible. Requiere logs:read.
// @Tags         logs
// @Security     Bearer
// @Produce      json
// @Param        page   query  int  false  "Página (1-based)"
// @Param        limit  query  int  false  "Tamaño de página (máx. 100)"
// @Success      200  {object}  dto.LogListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/logs [get]
func (h *LogHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetActor(c), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
