package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saori-erp/saori-api/internal/application/dto"
)

// InventoryHandler ajustes explícitos de inventario (protegido).
type InventoryHandler struct {
	uc CatalogService
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc CatalogService) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// Adjust godoc
// @Summary      Ajustar existencia
// @Description  Suma o resta unidades en la sucursal del usuario. Nunca deja el stock en negativo.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockAdjustmentRequest  true  "productId, delta, reason"
// @Success      200   {object}  dto.StockAdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.StockAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AdjustStock(c.UserContext(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
