package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saori-erp/saori-api/internal/application/dto"
)

// Headers de idempotencia de POST /api/sales.
const (
	HeaderIdempotencyKey      = "Idempotency-Key"
	HeaderIdempotencyReplayed = "X-Idempotency-Replayed"
)

// SaleHandler maneja las peticiones HTTP de ventas (protegido).
type SaleHandler struct {
	create SaleCreator
	void   SaleVoider
	query  SaleQuerier
}

// NewSaleHandler construye el handler.
func NewSaleHandler(create SaleCreator, void SaleVoider, query SaleQuerier) *SaleHandler {
	return &SaleHandler{create: create, void: void, query: query}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Calcula totales, asigna folio, descuenta stock y registra la venta en una sola transacción.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                  false  "Llave de idempotencia (máx. 128)"
// @Param        body             body    dto.CreateSaleRequest   true   "Venta"
// @Success      200  {object}  dto.CreateSaleResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Failure      504  {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	in.IdempotencyKey = strings.TrimSpace(c.Get(HeaderIdempotencyKey))

	out, err := h.create.CreateSale(c.UserContext(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	if out.Replayed {
		c.Set(HeaderIdempotencyReplayed, "true")
	}
	return c.JSON(dto.CreateSaleResponse{Success: true, Sale: *out})
}

// List godoc
// @Summary      Listar ventas de la sucursal
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        page   query  int  false  "Página (1-based)"
// @Param        limit  query  int  false  "Tamaño de página (máx. 100)"
// @Success      200  {object}  dto.SaleListResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	out, err := h.query.ListSales(c.UserContext(), GetActor(c), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de una venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.query.GetSale(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Ticket godoc
// @Summary      Ticket PDF de una venta
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/ticket.pdf [get]
func (h *SaleHandler) Ticket(c *fiber.Ctx) error {
	pdf, name, err := h.query.TicketPDF(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", name))
	return c.Send(pdf)
}

// Void godoc
// @Summary      Cancelar venta
// @Description  Marca la venta como cancelada y devuelve el stock a la sucursal. Solo ADMIN.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true   "ID de la venta"
// @Param        body  body  dto.VoidSaleRequest  false  "Motivo"
// @Success      200  {object}  dto.SaleResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [delete]
func (h *SaleHandler) Void(c *fiber.Ctx) error {
	var in dto.VoidSaleRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.void.VoidSale(c.UserContext(), GetActor(c), c.Params("id"), strings.TrimSpace(in.Reason))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// pageFrom lee page/limit; la normalización la hace el caso de uso.
func pageFrom(c *fiber.Ctx) dto.PageRequest {
	return dto.PageRequest{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", dto.DefaultLimit),
	}
}
