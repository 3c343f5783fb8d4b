package sales

import (
	"context"
	"fmt"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/permission"
	"github.com/saori-erp/saori-api/internal/domain/repository"
)

// QueryUseCase consultas de ventas y ticket PDF.
type QueryUseCase struct {
	saleRepo repository.SaleRepository
	renderer TicketRenderer
}

// NewQueryUseCase construye el caso de uso. renderer puede ser nil si no se expone el PDF.
func NewQueryUseCase(saleRepo repository.SaleRepository, renderer TicketRenderer) *QueryUseCase {
	return &QueryUseCase{saleRepo: saleRepo, renderer: renderer}
}

// GetSale detalle de una venta con líneas. Fuera de su sucursal solo la ve ADMIN.
func (uc *QueryUseCase) GetSale(ctx context.Context, actor dto.Actor, id string) (*dto.SaleResponse, error) {
	s, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := toSaleResponse(s)
	return &resp, nil
}

// ListSales ventas de la sucursal del actor, más recientes primero.
func (uc *QueryUseCase) ListSales(ctx context.Context, actor dto.Actor, page dto.PageRequest) (*dto.SaleListResponse, error) {
	if !permission.Has(permission.Role(actor.Role), permission.SalesRead) {
		return nil, domain.ErrForbidden
	}
	if actor.BranchID == "" {
		return nil, fmt.Errorf("%w: el usuario no tiene sucursal asignada", domain.ErrInvalidInput)
	}
	page = page.Normalize()
	list, total, err := uc.saleRepo.ListByBranch(ctx, actor.BranchID, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("%w: listar ventas: %v", domain.ErrPersistence, err)
	}
	out := &dto.SaleListResponse{
		Sales:      make([]dto.SaleResponse, 0, len(list)),
		Pagination: dto.NewPagination(page, total),
	}
	for _, s := range list {
		out.Sales = append(out.Sales, toSaleResponse(s))
	}
	return out, nil
}

// TicketPDF genera el ticket de la venta. Devuelve bytes y nombre de archivo.
func (uc *QueryUseCase) TicketPDF(ctx context.Context, actor dto.Actor, id string) ([]byte, string, error) {
	if uc.renderer == nil {
		return nil, "", fmt.Errorf("%w: generador de tickets no configurado", domain.ErrPersistence)
	}
	s, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.renderer.RenderTicket(s)
	if err != nil {
		return nil, "", fmt.Errorf("generar ticket %s: %w", s.Folio, err)
	}
	return pdf, fmt.Sprintf("ticket-%s.pdf", s.Folio), nil
}

func (uc *QueryUseCase) load(ctx context.Context, actor dto.Actor, id string) (*entity.Sale, error) {
	if !permission.Has(permission.Role(actor.Role), permission.SalesRead) {
		return nil, domain.ErrForbidden
	}
	s, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: obtener venta: %v", domain.ErrPersistence, err)
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if permission.Role(actor.Role) != permission.RoleAdmin && s.BranchID != actor.BranchID {
		return nil, domain.ErrNotFound
	}
	lines, err := uc.saleRepo.GetLines(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: obtener líneas: %v", domain.ErrPersistence, err)
	}
	s.Lines = lines
	return s, nil
}

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	resp := dto.SaleResponse{
		ID:            s.ID,
		Folio:         s.Folio,
		UserID:        s.UserID,
		UserName:      s.UserName,
		BranchID:      s.BranchID,
		BranchName:    s.BranchName,
		CustomerID:    s.CustomerID,
		Subtotal:      s.Subtotal,
		Tax:           s.TaxAmount,
		Discount:      s.Discount,
		Total:         s.Total,
		PaymentMethod: s.PaymentMethod,
		AmountPaid:    s.AmountPaid,
		Change:        s.Change,
		Status:        s.Status,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt,
		VoidedAt:      s.VoidedAt,
	}
	for _, l := range s.Lines {
		resp.Items = append(resp.Items, dto.SaleLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			ProductCode: l.ProductCode,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Discount:    l.DiscountPercent,
			Subtotal:    l.Subtotal,
		})
	}
	return resp
}
