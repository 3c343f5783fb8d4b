package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/permission"
	"github.com/saori-erp/saori-api/internal/domain/repository"
)

// AdjustStock aplica un ajuste con signo a la existencia de la sucursal del actor.
// Bloquea la fila (SELECT FOR UPDATE) y nunca deja la existencia por debajo de cero.
func (uc *ProductUseCase) AdjustStock(ctx context.Context, actor dto.Actor, in dto.StockAdjustmentRequest) (*dto.StockAdjustmentResponse, error) {
	if !permission.Has(permission.Role(actor.Role), permission.ProductsUpdate) {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(in.ProductID) == "" || in.Delta == 0 {
		return nil, fmt.Errorf("%w: producto y ajuste distinto de cero son obligatorios", domain.ErrInvalidInput)
	}
	if actor.BranchID == "" {
		return nil, fmt.Errorf("%w: el usuario no tiene sucursal asignada", domain.ErrInvalidInput)
	}

	var (
		product *entity.Product
		level   *entity.StockLevel
	)
	now := uc.now()
	adjustmentID := uuid.New().String()

	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		p, err := productRepo.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p == nil || !p.Active {
			return domain.ErrNotFound
		}
		product = p

		current, err := stockRepo.GetForUpdate(ctx, in.ProductID, actor.BranchID)
		if err != nil {
			return err
		}
		qty := 0
		if current != nil {
			qty = current.Quantity
		}
		if qty+in.Delta < 0 {
			return fmt.Errorf("%w: %s disponible %d, ajuste %d", domain.ErrInsufficientStock, p.Name, qty, in.Delta)
		}

		level, err = stockRepo.Increment(ctx, in.ProductID, actor.BranchID, in.Delta)
		if err != nil {
			return err
		}
		return movRepo.Create(ctx, &entity.InventoryMovement{
			ReferenceID: adjustmentID,
			ProductID:   in.ProductID,
			BranchID:    actor.BranchID,
			Type:        entity.MovementTypeAdjustment,
			Quantity:    in.Delta,
			CreatedBy:   actor.UserID,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("product_id", in.ProductID).Int("delta", in.Delta).Int("quantity", level.Quantity).Msg("ajuste de inventario")
	details := map[string]any{
		"productName": product.Name,
		"delta":       in.Delta,
		"quantity":    level.Quantity,
	}
	if r := strings.TrimSpace(in.Reason); r != "" {
		details["reason"] = r
	}
	_ = uc.audit.Append(ctx, actor.UserID, entity.ActionAdjustStock, "Product", in.ProductID, details)

	return &dto.StockAdjustmentResponse{ProductID: in.ProductID, BranchID: actor.BranchID, Quantity: level.Quantity}, nil
}
