package sales

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/permission"
	"github.com/saori-erp/saori-api/pkg/logger"
	"github.com/saori-erp/saori-api/pkg/metrics"
)

// VoidSaleUseCase cancela una venta: estado VOID y reingreso del stock en una transacción.
// Las líneas no se modifican.
type VoidSaleUseCase struct {
	txRunner TxRunner
	audit    AuditRecorder
	log      *logger.Logger
	metrics  *metrics.Metrics
	opts     Options
	now      func() time.Time
}

// NewVoidSaleUseCase construye el caso de uso.
func NewVoidSaleUseCase(txRunner TxRunner, audit AuditRecorder, log *logger.Logger, m *metrics.Metrics, opts Options) *VoidSaleUseCase {
	return &VoidSaleUseCase{
		txRunner: txRunner,
		audit:    audit,
		log:      log.Component("sales"),
		metrics:  m,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// VoidSale requiere sales:delete. Una venta ya cancelada devuelve domain.ErrAlreadyVoided.
func (uc *VoidSaleUseCase) VoidSale(ctx context.Context, actor dto.Actor, saleID, reason string) (*dto.SaleResponse, error) {
	if !permission.Has(permission.Role(actor.Role), permission.SalesDelete) {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(saleID) == "" {
		return nil, domain.ErrInvalidInput
	}

	txCtx, cancel := context.WithTimeout(ctx, uc.opts.CommitTimeout)
	defer cancel()

	var voided *entity.Sale
	err := withRetry(txCtx, uc.opts, uc.log, uc.metrics, func() error {
		return uc.txRunner.RunSale(txCtx, func(r Repos) error {
			s, err := r.Sales.GetByIDForUpdate(txCtx, saleID)
			if err != nil {
				return err
			}
			if s == nil {
				return domain.ErrNotFound
			}
			if s.IsVoid() {
				return fmt.Errorf("%w: %s", domain.ErrAlreadyVoided, s.Folio)
			}
			lines, err := r.Sales.GetLines(txCtx, s.ID)
			if err != nil {
				return err
			}

			// Orden fijo de productos para no cruzar candados con otra transacción
			sorted := append([]*entity.SaleLine(nil), lines...)
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

			now := uc.now()
			for _, l := range sorted {
				if _, err := r.Stock.Increment(txCtx, l.ProductID, s.BranchID, l.Quantity); err != nil {
					return err
				}
				if err := r.Movements.Create(txCtx, &entity.InventoryMovement{
					ReferenceID: s.ID,
					ProductID:   l.ProductID,
					BranchID:    s.BranchID,
					Type:        entity.MovementTypeVoid,
					Quantity:    l.Quantity,
					CreatedBy:   actor.UserID,
					CreatedAt:   now,
				}); err != nil {
					return err
				}
			}
			if err := r.Sales.MarkVoid(txCtx, s.ID); err != nil {
				return err
			}
			s.Status = entity.SaleStatusVoid
			s.VoidedAt = &now
			s.Lines = lines
			voided = s
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("folio", voided.Folio).Str("user_id", actor.UserID).Msg("venta cancelada")

	auditCtx, cancelAudit := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancelAudit()
	details := map[string]any{"folio": voided.Folio, "total": voided.Total}
	if reason = strings.TrimSpace(reason); reason != "" {
		details["reason"] = reason
	}
	_ = uc.audit.Append(auditCtx, actor.UserID, entity.ActionDeleteSale, "Sale", voided.ID, details)

	resp := toSaleResponse(voided)
	return &resp, nil
}
