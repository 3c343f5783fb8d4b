package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/permission"
	"github.com/saori-erp/saori-api/internal/domain/sale"
	"github.com/saori-erp/saori-api/pkg/logger"
	"github.com/saori-erp/saori-api/pkg/metrics"
)

// auditTimeout límite para escribir la bitácora después del commit.
const auditTimeout = 5 * time.Second

// maxIdempotencyKeyLen largo máximo aceptado para Idempotency-Key.
const maxIdempotencyKeyLen = 128

var hundred = decimal.NewFromInt(100)

// CreateSaleUseCase registra una venta: totales, folio, líneas y descuento de stock en una sola transacción.
type CreateSaleUseCase struct {
	txRunner TxRunner
	audit    AuditRecorder
	log      *logger.Logger
	metrics  *metrics.Metrics
	opts     Options
	now      func() time.Time
}

// NewCreateSaleUseCase construye el caso de uso.
func NewCreateSaleUseCase(
	txRunner TxRunner,
	audit AuditRecorder,
	log *logger.Logger,
	m *metrics.Metrics,
	opts Options,
) *CreateSaleUseCase {
	return &CreateSaleUseCase{
		txRunner: txRunner,
		audit:    audit,
		log:      log.Component("sales"),
		metrics:  m,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// validated solicitud ya revisada, lista para la transacción.
type validated struct {
	lines  []sale.LineInput
	method sale.PaymentMethod
	totals sale.Totals
}

// CreateSale valida, calcula totales y ejecuta la unidad de trabajo con reintentos ante conflictos.
// Si la solicitud trae llave de idempotencia y ya existe una venta del mismo usuario con esa llave,
// devuelve esa venta (Replayed=true) sin efectos nuevos.
func (uc *CreateSaleUseCase) CreateSale(ctx context.Context, actor dto.Actor, in dto.CreateSaleRequest) (*dto.SaleResult, error) {
	start := time.Now()
	res, err := uc.createSale(ctx, actor, in)
	uc.metrics.SaleCommitDuration.WithLabelValues(outcome(res, err)).Observe(time.Since(start).Seconds())
	return res, err
}

func (uc *CreateSaleUseCase) createSale(ctx context.Context, actor dto.Actor, in dto.CreateSaleRequest) (*dto.SaleResult, error) {
	// 1. Permiso y validación: sin efectos
	if !permission.Has(permission.Role(actor.Role), permission.SalesCreate) {
		return nil, domain.ErrForbidden
	}
	v, err := validate(actor, in)
	if err != nil {
		return nil, err
	}

	// 2. Unidad de trabajo con reintentos
	txCtx, cancel := context.WithTimeout(ctx, uc.opts.CommitTimeout)
	defer cancel()

	var (
		saved    *entity.Sale
		replayed bool
	)
	err = withRetry(txCtx, uc.opts, uc.log, uc.metrics, func() error {
		var err error
		saved, replayed, err = uc.commit(txCtx, actor, in, v)
		return err
	})
	if err != nil {
		uc.logFailure(actor, err)
		return nil, err
	}

	result := &dto.SaleResult{
		ID:        saved.ID,
		Folio:     saved.Folio,
		Total:     saved.Total,
		Change:    saved.Change,
		Timestamp: saved.CreatedAt,
		Replayed:  replayed,
	}
	if replayed {
		uc.log.Info().Str("folio", saved.Folio).Str("user_id", actor.UserID).Msg("venta repetida por llave de idempotencia")
		return result, nil
	}

	uc.metrics.SalesCommitted.Inc()
	uc.log.Info().
		Str("folio", saved.Folio).
		Str("sale_id", saved.ID).
		Str("branch_id", saved.BranchID).
		Str("total", saved.Total.StringFixed(sale.MoneyPlaces)).
		Int("items", len(v.lines)).
		Msg("venta registrada")

	// 3. Bitácora después del commit: un fallo se registra y se cuenta, la venta queda.
	auditCtx, cancelAudit := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancelAudit()
	_ = uc.audit.Append(auditCtx, actor.UserID, entity.ActionCreateSale, "Sale", saved.ID, map[string]any{
		"ticketCode":    saved.Folio,
		"folio":         saved.Folio,
		"total":         saved.Total,
		"lineCount":     len(v.lines),
		"items":         len(v.lines),
		"paymentMethod": saved.PaymentMethod,
	})

	return result, nil
}

// commit un intento completo. Todo lo que cambia va dentro de RunSale.
func (uc *CreateSaleUseCase) commit(ctx context.Context, actor dto.Actor, in dto.CreateSaleRequest, v validated) (*entity.Sale, bool, error) {
	var (
		saved    *entity.Sale
		replayed bool
	)
	err := uc.txRunner.RunSale(ctx, func(r Repos) error {
		saved, replayed = nil, false

		if in.IdempotencyKey != "" {
			prev, err := r.Sales.GetByIdempotencyKey(ctx, actor.UserID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				saved, replayed = prev, true
				return nil
			}
		}

		if in.CustomerID != nil && *in.CustomerID != "" {
			c, err := r.Customers.GetByID(ctx, *in.CustomerID)
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("%w: el cliente %s no existe", domain.ErrInvalidOrder, *in.CustomerID)
			}
		}

		// Snapshot de nombre y código al momento de vender
		ids := make([]string, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := r.Products.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, it := range in.Items {
			p := products[it.ProductID]
			if p == nil || !p.Active {
				return fmt.Errorf("%w: el producto %s no existe o está inactivo", domain.ErrInvalidOrder, it.ProductID)
			}
		}

		ticket, err := r.Sales.NextTicketNumber(ctx)
		if err != nil {
			return err
		}

		now := uc.now()
		s := &entity.Sale{
			ID:            uuid.New().String(),
			Folio:         sale.FormatFolio(ticket),
			TicketNumber:  ticket,
			UserID:        actor.UserID,
			BranchID:      actor.BranchID,
			Subtotal:      v.totals.Subtotal,
			TaxAmount:     v.totals.Tax,
			Discount:      v.totals.Discount,
			Total:         v.totals.Total,
			PaymentMethod: string(v.method),
			AmountPaid:    in.AmountPaid.Round(sale.MoneyPlaces),
			Change:        v.totals.Change,
			Status:        entity.SaleStatusCompleted,
			Notes:         nonEmpty(in.Notes),
			CreatedAt:     now,
		}
		if in.CustomerID != nil && *in.CustomerID != "" {
			s.CustomerID = in.CustomerID
		}
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			s.IdempotencyKey = &key
		}
		if err := r.Sales.Create(ctx, s); err != nil {
			return err
		}

		lines := make([]*entity.SaleLine, len(in.Items))
		for i, it := range in.Items {
			p := products[it.ProductID]
			lines[i] = &entity.SaleLine{
				ID:              uuid.New().String(),
				SaleID:          s.ID,
				ProductID:       p.ID,
				ProductName:     p.Name,
				ProductCode:     p.Code,
				Quantity:        it.Quantity,
				UnitPrice:       v.lines[i].UnitPrice,
				DiscountPercent: v.lines[i].DiscountPercent,
				Subtotal:        v.totals.Lines[i].Subtotal,
			}
		}
		if err := r.Sales.CreateLines(ctx, lines); err != nil {
			return err
		}

		// Stock: cualquier fallo aborta toda la venta (rollback)
		for _, l := range lines {
			if _, err := r.Stock.Decrement(ctx, l.ProductID, s.BranchID, l.Quantity); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("%w: %s sin existencias en la sucursal", domain.ErrInsufficientStock, l.ProductName)
				}
				return err
			}
			if err := r.Movements.Create(ctx, &entity.InventoryMovement{
				ReferenceID: s.ID,
				ProductID:   l.ProductID,
				BranchID:    s.BranchID,
				Type:        entity.MovementTypeSale,
				Quantity:    -l.Quantity,
				CreatedBy:   actor.UserID,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}

		s.Lines = lines
		saved = s
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return saved, replayed, nil
}

// validate revisa la solicitud sin tocar almacenamiento y calcula totales.
func validate(actor dto.Actor, in dto.CreateSaleRequest) (validated, error) {
	if actor.UserID == "" {
		return validated{}, domain.ErrUnauthorized
	}
	if actor.BranchID == "" {
		return validated{}, fmt.Errorf("%w: el usuario no tiene sucursal asignada", domain.ErrInvalidOrder)
	}
	if len(in.Items) == 0 {
		return validated{}, fmt.Errorf("%w: la venta no tiene productos", domain.ErrInvalidOrder)
	}
	if len(in.IdempotencyKey) > maxIdempotencyKeyLen {
		return validated{}, fmt.Errorf("%w: llave de idempotencia demasiado larga", domain.ErrInvalidOrder)
	}
	method, ok := sale.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return validated{}, fmt.Errorf("%w: método de pago %q no soportado", domain.ErrInvalidOrder, in.PaymentMethod)
	}
	if in.AmountPaid.IsNegative() {
		return validated{}, fmt.Errorf("%w: monto pagado negativo", domain.ErrInvalidOrder)
	}
	if !sale.FitsCents(in.AmountPaid) {
		return validated{}, fmt.Errorf("%w: monto pagado con más de dos decimales", domain.ErrInvalidOrder)
	}

	lines := make([]sale.LineInput, len(in.Items))
	for i, it := range in.Items {
		switch {
		case strings.TrimSpace(it.ProductID) == "":
			return validated{}, fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidOrder, i+1)
		case it.Quantity <= 0:
			return validated{}, fmt.Errorf("%w: línea %d con cantidad %d", domain.ErrInvalidOrder, i+1, it.Quantity)
		case it.Price.IsNegative():
			return validated{}, fmt.Errorf("%w: línea %d con precio negativo", domain.ErrInvalidOrder, i+1)
		case !sale.FitsCents(it.Price):
			return validated{}, fmt.Errorf("%w: línea %d con precio de más de dos decimales", domain.ErrInvalidOrder, i+1)
		case it.Discount.IsNegative() || it.Discount.GreaterThan(hundred):
			return validated{}, fmt.Errorf("%w: línea %d con descuento fuera de 0-100", domain.ErrInvalidOrder, i+1)
		case !sale.FitsCents(it.Discount):
			return validated{}, fmt.Errorf("%w: línea %d con descuento de más de dos decimales", domain.ErrInvalidOrder, i+1)
		}
		lines[i] = sale.LineInput{Quantity: it.Quantity, UnitPrice: it.Price, DiscountPercent: it.Discount}
	}

	return validated{
		lines:  lines,
		method: method,
		totals: sale.ComputeTotals(lines, method, in.AmountPaid),
	}, nil
}

func (uc *CreateSaleUseCase) logFailure(actor dto.Actor, err error) {
	ev := uc.log.Warn()
	switch {
	case errors.Is(err, domain.ErrOutcomeUnknown):
		ev = uc.log.Error()
	case errors.Is(err, domain.ErrPersistence), errors.Is(err, domain.ErrConflictRetryable):
		ev = uc.log.Error()
	}
	ev.Err(err).Str("user_id", actor.UserID).Str("branch_id", actor.BranchID).Msg("venta no registrada")
}

func outcome(res *dto.SaleResult, err error) string {
	switch {
	case err == nil && res.Replayed:
		return "replayed"
	case err == nil:
		return "committed"
	case errors.Is(err, domain.ErrOutcomeUnknown):
		return "unknown"
	case errors.Is(err, domain.ErrConflictRetryable):
		return "conflict"
	case isBusinessErr(err):
		return "rejected"
	}
	return "error"
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
