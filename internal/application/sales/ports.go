package sales

import (
	"context"

	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Sales     repository.SaleRepository
	Stock     repository.StockRepository
	Products  repository.ProductRepository
	Customers repository.CustomerRepository
	Movements repository.InventoryMovementRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD: Commit si fn devuelve nil, Rollback si no.
// Los errores de la transacción llegan ya traducidos a errores de dominio
// (domain.ErrConflictRetryable, domain.ErrPersistence, domain.ErrOutcomeUnknown).
type TxRunner interface {
	RunSale(ctx context.Context, fn func(r Repos) error) error
}

// AuditRecorder escribe la bitácora después del commit.
type AuditRecorder interface {
	Append(ctx context.Context, actorID, action, entityType, entityID string, details any) error
}

// TicketRenderer genera el PDF del ticket de una venta (con líneas cargadas).
type TicketRenderer interface {
	RenderTicket(sale *entity.Sale) ([]byte, error)
}
