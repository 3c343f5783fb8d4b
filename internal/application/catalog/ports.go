package catalog

import (
	"context"

	"github.com/saori-erp/saori-api/internal/domain/repository"
)

// InventoryTxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Alta de producto con existencia inicial y ajustes de inventario pasan por aquí.
type InventoryTxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// AuditRecorder escribe la bitácora después del commit.
type AuditRecorder interface {
	Append(ctx context.Context, actorID, action, entityType, entityID string, details any) error
}
