package repository

import (
	"context"

	"github.com/saori-erp/saori-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas y sus líneas.
type SaleRepository interface {
	// NextTicketNumber reserva el siguiente número de ticket. Solo es válido dentro de la
	// transacción que inserta la venta: el candado se libera al hacer commit o rollback.
	NextTicketNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, sale *entity.Sale) error
	CreateLines(ctx context.Context, lines []*entity.SaleLine) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetByIDForUpdate bloquea la venta para cambiar su estado.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Sale, error)
	GetLines(ctx context.Context, saleID string) ([]*entity.SaleLine, error)
	MarkVoid(ctx context.Context, id string) error
	// ListByBranch ventas más recientes primero; devuelve también el total de registros.
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.Sale, int, error)
}
