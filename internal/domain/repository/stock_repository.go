package repository

import (
	"context"

	"github.com/saori-erp/saori-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por sucursal+producto.
// Las mutaciones se usan dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	Get(ctx context.Context, productID, branchID string) (*entity.StockLevel, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID, branchID string) (*entity.StockLevel, error)
	// Decrement resta qty con piso en cero: domain.ErrNotFound si no hay fila,
	// domain.ErrInsufficientStock si quedaría negativo.
	Decrement(ctx context.Context, productID, branchID string, qty int) (*entity.StockLevel, error)
	// Increment suma qty creando la fila si no existe.
	Increment(ctx context.Context, productID, branchID string, qty int) (*entity.StockLevel, error)
	Upsert(ctx context.Context, stock *entity.StockLevel) error
}
