package repository

import (
	"context"

	"github.com/saori-erp/saori-api/internal/domain/entity"
)

// ProductFilter filtros del listado de productos. BranchID determina la columna de stock.
type ProductFilter struct {
	Search     string
	CategoryID string
	BranchID   string
	OnlyActive bool
}

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	// GetByIDs devuelve los productos encontrados indexados por ID (los faltantes no aparecen).
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
}
