package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. Code se genera si viene vacío.
type CreateProductRequest struct {
	Code       string           `json:"code"`
	Name       string           `json:"name"`
	Price      decimal.Decimal  `json:"price"`
	Cost       *decimal.Decimal `json:"cost,omitempty"`
	CategoryID *string          `json:"categoryId,omitempty"`
	MinStock   *int             `json:"minStock,omitempty"`
	Stock      int              `json:"stock"` // existencia inicial en la sucursal del actor
}

// UpdateProductRequest actualización parcial: solo los campos presentes cambian.
type UpdateProductRequest struct {
	Code       *string          `json:"code,omitempty"`
	Name       *string          `json:"name,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Cost       *decimal.Decimal `json:"cost,omitempty"`
	CategoryID *string          `json:"categoryId,omitempty"`
	MinStock   *int             `json:"minStock,omitempty"`
}

// ProductResponse salida de un producto con el stock de la sucursal del actor.
type ProductResponse struct {
	ID           string           `json:"id"`
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	Price        decimal.Decimal  `json:"price"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
	CategoryID   *string          `json:"categoryId,omitempty"`
	CategoryName string           `json:"categoryName,omitempty"`
	MinStock     int              `json:"minStock"`
	Stock        int              `json:"stock"`
	LowStock     bool             `json:"lowStock"`
	Active       bool             `json:"active"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// StockAdjustmentRequest ajuste explícito de inventario. Delta con signo.
type StockAdjustmentRequest struct {
	ProductID string `json:"productId"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
}

// StockAdjustmentResponse existencia resultante.
type StockAdjustmentResponse struct {
	ProductID string `json:"productId"`
	BranchID  string `json:"branchId"`
	Quantity  int    `json:"quantity"`
}
