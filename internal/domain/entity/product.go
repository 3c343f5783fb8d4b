package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Nunca se borra físicamente: las ventas históricas lo referencian; se desactiva con Active=false.
type Product struct {
	ID         string
	Code       string // código único
	Name       string
	Price      decimal.Decimal  // precio de venta
	Cost       *decimal.Decimal // costo opcional
	CategoryID *string
	MinStock   int
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Solo lectura (listados)
	CategoryName string
	Stock        int
}
