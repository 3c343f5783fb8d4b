package entity

import "github.com/shopspring/decimal"

// SaleLine línea de una venta con snapshot del producto (nombre, código y precio al momento de vender).
// Inmutable una vez creada.
type SaleLine struct {
	ID              string
	SaleID          string
	ProductID       string
	ProductName     string
	ProductCode     string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	Subtotal        decimal.Decimal
}
