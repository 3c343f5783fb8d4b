package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusVoid      = "VOID"
)

// Sale venta registrada. Subtotal, impuesto, descuento y total son derivados de las líneas
// y no se editan después de crearse; solo Status/VoidedAt cambian al cancelar.
type Sale struct {
	ID             string
	Folio          string // V-000001
	TicketNumber   int64
	UserID         string
	BranchID       string
	CustomerID     *string
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	PaymentMethod  string
	AmountPaid     decimal.Decimal
	Change         decimal.Decimal
	Status         string
	Notes          *string
	IdempotencyKey *string
	CreatedAt      time.Time
	VoidedAt       *time.Time

	// Solo lectura
	UserName   string
	BranchName string
	Lines      []*SaleLine
}

// IsVoid indica si la venta ya fue cancelada.
func (s *Sale) IsVoid() bool { return s.Status == SaleStatusVoid }
