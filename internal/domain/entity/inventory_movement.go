package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeSale       = "SALE"       // salida por venta
	MovementTypeVoid       = "VOID"       // reingreso por cancelación de venta
	MovementTypeAdjustment = "ADJUSTMENT" // ajuste manual
)

// InventoryMovement registro append-only de cada cambio de stock.
type InventoryMovement struct {
	ID          string
	ReferenceID string // venta o ajuste que lo originó
	ProductID   string
	BranchID    string
	Type        string
	Quantity    int // positivo entrada, negativo salida
	CreatedBy   string
	CreatedAt   time.Time
}
