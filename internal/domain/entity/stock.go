package entity

import "time"

// StockLevel existencias de un producto en una sucursal. Quantity nunca es negativa.
type StockLevel struct {
	ProductID string
	BranchID  string
	Quantity  int
	UpdatedAt time.Time
}
