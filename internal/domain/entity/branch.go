package entity

import "time"

// Branch sucursal donde se registran ventas y se guarda el stock.
type Branch struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	IsMain    bool
	CreatedAt time.Time
}
