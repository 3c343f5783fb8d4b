package entity

import "time"

// Customer cliente opcional de una venta.
type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}
