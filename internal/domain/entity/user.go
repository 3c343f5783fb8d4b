package entity

import "time"

// User representa un usuario del sistema. BranchID vacío si no está asignado a sucursal.
type User struct {
	ID           string
	BranchID     string
	BranchName   string // solo lectura (join)
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // ADMIN, SUPERVISOR, VENDEDOR
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
