package entity

import (
	"encoding/json"
	"time"
)

// Acciones registradas en la bitácora (vocabulario cerrado).
const (
	ActionLogin         = "LOGIN"
	ActionLogout        = "LOGOUT"
	ActionCreateSale    = "CREATE_SALE"
	ActionDeleteSale    = "DELETE_SALE"
	ActionUpdatePrice   = "UPDATE_PRICE"
	ActionCreateProduct = "CREATE_PRODUCT"
	ActionUpdateProduct = "UPDATE_PRODUCT"
	ActionDeleteProduct = "DELETE_PRODUCT"
	ActionAdjustStock   = "ADJUST_STOCK"
	ActionCreateUser    = "CREATE_USER"
	ActionUpdateUser    = "UPDATE_USER"
	ActionDeleteUser    = "DELETE_USER"
)

// ActivityLog entrada append-only de la bitácora.
type ActivityLog struct {
	ID        string
	UserID    string
	UserName  string // solo lectura (join)
	Action    string
	Entity    *string
	EntityID  *string
	Details   json.RawMessage
	CreatedAt time.Time
}
