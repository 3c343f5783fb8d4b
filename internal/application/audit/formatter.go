package audit

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/saori-erp/saori-api/internal/domain/entity"
)

// FormatMessage arma el mensaje legible de una entrada según su acción.
func FormatMessage(e *entity.ActivityLog) string {
	var d map[string]any
	if len(e.Details) > 0 {
		_ = json.Unmarshal(e.Details, &d)
	}
	name := e.UserName

	switch e.Action {
	case entity.ActionLogin:
		return name + " inició sesión"
	case entity.ActionLogout:
		return name + " cerró sesión"
	case entity.ActionCreateSale:
		return fmt.Sprintf("%s registró venta por $%s", name, str(d, "total", "0"))
	case entity.ActionDeleteSale:
		folio := str(d, "folio", "")
		if folio == "" && e.EntityID != nil {
			folio = *e.EntityID
		}
		return fmt.Sprintf("%s canceló ticket #%s", name, folio)
	case entity.ActionUpdatePrice:
		return fmt.Sprintf("%s cambió precio de %s: $%s → $%s",
			name, str(d, "productName", ""), str(d, "oldPrice", ""), str(d, "newPrice", ""))
	case entity.ActionCreateProduct:
		return fmt.Sprintf("%s creó producto %s", name, str(d, "productName", ""))
	case entity.ActionUpdateProduct:
		return fmt.Sprintf("%s modificó producto %s", name, str(d, "productName", ""))
	case entity.ActionDeleteProduct:
		return fmt.Sprintf("%s eliminó producto %s", name, str(d, "productName", ""))
	case entity.ActionAdjustStock:
		return fmt.Sprintf("%s ajustó inventario de %s (%s)", name, str(d, "productName", ""), str(d, "delta", "0"))
	case entity.ActionCreateUser:
		return fmt.Sprintf("%s creó usuario %s", name, str(d, "userName", ""))
	case entity.ActionUpdateUser:
		return fmt.Sprintf("%s modificó usuario %s", name, str(d, "userName", ""))
	case entity.ActionDeleteUser:
		return fmt.Sprintf("%s eliminó usuario %s", name, str(d, "userName", ""))
	}
	return fmt.Sprintf("%s realizó %s", name, e.Action)
}

// str lee un campo de details como texto; números sin notación científica.
func str(d map[string]any, key, def string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return def
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
