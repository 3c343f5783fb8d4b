// Package permission contiene la tabla rol → permisos del sistema.
// La tabla es dato: agregar un permiso a un rol no requiere tocar handlers ni casos de uso.
package permission

import "strings"

// Role rol de un usuario.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSupervisor Role = "SUPERVISOR"
	RoleVendedor   Role = "VENDEDOR"
)

// Permission capacidad verificable (recurso:acción).
type Permission string

const (
	SalesCreate    Permission = "sales:create"
	SalesRead      Permission = "sales:read"
	SalesDelete    Permission = "sales:delete"
	ProductsCreate Permission = "products:create"
	ProductsRead   Permission = "products:read"
	ProductsUpdate Permission = "products:update"
	ProductsDelete Permission = "products:delete"
	UsersCreate    Permission = "users:create"
	UsersRead      Permission = "users:read"
	UsersUpdate    Permission = "users:update"
	UsersDelete    Permission = "users:delete"
	LogsRead       Permission = "logs:read"
	ReportsRead    Permission = "reports:read"
)

var table = map[Role][]Permission{
	RoleAdmin: {
		SalesCreate, SalesRead, SalesDelete,
		ProductsCreate, ProductsRead, ProductsUpdate, ProductsDelete,
		UsersCreate, UsersRead, UsersUpdate, UsersDelete,
		LogsRead,
		ReportsRead,
	},
	RoleSupervisor: {
		SalesCreate, SalesRead,
		ProductsCreate, ProductsRead, ProductsUpdate,
		UsersRead,
		ReportsRead,
	},
	RoleVendedor: {
		SalesCreate, SalesRead,
		ProductsRead,
	},
}

// Has indica si el rol tiene el permiso. Un rol desconocido no tiene ninguno.
func Has(role Role, p Permission) bool {
	for _, granted := range table[role] {
		if granted == p {
			return true
		}
	}
	return false
}

// For devuelve una copia de los permisos del rol (vacío si el rol no existe).
func For(role Role) []Permission {
	perms := table[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// ParseRole normaliza un rol leído de BD o de un token. ok=false si no es un rol conocido.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := table[r]
	return r, ok
}
