package entity

// Category representa una categoría de productos.
type Category struct {
	ID    string
	Name  string
	Color string // hex para la UI, ej. #3B82F6
}
