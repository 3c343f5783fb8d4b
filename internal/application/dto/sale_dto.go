package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea solicitada. Price es el precio unitario capturado en caja; Discount en % (0-100).
type SaleItemRequest struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
}

// CreateSaleRequest cuerpo de POST /api/sales. IdempotencyKey llega por header.
type CreateSaleRequest struct {
	Items          []SaleItemRequest `json:"items"`
	PaymentMethod  string            `json:"paymentMethod"`
	AmountPaid     decimal.Decimal   `json:"amountPaid"`
	CustomerID     *string           `json:"customerId,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
	IdempotencyKey string            `json:"-"`
}

// SaleResult resultado de registrar una venta. Replayed indica que la llave de idempotencia
// ya tenía una venta y se devolvió esa sin efectos nuevos.
type SaleResult struct {
	ID        string          `json:"id"`
	Folio     string          `json:"folio"`
	Total     decimal.Decimal `json:"total"`
	Change    decimal.Decimal `json:"change"`
	Timestamp time.Time       `json:"timestamp"`
	Replayed  bool            `json:"-"`
}

// CreateSaleResponse respuesta HTTP de la venta registrada.
type CreateSaleResponse struct {
	Success bool       `json:"success"`
	Sale    SaleResult `json:"sale"`
}

// SaleLineResponse línea de una venta consultada.
type SaleLineResponse struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	ProductCode string          `json:"productCode"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleResponse detalle de una venta.
type SaleResponse struct {
	ID            string             `json:"id"`
	Folio         string             `json:"folio"`
	UserID        string             `json:"userId"`
	UserName      string             `json:"userName,omitempty"`
	BranchID      string             `json:"branchId"`
	BranchName    string             `json:"branchName,omitempty"`
	CustomerID    *string            `json:"customerId,omitempty"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Tax           decimal.Decimal    `json:"tax"`
	Discount      decimal.Decimal    `json:"discount"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"paymentMethod"`
	AmountPaid    decimal.Decimal    `json:"amountPaid"`
	Change        decimal.Decimal    `json:"change"`
	Status        string             `json:"status"`
	Notes         *string            `json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	VoidedAt      *time.Time         `json:"voidedAt,omitempty"`
	Items         []SaleLineResponse `json:"items,omitempty"`
}

// SaleListResponse página de ventas.
type SaleListResponse struct {
	Sales      []SaleResponse `json:"sales"`
	Pagination Pagination     `json:"pagination"`
}

// VoidSaleRequest cuerpo opcional de DELETE /api/sales/:id.
type VoidSaleRequest struct {
	Reason string `json:"reason"`
}
