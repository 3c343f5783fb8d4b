package http

import (
	"context"

	"github.com/saori-erp/saori-api/internal/application/auth"
	"github.com/saori-erp/saori-api/internal/application/dto"
)

// Contratos que los handlers necesitan de los casos de uso. Los implementan
// los casos de uso de internal/application; en tests se reemplazan por dobles.

// SaleCreator registra ventas (sales.CreateSaleUseCase).
type SaleCreator interface {
	CreateSale(ctx context.Context, actor dto.Actor, in dto.CreateSaleRequest) (*dto.SaleResult, error)
}

// SaleVoider cancela ventas (sales.VoidSaleUseCase).
type SaleVoider interface {
	VoidSale(ctx context.Context, actor dto.Actor, saleID, reason string) (*dto.SaleResponse, error)
}

// SaleQuerier consultas de ventas (sales.QueryUseCase).
type SaleQuerier interface {
	GetSale(ctx context.Context, actor dto.Actor, id string) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, actor dto.Actor, page dto.PageRequest) (*dto.SaleListResponse, error)
	TicketPDF(ctx context.Context, actor dto.Actor, id string) ([]byte, string, error)
}

// LogLister bitácora paginada (audit.LogUseCase).
type LogLister interface {
	List(ctx context.Context, actor dto.Actor, page dto.PageRequest) (*dto.LogListResponse, error)
}

// CatalogService productos, categorías y ajustes (catalog.ProductUseCase).
type CatalogService interface {
	ListProducts(ctx context.Context, actor dto.Actor, search, categoryID string) ([]dto.ProductResponse, error)
	CreateProduct(ctx context.Context, actor dto.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error)
	UpdateProduct(ctx context.Context, actor dto.Actor, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error)
	DeleteProduct(ctx context.Context, actor dto.Actor, id string) error
	ListCategories(ctx context.Context) ([]dto.CategoryResponse, error)
	AdjustStock(ctx context.Context, actor dto.Actor, in dto.StockAdjustmentRequest) (*dto.StockAdjustmentResponse, error)
}

// AuthService login y tokens (auth.AuthUseCase).
type AuthService interface {
	Login(ctx context.Context, in dto.LoginRequest, client auth.ClientInfo) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error)
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
}

// Pinger verificación de la base de datos (pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}
