package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saori-erp/saori-api/internal/domain/permission"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       AuthService
	CreateSale   SaleCreator
	VoidSale     SaleVoider
	SaleQuery    SaleQuerier
	LogUC        LogLister
	CatalogUC    CatalogService
	DB           Pinger
	ServiceName  string
	JWTSecret    string
	LoginLimiter *IPRateLimiter
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	health := NewHealthHandler(deps.DB, deps.ServiceName)
	api.Get("/health", health.Check)

	// Auth (público, login con límite por IP)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	loginLimiter := deps.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = NewIPRateLimiter(10)
	}
	authGroup.Post("/login", loginLimiter.Middleware(), authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Get("/me", AuthMiddleware(deps.JWTSecret), authHandler.Me)

	productHandler := NewProductHandler(deps.CatalogUC)
	api.Get("/categories", productHandler.Categories)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.CreateSale, deps.VoidSale, deps.SaleQuery)
	sales.Post("/", RequirePermission(permission.SalesCreate), saleHandler.Create)
	sales.Get("/", RequirePermission(permission.SalesRead), saleHandler.List)
	sales.Get("/:id/ticket.pdf", RequirePermission(permission.SalesRead), saleHandler.Ticket)
	sales.Get("/:id", RequirePermission(permission.SalesRead), saleHandler.GetByID)
	sales.Delete("/:id", RequirePermission(permission.SalesDelete), saleHandler.Void)

	logHandler := NewLogHandler(deps.LogUC)
	protected.Get("/logs", RequirePermission(permission.LogsRead), logHandler.List)

	products := protected.Group("/products")
	products.Get("/", RequirePermission(permission.ProductsRead), productHandler.List)
	products.Post("/", RequirePermission(permission.ProductsCreate), productHandler.Create)
	products.Put("/:id", RequirePermission(permission.ProductsUpdate), productHandler.Update)
	products.Delete("/:id", RequirePermission(permission.ProductsDelete), productHandler.Delete)

	inventoryHandler := NewInventoryHandler(deps.CatalogUC)
	protected.Post("/inventory/adjustments", RequirePermission(permission.ProductsUpdate), inventoryHandler.Adjust)
}
