// Package catalog administra productos, categorías y ajustes de inventario.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/permission"
	"github.com/saori-erp/saori-api/internal/domain/repository"
	"github.com/saori-erp/saori-api/internal/domain/sale"
	"github.com/saori-erp/saori-api/pkg/logger"
)

// DefaultMinStock umbral de stock bajo cuando el alta no lo indica.
const DefaultMinStock = 5

// ProductUseCase casos de uso de productos. El stock solo cambia por movimientos (ventas, ajustes).
type ProductUseCase struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	txRunner     InventoryTxRunner
	audit        AuditRecorder
	log          *logger.Logger
	now          func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	txRunner InventoryTxRunner,
	audit AuditRecorder,
	log *logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		txRunner:     txRunner,
		audit:        audit,
		log:          log.Component("catalog"),
		now:          time.Now,
	}
}

// ListProducts productos activos con el stock de la sucursal del actor, ordenados por nombre.
func (uc *ProductUseCase) ListProducts(ctx context.Context, actor dto.Actor, search, categoryID string) ([]dto.ProductResponse, error) {
	if !permission.Has(permission.Role(actor.Role), permission.ProductsRead) {
		return nil, domain.ErrForbidden
	}
	list, err := uc.productRepo.List(ctx, repository.ProductFilter{
		Search:     search,
		CategoryID: categoryID,
		BranchID:   actor.BranchID,
		OnlyActive: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listar productos: %v", domain.ErrPersistence, err)
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

// CreateProduct crea el producto y, si trae existencia inicial, la registra en la sucursal del actor
// como ajuste, todo en una transacción.
func (uc *ProductUseCase) CreateProduct(ctx context.Context, actor dto.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !permission.Has(permission.Role(actor.Role), permission.ProductsCreate) {
		return nil, domain.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || !in.Price.IsPositive() {
		return nil, fmt.Errorf("%w: nombre y precio son obligatorios", domain.ErrInvalidInput)
	}
	if in.Cost != nil && in.Cost.IsNegative() {
		return nil, fmt.Errorf("%w: costo negativo", domain.ErrInvalidInput)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: existencia inicial negativa", domain.ErrInvalidInput)
	}
	if in.Stock > 0 && actor.BranchID == "" {
		return nil, fmt.Errorf("%w: el usuario no tiene sucursal asignada", domain.ErrInvalidInput)
	}
	if err := uc.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	now := uc.now()
	code, err := uc.resolveCode(ctx, strings.TrimSpace(in.Code), now)
	if err != nil {
		return nil, err
	}

	minStock := DefaultMinStock
	if in.MinStock != nil && *in.MinStock >= 0 {
		minStock = *in.MinStock
	}
	product := &entity.Product{
		ID:         uuid.New().String(),
		Code:       code,
		Name:       name,
		Price:      in.Price.Round(sale.MoneyPlaces),
		Cost:       in.Cost,
		CategoryID: nonEmpty(in.CategoryID),
		MinStock:   minStock,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		if actor.BranchID == "" {
			return nil
		}
		if err := stockRepo.Upsert(ctx, &entity.StockLevel{ProductID: product.ID, BranchID: actor.BranchID, Quantity: in.Stock}); err != nil {
			return err
		}
		if in.Stock == 0 {
			return nil
		}
		return movRepo.Create(ctx, &entity.InventoryMovement{
			ReferenceID: product.ID,
			ProductID:   product.ID,
			BranchID:    actor.BranchID,
			Type:        entity.MovementTypeAdjustment,
			Quantity:    in.Stock,
			CreatedBy:   actor.UserID,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}
	product.Stock = in.Stock

	uc.log.Info().Str("product_id", product.ID).Str("code", product.Code).Msg("producto creado")
	_ = uc.audit.Append(ctx, actor.UserID, entity.ActionCreateProduct, "Product", product.ID, map[string]any{
		"productName": product.Name,
		"code":        product.Code,
		"price":       product.Price.StringFixed(sale.MoneyPlaces),
	})

	resp := toProductResponse(product)
	return &resp, nil
}

// UpdateProduct actualización parcial. Un cambio de precio deja además una entrada UPDATE_PRICE.
func (uc *ProductUseCase) UpdateProduct(ctx context.Context, actor dto.Actor, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if !permission.Has(permission.Role(actor.Role), permission.ProductsUpdate) {
		return nil, domain.ErrForbidden
	}
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if product == nil || !product.Active {
		return nil, domain.ErrNotFound
	}
	oldPrice := product.Price
	var changed []string

	if in.Code != nil {
		code := strings.TrimSpace(*in.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: código vacío", domain.ErrInvalidInput)
		}
		if code != product.Code {
			other, err := uc.productRepo.GetByCode(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
			}
			if other != nil {
				return nil, fmt.Errorf("%w: el código %s ya existe", domain.ErrDuplicate, code)
			}
			product.Code = code
			changed = append(changed, "code")
		}
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: nombre vacío", domain.ErrInvalidInput)
		}
		product.Name = name
		changed = append(changed, "name")
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, fmt.Errorf("%w: precio inválido", domain.ErrInvalidInput)
		}
		product.Price = in.Price.Round(sale.MoneyPlaces)
		changed = append(changed, "price")
	}
	if in.Cost != nil {
		if in.Cost.IsNegative() {
			return nil, fmt.Errorf("%w: costo negativo", domain.ErrInvalidInput)
		}
		product.Cost = in.Cost
		changed = append(changed, "cost")
	}
	if in.CategoryID != nil {
		if err := uc.checkCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = nonEmpty(in.CategoryID)
		changed = append(changed, "categoryId")
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			return nil, fmt.Errorf("%w: stock mínimo negativo", domain.ErrInvalidInput)
		}
		product.MinStock = *in.MinStock
		changed = append(changed, "minStock")
	}
	product.UpdatedAt = uc.now()

	if err := uc.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	_ = uc.audit.Append(ctx, actor.UserID, entity.ActionUpdateProduct, "Product", product.ID, map[string]any{
		"productName": product.Name,
		"fields":      changed,
	})
	if !product.Price.Equal(oldPrice) {
		_ = uc.audit.Append(ctx, actor.UserID, entity.ActionUpdatePrice, "Product", product.ID, map[string]any{
			"productName": product.Name,
			"oldPrice":    oldPrice.StringFixed(sale.MoneyPlaces),
			"newPrice":    product.Price.StringFixed(sale.MoneyPlaces),
		})
	}

	resp := toProductResponse(product)
	return &resp, nil
}

// DeleteProduct borrado lógico: las ventas históricas siguen apuntando al producto.
func (uc *ProductUseCase) DeleteProduct(ctx context.Context, actor dto.Actor, id string) error {
	if !permission.Has(permission.Role(actor.Role), permission.ProductsDelete) {
		return domain.ErrForbidden
	}
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if product == nil || !product.Active {
		return domain.ErrNotFound
	}
	if err := uc.productRepo.SetActive(ctx, id, false); err != nil {
		return err
	}
	_ = uc.audit.Append(ctx, actor.UserID, entity.ActionDeleteProduct, "Product", id, map[string]any{
		"productName": product.Name,
		"code":        product.Code,
	})
	return nil
}

// ListCategories categorías ordenadas por nombre. Público.
func (uc *ProductUseCase) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := uc.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listar categorías: %v", domain.ErrPersistence, err)
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.CategoryResponse{ID: c.ID, Name: c.Name, Color: c.Color})
	}
	return out, nil
}

func (uc *ProductUseCase) checkCategory(ctx context.Context, id *string) error {
	if nonEmpty(id) == nil {
		return nil
	}
	c, err := uc.categoryRepo.GetByID(ctx, *id)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if c == nil {
		return fmt.Errorf("%w: la categoría %s no existe", domain.ErrInvalidInput, *id)
	}
	return nil
}

// resolveCode valida un código explícito o genera uno libre. Dos altas en el mismo milisegundo
// toman el siguiente.
func (uc *ProductUseCase) resolveCode(ctx context.Context, code string, now time.Time) (string, error) {
	generated := code == ""
	for i := 0; i < 100; i++ {
		if generated {
			code = GenerateCode(now.Add(time.Duration(i) * time.Millisecond))
		}
		existing, err := uc.productRepo.GetByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		if existing == nil {
			return code, nil
		}
		if !generated {
			return "", fmt.Errorf("%w: el código %s ya existe", domain.ErrDuplicate, code)
		}
	}
	return "", fmt.Errorf("%w: no se pudo generar un código libre", domain.ErrDuplicate)
}

// GenerateCode código PROD-<unix millis en base36, mayúsculas>.
func GenerateCode(now time.Time) string {
	return "PROD-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func toProductResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		Price:        p.Price,
		Cost:         p.Cost,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		MinStock:     p.MinStock,
		Stock:        p.Stock,
		LowStock:     p.Stock <= p.MinStock,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
