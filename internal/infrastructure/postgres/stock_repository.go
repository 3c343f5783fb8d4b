package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una sucursal (cantidad 0 si no hay fila).
func (r *StockRepo) Get(ctx context.Context, productID, branchID string) (*entity.StockLevel, error) {
	query := `
		SELECT product_id, branch_id, quantity, updated_at
		FROM stock_levels WHERE product_id = $1 AND branch_id = $2`
	var s entity.StockLevel
	err := r.q.QueryRow(ctx, query, productID, branchID).Scan(&s.ProductID, &s.BranchID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLevel{ProductID: productID, BranchID: branchID}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE). nil si no hay fila.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, branchID string) (*entity.StockLevel, error) {
	query := `
		SELECT product_id, branch_id, quantity, updated_at
		FROM stock_levels WHERE product_id = $1 AND branch_id = $2
		FOR UPDATE`
	var s entity.StockLevel
	err := r.q.QueryRow(ctx, query, productID, branchID).Scan(&s.ProductID, &s.BranchID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get stock for update", err)
	}
	return &s, nil
}

// Decrement bloquea la fila y resta qty si alcanza. Nunca deja stock negativo.
func (r *StockRepo) Decrement(ctx context.Context, productID, branchID string, qty int) (*entity.StockLevel, error) {
	current, err := r.GetForUpdate(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: sin stock registrado para producto %s en sucursal %s", domain.ErrNotFound, productID, branchID)
	}
	if current.Quantity < qty {
		return nil, fmt.Errorf("%w: producto %s disponible %d, solicitado %d", domain.ErrInsufficientStock, productID, current.Quantity, qty)
	}

	var s entity.StockLevel
	err = r.q.QueryRow(ctx, `
		UPDATE stock_levels SET quantity = quantity - $3, updated_at = now()
		WHERE product_id = $1 AND branch_id = $2
		RETURNING product_id, branch_id, quantity, updated_at`,
		productID, branchID, qty,
	).Scan(&s.ProductID, &s.BranchID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeCheckViolation {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrInsufficientStock, productID)
		}
		return nil, classify("decrement stock", err)
	}
	return &s, nil
}

// Increment suma qty (crea la fila si no existe).
func (r *StockRepo) Increment(ctx context.Context, productID, branchID string, qty int) (*entity.StockLevel, error) {
	var s entity.StockLevel
	err := r.q.QueryRow(ctx, `
		INSERT INTO stock_levels (product_id, branch_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, branch_id)
		DO UPDATE SET quantity = stock_levels.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING product_id, branch_id, quantity, updated_at`,
		productID, branchID, qty,
	).Scan(&s.ProductID, &s.BranchID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeCheckViolation {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrInsufficientStock, productID)
		}
		return nil, classify("increment stock", err)
	}
	return &s, nil
}

// Upsert inserta o reemplaza la cantidad en stock (carga inicial, seed).
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (product_id, branch_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, branch_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, stock.ProductID, stock.BranchID, stock.Quantity); err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}
