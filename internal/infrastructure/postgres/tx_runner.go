package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saori-erp/saori-api/internal/application/catalog"
	"github.com/saori-erp/saori-api/internal/application/sales"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/repository"
)

var (
	_ sales.TxRunner            = (*TxRunner)(nil)
	_ catalog.InventoryTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// READ COMMITTED: la serialización de folios la da el candado consultivo de NextTicketNumber
// y la de stock el SELECT ... FOR UPDATE de cada fila.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunSale inicia una transacción, ejecuta fn con los repos de venta atados a la tx y hace Commit o Rollback.
func (r *TxRunner) RunSale(ctx context.Context, fn func(repos sales.Repos) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(sales.Repos{
			Sales:     NewSaleRepository(tx),
			Stock:     NewStockRepository(tx),
			Products:  NewProductRepository(tx),
			Customers: NewCustomerRepository(tx),
			Movements: NewInventoryMovementRepository(tx),
		})
	})
}

// Run transacción para ajustes de inventario (alta de producto con stock inicial, ajustes manuales).
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewInventoryMovementRepository(tx), NewStockRepository(tx), NewProductRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(tx); err != nil {
		return classify("transaction", err)
	}
	if err := tx.Commit(ctx); err != nil {
		// Con el contexto vencido no se sabe si el servidor alcanzó a confirmar.
		if ctx.Err() != nil {
			return fmt.Errorf("%w: commit transaction: %v", domain.ErrOutcomeUnknown, err)
		}
		return classify("commit transaction", err)
	}
	return nil
}
