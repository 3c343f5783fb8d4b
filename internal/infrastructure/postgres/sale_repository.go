package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// saleFolioLockKey llave del candado transaccional que serializa la asignación de folios.
const saleFolioLockKey int64 = 0x5341_4c45 // "SALE"

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleSelect = `
	SELECT s.id, s.folio, s.ticket_number, s.user_id, s.branch_id, s.customer_id,
	       s.subtotal, s.tax_amount, s.discount, s.total, s.payment_method, s.amount_paid, s.change_amount,
	       s.status, s.notes, s.idempotency_key, s.created_at, s.voided_at,
	       COALESCE(u.name, ''), COALESCE(b.name, '')
	FROM sales s
	LEFT JOIN users u ON u.id = s.user_id
	LEFT JOIN branches b ON b.id = s.branch_id`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(
		&s.ID, &s.Folio, &s.TicketNumber, &s.UserID, &s.BranchID, &s.CustomerID,
		&s.Subtotal, &s.TaxAmount, &s.Discount, &s.Total, &s.PaymentMethod, &s.AmountPaid, &s.Change,
		&s.Status, &s.Notes, &s.IdempotencyKey, &s.CreatedAt, &s.VoidedAt,
		&s.UserName, &s.BranchName,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// NextTicketNumber toma pg_advisory_xact_lock y lee el último número emitido.
// El candado dura hasta commit/rollback: dos transacciones nunca leen el mismo "último",
// y el orden de commit coincide con el orden de los folios. Requiere READ COMMITTED: la lectura
// posterior al candado debe ver lo que el dueño anterior confirmó. Fuera de una tx el candado
// se liberaría al terminar la sentencia, por eso solo se usa desde TxRunner.RunSale.
func (r *SaleRepo) NextTicketNumber(ctx context.Context) (int64, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, saleFolioLockKey); err != nil {
		return 0, classify("lock folio", err)
	}
	var latest int64
	err := r.q.QueryRow(ctx, `SELECT ticket_number FROM sales ORDER BY ticket_number DESC LIMIT 1`).Scan(&latest)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, classify("latest ticket", err)
	}
	return latest + 1, nil
}

// Create inserta la venta. Folio o llave de idempotencia repetidos se reportan como conflicto
// reintentable: el siguiente intento asigna otro folio o encuentra la venta previa y la repite.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (id, folio, ticket_number, user_id, branch_id, customer_id,
			subtotal, tax_amount, discount, total, payment_method, amount_paid, change_amount,
			status, notes, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		s.ID, s.Folio, s.TicketNumber, s.UserID, s.BranchID, s.CustomerID,
		s.Subtotal, s.TaxAmount, s.Discount, s.Total, s.PaymentMethod, s.AmountPaid, s.Change,
		s.Status, s.Notes, s.IdempotencyKey, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if pgConstraint(err) == "sales_user_idempotency_key" {
				return fmt.Errorf("%w: llave de idempotencia en uso por otra transacción", domain.ErrConflictRetryable)
			}
			return fmt.Errorf("%w: folio %s ya existe", domain.ErrConflictRetryable, s.Folio)
		}
		return classify("insert sale", err)
	}
	return nil
}

// CreateLines inserta las líneas de una venta en un solo batch.
func (r *SaleRepo) CreateLines(ctx context.Context, lines []*entity.SaleLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		batch.Queue(`
			INSERT INTO sale_lines (id, sale_id, line_no, product_id, product_name, product_code, quantity, unit_price, discount_percent, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			l.ID, l.SaleID, i+1, l.ProductID, l.ProductName, l.ProductCode, l.Quantity, l.UnitPrice, l.DiscountPercent, l.Subtotal,
		)
	}
	sender, ok := r.q.(interface {
		SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	})
	if !ok {
		return fmt.Errorf("%w: el querier no soporta batch", domain.ErrPersistence)
	}
	br := sender.SendBatch(ctx, batch)
	for range lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return classify("insert sale line", err)
		}
	}
	return classify("insert sale lines", br.Close())
}

// GetByID obtiene una venta sin líneas (nil si no existe).
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, saleSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// GetByIDForUpdate obtiene la venta bloqueando su fila (nil si no existe).
func (r *SaleRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, saleSelect+` WHERE s.id = $1 FOR UPDATE OF s`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get sale for update", err)
	}
	return s, nil
}

// GetByIdempotencyKey busca una venta previa del usuario con la misma llave (nil si no existe).
func (r *SaleRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, saleSelect+` WHERE s.user_id = $1 AND s.idempotency_key = $2`, userID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get sale by idempotency key", err)
	}
	return s, nil
}

// GetLines líneas de una venta en orden de inserción.
func (r *SaleRepo) GetLines(ctx context.Context, saleID string) ([]*entity.SaleLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, product_code, quantity, unit_price, discount_percent, subtotal
		FROM sale_lines WHERE sale_id = $1 ORDER BY line_no`, saleID)
	if err != nil {
		return nil, classify("list sale lines", err)
	}
	defer rows.Close()
	var list []*entity.SaleLine
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.ProductName, &l.ProductCode,
			&l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// MarkVoid cambia el estado a VOID. Solo aplica a ventas COMPLETED.
func (r *SaleRepo) MarkVoid(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE sales SET status = 'VOID', voided_at = now() WHERE id = $1 AND status = 'COMPLETED'`, id)
	if err != nil {
		return classify("void sale", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrAlreadyVoided
	}
	return nil
}

// ListByBranch ventas de la sucursal, más recientes primero, y el total.
func (r *SaleRepo) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.Sale, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM sales WHERE branch_id = $1`, branchID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}
	rows, err := r.q.Query(ctx, saleSelect+`
		WHERE s.branch_id = $1
		ORDER BY s.ticket_number DESC
		LIMIT $2 OFFSET $3`, branchID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}
