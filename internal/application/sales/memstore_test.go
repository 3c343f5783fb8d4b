package sales_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saori-erp/saori-api/internal/application/sales"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/repository"
)

// ── memStore: TxRunner en memoria ──────────────────────────────────────────
//
// Cada transacción trabaja sobre una copia del estado y solo la publica si fn termina sin error
// (commit); el mutex serializa las transacciones igual que el candado de folios en PostgreSQL.

type stockKey struct{ product, branch string }

type memState struct {
	sales     map[string]*entity.Sale
	lines     map[string][]*entity.SaleLine
	stock     map[stockKey]int
	products  map[string]*entity.Product
	customers map[string]*entity.Customer
	movements []*entity.InventoryMovement
}

func newMemState() *memState {
	return &memState{
		sales:     map[string]*entity.Sale{},
		lines:     map[string][]*entity.SaleLine{},
		stock:     map[stockKey]int{},
		products:  map[string]*entity.Product{},
		customers: map[string]*entity.Customer{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.sales {
		cp := *v
		c.sales[k] = &cp
	}
	for k, v := range s.lines {
		c.lines[k] = append([]*entity.SaleLine(nil), v...)
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	c.movements = append([]*entity.InventoryMovement(nil), s.movements...)
	return c
}

type memStore struct {
	mu    sync.Mutex
	state *memState

	// inyección de fallos
	conflicts     int              // intentos que terminan en conflicto al hacer commit
	failDecrement map[string]error // productID → error en Decrement
	delay         time.Duration    // espera dentro de la tx (respeta ctx)
	runs          int
}

var _ sales.TxRunner = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{state: newMemState(), failDecrement: map[string]error{}}
}

func (m *memStore) RunSale(ctx context.Context, fn func(r sales.Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++

	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.state.clone()
	if err := fn(m.repos(work)); err != nil {
		return err
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return fmt.Errorf("%w: commit interrumpido: %v", domain.ErrOutcomeUnknown, ctx.Err())
		}
	}
	if m.conflicts > 0 {
		m.conflicts--
		return fmt.Errorf("%w: could not serialize access", domain.ErrConflictRetryable)
	}
	m.state = work
	return nil
}

func (m *memStore) repos(st *memState) sales.Repos {
	return sales.Repos{
		Sales:     &memSaleRepo{st: st},
		Stock:     &memStockRepo{st: st, fail: m.failDecrement},
		Products:  &memProductRepo{st: st},
		Customers: &memCustomerRepo{st: st},
		Movements: &memMovementRepo{st: st},
	}
}

// readSales repo de lectura fuera de transacción.
func (m *memStore) readSales() repository.SaleRepository {
	return &lockedSaleRepo{m: m}
}

// ── helpers de fixture ─────────────────────────────────────────────────────

func (m *memStore) addProduct(id, code, name, price string, active bool) {
	m.state.products[id] = &entity.Product{
		ID: id, Code: code, Name: name, Price: decimal.RequireFromString(price), Active: active,
	}
}

func (m *memStore) setStock(productID, branchID string, qty int) {
	m.state.stock[stockKey{productID, branchID}] = qty
}

func (m *memStore) stockOf(productID, branchID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.stock[stockKey{productID, branchID}]
}

func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *memStore) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

// ── Sales ──────────────────────────────────────────────────────────────────

type memSaleRepo struct{ st *memState }

func (r *memSaleRepo) NextTicketNumber(context.Context) (int64, error) {
	var latest int64
	for _, s := range r.st.sales {
		if s.TicketNumber > latest {
			latest = s.TicketNumber
		}
	}
	return latest + 1, nil
}

func (r *memSaleRepo) Create(_ context.Context, s *entity.Sale) error {
	for _, other := range r.st.sales {
		if other.Folio == s.Folio || other.TicketNumber == s.TicketNumber {
			return fmt.Errorf("%w: folio %s ya existe", domain.ErrConflictRetryable, s.Folio)
		}
		if s.IdempotencyKey != nil && other.IdempotencyKey != nil &&
			*s.IdempotencyKey == *other.IdempotencyKey && s.UserID == other.UserID {
			return fmt.Errorf("%w: llave de idempotencia en uso", domain.ErrConflictRetryable)
		}
	}
	cp := *s
	r.st.sales[s.ID] = &cp
	return nil
}

func (r *memSaleRepo) CreateLines(_ context.Context, lines []*entity.SaleLine) error {
	for _, l := range lines {
		cp := *l
		r.st.lines[l.SaleID] = append(r.st.lines[l.SaleID], &cp)
	}
	return nil
}

func (r *memSaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	s, ok := r.st.sales[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSaleRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *memSaleRepo) GetByIdempotencyKey(_ context.Context, userID, key string) (*entity.Sale, error) {
	for _, s := range r.st.sales {
		if s.UserID == userID && s.IdempotencyKey != nil && *s.IdempotencyKey == key {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSaleRepo) GetLines(_ context.Context, saleID string) ([]*entity.SaleLine, error) {
	return append([]*entity.SaleLine(nil), r.st.lines[saleID]...), nil
}

func (r *memSaleRepo) MarkVoid(_ context.Context, id string) error {
	s, ok := r.st.sales[id]
	if !ok {
		return domain.ErrNotFound
	}
	if s.Status == entity.SaleStatusVoid {
		return domain.ErrAlreadyVoided
	}
	s.Status = entity.SaleStatusVoid
	now := time.Now()
	s.VoidedAt = &now
	return nil
}

func (r *memSaleRepo) ListByBranch(_ context.Context, branchID string, limit, offset int) ([]*entity.Sale, int, error) {
	var list []*entity.Sale
	for _, s := range r.st.sales {
		if s.BranchID == branchID {
			cp := *s
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TicketNumber > list[j].TicketNumber })
	total := len(list)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return list[offset:end], total, nil
}

// lockedSaleRepo lee el estado confirmado tomando el mutex del store.
type lockedSaleRepo struct{ m *memStore }

func (r *lockedSaleRepo) inner() *memSaleRepo { return &memSaleRepo{st: r.m.state} }

func (r *lockedSaleRepo) NextTicketNumber(ctx context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.inner().NextTicketNumber(ctx)
}
func (r *lockedSaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.inner().Create(ctx, s)
}
func (r *lockedSaleRepo) CreateLines(ctx context.Context, l []*entity.SaleLine) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.inner().CreateLines(ctx, l)
}
func (r *lockedSaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.inner().GetByID(ctx, id)
}
func (r *lockedSaleRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}
func (r *lockedSaleRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Sale, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.inner().GetByIdempotencyKey(ctx, userID, key)
}
func (r *lockedSaleRepo) GetLines(ctx context.Context, saleID string) ([]*entity.SaleLine, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.inner().GetLines(ctx, saleID)
}
func (r *lockedSaleRepo) MarkVoid(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.inner().MarkVoid(ctx, id)
}
func (r *lockedSaleRepo) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.Sale, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.inner().ListByBranch(ctx, branchID, limit, offset)
}

// ── Stock ──────────────────────────────────────────────────────────────────

type memStockRepo struct {
	st   *memState
	fail map[string]error
}

func (r *memStockRepo) Get(_ context.Context, productID, branchID string) (*entity.StockLevel, error) {
	return &entity.StockLevel{ProductID: productID, BranchID: branchID, Quantity: r.st.stock[stockKey{productID, branchID}]}, nil
}

func (r *memStockRepo) GetForUpdate(_ context.Context, productID, branchID string) (*entity.StockLevel, error) {
	q, ok := r.st.stock[stockKey{productID, branchID}]
	if !ok {
		return nil, nil
	}
	return &entity.StockLevel{ProductID: productID, BranchID: branchID, Quantity: q}, nil
}

func (r *memStockRepo) Decrement(_ context.Context, productID, branchID string, qty int) (*entity.StockLevel, error) {
	if err := r.fail[productID]; err != nil {
		return nil, err
	}
	k := stockKey{productID, branchID}
	q, ok := r.st.stock[k]
	if !ok {
		return nil, fmt.Errorf("%w: sin stock para %s", domain.ErrNotFound, productID)
	}
	if q < qty {
		return nil, fmt.Errorf("%w: %s disponible %d, solicitado %d", domain.ErrInsufficientStock, productID, q, qty)
	}
	r.st.stock[k] = q - qty
	return &entity.StockLevel{ProductID: productID, BranchID: branchID, Quantity: q - qty}, nil
}

func (r *memStockRepo) Increment(_ context.Context, productID, branchID string, qty int) (*entity.StockLevel, error) {
	k := stockKey{productID, branchID}
	if r.st.stock[k]+qty < 0 {
		return nil, domain.ErrInsufficientStock
	}
	r.st.stock[k] += qty
	return &entity.StockLevel{ProductID: productID, BranchID: branchID, Quantity: r.st.stock[k]}, nil
}

func (r *memStockRepo) Upsert(_ context.Context, s *entity.StockLevel) error {
	r.st.stock[stockKey{s.ProductID, s.BranchID}] = s.Quantity
	return nil
}

// ── Products / Customers / Movements ───────────────────────────────────────

type memProductRepo struct{ st *memState }

func (r *memProductRepo) Create(_ context.Context, p *entity.Product) error {
	cp := *p
	r.st.products[p.ID] = &cp
	return nil
}
func (r *memProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
func (r *memProductRepo) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	for _, p := range r.st.products {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}
func (r *memProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	out := map[string]*entity.Product{}
	for _, id := range ids {
		if p, _ := r.GetByID(ctx, id); p != nil {
			out[id] = p
		}
	}
	return out, nil
}
func (r *memProductRepo) Update(_ context.Context, p *entity.Product) error {
	cp := *p
	r.st.products[p.ID] = &cp
	return nil
}
func (r *memProductRepo) SetActive(_ context.Context, id string, active bool) error {
	p, ok := r.st.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Active = active
	return nil
}
func (r *memProductRepo) List(context.Context, repository.ProductFilter) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.st.products {
		out = append(out, p)
	}
	return out, nil
}

type memCustomerRepo struct{ st *memState }

func (r *memCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	return r.st.customers[id], nil
}

type memMovementRepo struct{ st *memState }

func (r *memMovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	cp := *m
	r.st.movements = append(r.st.movements, &cp)
	return nil
}
func (r *memMovementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	for _, m := range r.st.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ── Audit ──────────────────────────────────────────────────────────────────

type auditEntry struct {
	actorID, action, entityType, entityID string
	details                               any
}

type memAudit struct {
	mu      sync.Mutex
	entries []auditEntry
	failErr error
}

func (a *memAudit) Append(_ context.Context, actorID, action, entityType, entityID string, details any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failErr != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditWrite, a.failErr)
	}
	a.entries = append(a.entries, auditEntry{actorID, action, entityType, entityID, details})
	return nil
}

func (a *memAudit) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
