package sales_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saori-erp/saori-api/internal/application/audit"
	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/application/sales"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/pkg/logger"
	"github.com/saori-erp/saori-api/pkg/metrics"
)

const (
	branchMain  = "branch-1"
	branchNorth = "branch-2"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *string { return &s }

var vendedor = dto.Actor{UserID: "u-1", BranchID: branchMain, Role: "VENDEDOR", Name: "Ana"}

type fixture struct {
	store *memStore
	audit *memAudit
	m     *metrics.Metrics
	uc    *sales.CreateSaleUseCase
}

// newFixture catálogo base: P1 $100 (10 en main, 7 en north), P2 $50 (1 en main), P3 inactivo.
func newFixture(t *testing.T, opts sales.Options) *fixture {
	t.Helper()
	store := newMemStore()
	store.addProduct("p-1", "PROD-001", "Coca-Cola 600ml", "100", true)
	store.addProduct("p-2", "PROD-002", "Sabritas", "50", true)
	store.addProduct("p-3", "PROD-003", "Descontinuado", "10", false)
	store.setStock("p-1", branchMain, 10)
	store.setStock("p-1", branchNorth, 7)
	store.setStock("p-2", branchMain, 1)
	store.setStock("p-3", branchMain, 5)
	store.state.customers["c-1"] = &entity.Customer{ID: "c-1", Name: "Cliente Mostrador"}

	if opts.RetryInitial == 0 {
		opts.RetryInitial = time.Millisecond
	}
	a := &memAudit{}
	m := metrics.NewForTest()
	return &fixture{
		store: store,
		audit: a,
		m:     m,
		uc:    sales.NewCreateSaleUseCase(store, a, logger.Nop(), m, opts),
	}
}

func cashSale(items ...dto.SaleItemRequest) dto.CreateSaleRequest {
	return dto.CreateSaleRequest{Items: items, PaymentMethod: "CASH", AmountPaid: d("1000")}
}

func item(productID string, qty int, price string) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: productID, Quantity: qty, Price: d(price)}
}

func TestCreateSale_EfectivoConCambio(t *testing.T) {
	f := newFixture(t, sales.Options{})

	res, err := f.uc.CreateSale(context.Background(), vendedor, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{item("p-1", 2, "100")},
		PaymentMethod: "CASH",
		AmountPaid:    d("300"),
	})
	require.NoError(t, err)

	assert.Equal(t, "V-000001", res.Folio)
	assert.True(t, d("232").Equal(res.Total), "total %s", res.Total)
	assert.True(t, d("68").Equal(res.Change), "cambio %s", res.Change)
	assert.False(t, res.Replayed)

	st := f.store.snapshot()
	require.Len(t, st.sales, 1)
	s := st.sales[res.ID]
	require.NotNil(t, s)
	assert.True(t, d("200").Equal(s.Subtotal))
	assert.True(t, d("32").Equal(s.TaxAmount))
	assert.Equal(t, entity.SaleStatusCompleted, s.Status)
	assert.Equal(t, branchMain, s.BranchID)

	require.Len(t, st.lines[res.ID], 1)
	line := st.lines[res.ID][0]
	assert.Equal(t, "Coca-Cola 600ml", line.ProductName)
	assert.Equal(t, "PROD-001", line.ProductCode)
	assert.True(t, d("200").Equal(line.Subtotal))

	assert.Equal(t, 8, st.stock[stockKey{"p-1", branchMain}])
	require.Len(t, st.movements, 1)
	assert.Equal(t, entity.MovementTypeSale, st.movements[0].Type)
	assert.Equal(t, -2, st.movements[0].Quantity)
	assert.Equal(t, res.ID, st.movements[0].ReferenceID)

	require.Equal(t, 1, f.audit.count())
	e := f.audit.entries[0]
	assert.Equal(t, entity.ActionCreateSale, e.action)
	assert.Equal(t, "u-1", e.actorID)
	assert.Equal(t, res.ID, e.entityID)
	details := e.details.(map[string]any)
	assert.Equal(t, "V-000001", details["folio"])
	assert.Equal(t, "V-000001", details["ticketCode"])
	assert.Equal(t, 1, details["lineCount"])
	assert.Equal(t, "CASH", details["paymentMethod"])

	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.SalesCommitted))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.m.SaleCommitRetries))
}

func TestCreateSale_TarjetaConDescuento(t *testing.T) {
	f := newFixture(t, sales.Options{})

	res, err := f.uc.CreateSale(context.Background(), vendedor, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: "p-1", Quantity: 1, Price: d("100"), Discount: d("10")}},
		PaymentMethod: "CARD",
		AmountPaid:    d("500"),
	})
	require.NoError(t, err)

	// 100 - 10% = 90; IVA 14.40
	assert.True(t, d("104.40").Equal(res.Total), "total %s", res.Total)
	assert.True(t, res.Change.IsZero(), "tarjeta no genera cambio")

	s := f.store.snapshot().sales[res.ID]
	assert.True(t, d("10").Equal(s.Discount))
	assert.Equal(t, "CARD", s.PaymentMethod)
}

func TestCreateSale_ValidacionSinEfectos(t *testing.T) {
	cases := []struct {
		name  string
		actor dto.Actor
		in    dto.CreateSaleRequest
		want  error
	}{
		{"sin productos", vendedor, dto.CreateSaleRequest{PaymentMethod: "CASH"}, domain.ErrInvalidOrder},
		{"cantidad cero", vendedor, cashSale(item("p-1", 0, "100")), domain.ErrInvalidOrder},
		{"cantidad negativa", vendedor, cashSale(item("p-1", -1, "100")), domain.ErrInvalidOrder},
		{"precio negativo", vendedor, cashSale(item("p-1", 1, "-1")), domain.ErrInvalidOrder},
		{"descuento mayor a 100", vendedor, cashSale(dto.SaleItemRequest{ProductID: "p-1", Quantity: 1, Price: d("1"), Discount: d("101")}), domain.ErrInvalidOrder},
		{"precio con tres decimales", vendedor, cashSale(item("p-1", 1, "0.005")), domain.ErrInvalidOrder},
		{"descuento con tres decimales", vendedor, cashSale(dto.SaleItemRequest{ProductID: "p-1", Quantity: 1, Price: d("1"), Discount: d("33.333")}), domain.ErrInvalidOrder},
		{"monto pagado con tres decimales", vendedor, dto.CreateSaleRequest{Items: []dto.SaleItemRequest{item("p-1", 1, "1")}, PaymentMethod: "CASH", AmountPaid: d("10.001")}, domain.ErrInvalidOrder},
		{"producto vacío", vendedor, cashSale(item(" ", 1, "1")), domain.ErrInvalidOrder},
		{"método desconocido", vendedor, dto.CreateSaleRequest{Items: []dto.SaleItemRequest{item("p-1", 1, "1")}, PaymentMethod: "BITCOIN"}, domain.ErrInvalidOrder},
		{"monto pagado negativo", vendedor, dto.CreateSaleRequest{Items: []dto.SaleItemRequest{item("p-1", 1, "1")}, AmountPaid: d("-5")}, domain.ErrInvalidOrder},
		{"sin sucursal", dto.Actor{UserID: "u-1", Role: "VENDEDOR"}, cashSale(item("p-1", 1, "1")), domain.ErrInvalidOrder},
		{"sin usuario", dto.Actor{BranchID: branchMain, Role: "VENDEDOR"}, cashSale(item("p-1", 1, "1")), domain.ErrUnauthorized},
		{"rol sin permiso", dto.Actor{UserID: "u-9", BranchID: branchMain, Role: "CAJERO"}, cashSale(item("p-1", 1, "1")), domain.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, sales.Options{})

			res, err := f.uc.CreateSale(context.Background(), tc.actor, tc.in)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tc.want), "error %v", err)

			assert.Equal(t, 0, f.store.runCount(), "no debe abrir transacción")
			assert.Empty(t, f.store.snapshot().sales)
			assert.Equal(t, 0, f.audit.count())
		})
	}
}

func TestCreateSale_ProductoInactivoOInexistente(t *testing.T) {
	for _, id := range []string{"p-3", "p-404"} {
		f := newFixture(t, sales.Options{})
		_, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item(id, 1, "10")))
		assert.ErrorIs(t, err, domain.ErrInvalidOrder, id)
		assert.Empty(t, f.store.snapshot().sales)
	}
}

func TestCreateSale_ClienteInexistente(t *testing.T) {
	f := newFixture(t, sales.Options{})

	in := cashSale(item("p-1", 1, "100"))
	in.CustomerID = ptr("c-404")
	_, err := f.uc.CreateSale(context.Background(), vendedor, in)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	in.CustomerID = ptr("c-1")
	res, err := f.uc.CreateSale(context.Background(), vendedor, in)
	require.NoError(t, err)
	assert.Equal(t, "c-1", *f.store.snapshot().sales[res.ID].CustomerID)
}

func TestCreateSale_StockInsuficienteEnUltimaLineaRevierteTodo(t *testing.T) {
	f := newFixture(t, sales.Options{})
	before := f.store.snapshot()

	_, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(
		item("p-1", 3, "100"),
		item("p-2", 5, "50"), // solo hay 1
	))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	after := f.store.snapshot()
	assert.Empty(t, after.sales)
	assert.Empty(t, after.lines)
	assert.Empty(t, after.movements)
	assert.Equal(t, before.stock, after.stock, "el stock no cambia si la venta se rechaza")
	assert.Equal(t, 0, f.audit.count())
	assert.Equal(t, 1, f.store.runCount(), "stock insuficiente no se reintenta")
	assert.Equal(t, 0.0, testutil.ToFloat64(f.m.SalesCommitted))
}

func TestCreateSale_SinFilaDeStockEsInsuficiente(t *testing.T) {
	f := newFixture(t, sales.Options{})

	// p-2 no tiene fila en north
	actor := vendedor
	actor.BranchID = branchNorth
	_, err := f.uc.CreateSale(context.Background(), actor, cashSale(item("p-2", 1, "50")))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestCreateSale_ConservaStockDeOtrosProductosYSucursales(t *testing.T) {
	f := newFixture(t, sales.Options{})
	before := f.store.snapshot()

	_, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item("p-1", 4, "100")))
	require.NoError(t, err)

	after := f.store.snapshot()
	for k, q := range before.stock {
		if k == (stockKey{"p-1", branchMain}) {
			assert.Equal(t, q-4, after.stock[k])
			continue
		}
		assert.Equal(t, q, after.stock[k], "%v no debe cambiar", k)
	}

	// stock inicial = stock final + vendido
	sold := 0
	for _, m := range after.movements {
		sold -= m.Quantity
	}
	assert.Equal(t, before.stock[stockKey{"p-1", branchMain}], after.stock[stockKey{"p-1", branchMain}]+sold)
}

func TestCreateSale_FoliosSecuenciales(t *testing.T) {
	f := newFixture(t, sales.Options{})

	var folios []string
	for i := 0; i < 3; i++ {
		res, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item("p-1", 1, "100")))
		require.NoError(t, err)
		folios = append(folios, res.Folio)
	}
	assert.Equal(t, []string{"V-000001", "V-000002", "V-000003"}, folios)

	// un rechazo no consume folio
	_, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item("p-2", 99, "50")))
	require.Error(t, err)
	res, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item("p-1", 1, "100")))
	require.NoError(t, err)
	assert.Equal(t, "V-000004", res.Folio)
}

func TestCreateSale_ConcurrentesFoliosUnicosYContiguos(t *testing.T) {
	const n = 25
	f := newFixture(t, sales.Options{})
	f.store.setStock("p-1", branchMain, n)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		folios []string
		errs   []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item("p-1", 1, "100")))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			folios = append(folios, res.Folio)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Strings(folios)
	want := make([]string, n)
	for i := range want {
		want[i] = fmt.Sprintf("V-%06d", i+1)
	}
	assert.Equal(t, want, folios)
	assert.Equal(t, 0, f.store.stockOf("p-1", branchMain))
	assert.Equal(t, float64(n), testutil.ToFloat64(f.m.SalesCommitted))
}

func TestCreateSale_ReintentaConflictos(t *testing.T) {
	f := newFixture(t, sales.Options{MaxAttempts: 5})
	f.store.conflicts = 2

	res, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item("p-1", 1, "100")))
	require.NoError(t, err)

	assert.Equal(t, "V-000001", res.Folio, "los intentos fallidos no dejan huecos")
	assert.Equal(t, 3, f.store.runCount())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.m.SaleCommitRetries))
	assert.Equal(t, 9, f.store.stockOf("p-1", branchMain), "el stock se descuenta una sola vez")
	assert.Len(t, f.store.snapshot().movements, 1)
}

func TestCreateSale_ReintentosAgotados(t *testing.T) {
	f := newFixture(t, sales.Options{MaxAttempts: 3})
	f.store.conflicts = 10

	_, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item("p-1", 1, "100")))
	require.ErrorIs(t, err, domain.ErrConflictRetryable)

	assert.Equal(t, 3, f.store.runCount())
	assert.Empty(t, f.store.snapshot().sales)
	assert.Equal(t, 10, f.store.stockOf("p-1", branchMain))
	assert.Equal(t, 0, f.audit.count())
}

func TestCreateSale_ErrorDePersistenciaNoSeReintenta(t *testing.T) {
	f := newFixture(t, sales.Options{MaxAttempts: 5})
	f.store.failDecrement["p-1"] = fmt.Errorf("%w: conexión perdida", domain.ErrPersistence)

	_, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item("p-1", 1, "100")))
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, 1, f.store.runCount())
	assert.Empty(t, f.store.snapshot().sales)
}

func TestCreateSale_FalloDeBitacoraNoRevierteLaVenta(t *testing.T) {
	store := newMemStore()
	store.addProduct("p-1", "PROD-001", "Coca-Cola 600ml", "100", true)
	store.setStock("p-1", branchMain, 10)
	m := metrics.NewForTest()
	rec := audit.NewRecorder(&failingLogRepo{}, logger.Nop(), m)
	uc := sales.NewCreateSaleUseCase(store, rec, logger.Nop(), m, sales.Options{RetryInitial: time.Millisecond})

	res, err := uc.CreateSale(context.Background(), vendedor, cashSale(item("p-1", 1, "100")))
	require.NoError(t, err)
	assert.Equal(t, "V-000001", res.Folio)

	assert.Len(t, store.snapshot().sales, 1)
	assert.Equal(t, 9, store.stockOf("p-1", branchMain))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWriteFailures.WithLabelValues(entity.ActionCreateSale)))
}

func TestCreateSale_LlaveDeIdempotenciaRepite(t *testing.T) {
	f := newFixture(t, sales.Options{})

	in := cashSale(item("p-1", 2, "100"))
	in.IdempotencyKey = "caja1-0001"

	first, err := f.uc.CreateSale(context.Background(), vendedor, in)
	require.NoError(t, err)
	second, err := f.uc.CreateSale(context.Background(), vendedor, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Folio, second.Folio)
	assert.True(t, first.Total.Equal(second.Total))
	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)

	assert.Len(t, f.store.snapshot().sales, 1)
	assert.Equal(t, 8, f.store.stockOf("p-1", branchMain), "sin descuento doble")
	assert.Equal(t, 1, f.audit.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.SalesCommitted))
}

func TestCreateSale_LlaveDeIdempotenciaEsPorUsuario(t *testing.T) {
	f := newFixture(t, sales.Options{})

	in := cashSale(item("p-1", 1, "100"))
	in.IdempotencyKey = "misma-llave"
	other := vendedor
	other.UserID = "u-2"

	a, err := f.uc.CreateSale(context.Background(), vendedor, in)
	require.NoError(t, err)
	b, err := f.uc.CreateSale(context.Background(), other, in)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, b.Replayed)
	assert.Equal(t, 8, f.store.stockOf("p-1", branchMain))
}

func TestCreateSale_LlaveDemasiadoLarga(t *testing.T) {
	f := newFixture(t, sales.Options{})
	in := cashSale(item("p-1", 1, "100"))
	in.IdempotencyKey = string(make([]byte, 129))

	_, err := f.uc.CreateSale(context.Background(), vendedor, in)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestCreateSale_TimeoutEsResultadoDesconocido(t *testing.T) {
	f := newFixture(t, sales.Options{CommitTimeout: 20 * time.Millisecond})
	f.store.delay = 500 * time.Millisecond

	_, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item("p-1", 1, "100")))
	require.ErrorIs(t, err, domain.ErrOutcomeUnknown)
	assert.Equal(t, 0, f.audit.count())
}

func TestCreateSale_ContextoCanceladoAntesDeEmpezar(t *testing.T) {
	f := newFixture(t, sales.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.CreateSale(ctx, vendedor, cashSale(item("p-1", 1, "100")))
	require.ErrorIs(t, err, domain.ErrOutcomeUnknown)
	assert.Empty(t, f.store.snapshot().sales)
}

// failingLogRepo bitácora que siempre falla.
type failingLogRepo struct{}

func (failingLogRepo) Create(context.Context, *entity.ActivityLog) error {
	return errors.New("activity_logs: disco lleno")
}

func (failingLogRepo) List(context.Context, int, int) ([]*entity.ActivityLog, int, error) {
	return nil, 0, nil
}
