package sales_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/application/sales"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
)

type stubRenderer struct {
	got *entity.Sale
	err error
}

func (r *stubRenderer) RenderTicket(s *entity.Sale) ([]byte, error) {
	r.got = s
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4"), nil
}

func seedSales(t *testing.T, f *fixture, n int) []*dto.SaleResult {
	t.Helper()
	out := make([]*dto.SaleResult, 0, n)
	for i := 0; i < n; i++ {
		res, err := f.uc.CreateSale(context.Background(), vendedor, cashSale(item("p-1", 1, "100")))
		require.NoError(t, err)
		out = append(out, res)
	}
	return out
}

func TestQuery_GetSaleConLineas(t *testing.T) {
	f := newFixture(t, sales.Options{})
	res := seedSales(t, f, 1)[0]
	q := sales.NewQueryUseCase(f.store.readSales(), nil)

	got, err := q.GetSale(context.Background(), vendedor, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "V-000001", got.Folio)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "PROD-001", got.Items[0].ProductCode)
	assert.True(t, d("116").Equal(got.Total))
}

func TestQuery_OtraSucursalSoloAdmin(t *testing.T) {
	f := newFixture(t, sales.Options{})
	res := seedSales(t, f, 1)[0]
	q := sales.NewQueryUseCase(f.store.readSales(), nil)

	foreign := dto.Actor{UserID: "u-7", BranchID: branchNorth, Role: "SUPERVISOR"}
	_, err := q.GetSale(context.Background(), foreign, res.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	adminNorth := dto.Actor{UserID: "u-8", BranchID: branchNorth, Role: "ADMIN"}
	_, err = q.GetSale(context.Background(), adminNorth, res.ID)
	assert.NoError(t, err)

	_, err = q.GetSale(context.Background(), dto.Actor{UserID: "x", BranchID: branchMain, Role: "CAJERO"}, res.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestQuery_ListSalesPaginado(t *testing.T) {
	f := newFixture(t, sales.Options{})
	seedSales(t, f, 5)
	q := sales.NewQueryUseCase(f.store.readSales(), nil)

	page, err := q.ListSales(context.Background(), vendedor, dto.PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Sales, 2)
	assert.Equal(t, "V-000005", page.Sales[0].Folio, "más recientes primero")
	assert.Equal(t, "V-000004", page.Sales[1].Folio)
	assert.Equal(t, 5, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)

	last, err := q.ListSales(context.Background(), vendedor, dto.PageRequest{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, last.Sales, 1)
	assert.Equal(t, "V-000001", last.Sales[0].Folio)

	north, err := q.ListSales(context.Background(), dto.Actor{UserID: "u-7", BranchID: branchNorth, Role: "VENDEDOR"}, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, north.Sales)
}

func TestQuery_TicketPDF(t *testing.T) {
	f := newFixture(t, sales.Options{})
	res := seedSales(t, f, 1)[0]
	r := &stubRenderer{}
	q := sales.NewQueryUseCase(f.store.readSales(), r)

	pdf, name, err := q.TicketPDF(context.Background(), vendedor, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "ticket-V-000001.pdf", name)
	assert.NotEmpty(t, pdf)
	require.NotNil(t, r.got)
	assert.Len(t, r.got.Lines, 1, "el ticket se genera con las líneas")

	r.err = errors.New("fuente no encontrada")
	_, _, err = q.TicketPDF(context.Background(), vendedor, res.ID)
	assert.Error(t, err)

	_, _, err = sales.NewQueryUseCase(f.store.readSales(), nil).TicketPDF(context.Background(), vendedor, res.ID)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
