package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/pkg/logger"
	"github.com/saori-erp/saori-api/pkg/metrics"
)

// ── fake repo ──────────────────────────────────────────────────────────────

type memLogRepo struct {
	mu      sync.Mutex
	entries []*entity.ActivityLog
	failErr error
	names   map[string]string
}

func (r *memLogRepo) Create(_ context.Context, e *entity.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	cp := *e
	cp.ID = time.Now().Format("150405.000000000")
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *memLogRepo) List(_ context.Context, limit, offset int) ([]*entity.ActivityLog, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := append([]*entity.ActivityLog{}, r.entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	total := len(sorted)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := sorted[offset:end]
	for _, e := range out {
		e.UserName = r.names[e.UserID]
	}
	return out, total, nil
}

func ptr(s string) *string { return &s }

// ── Recorder ───────────────────────────────────────────────────────────────

func TestAppend_GuardaDetallesJSON(t *testing.T) {
	repo := &memLogRepo{}
	rec := NewRecorder(repo, logger.Nop(), metrics.NewForTest())

	err := rec.Append(context.Background(), "u-1", entity.ActionCreateSale, "Sale", "s-1",
		map[string]any{"folio": "V-000001", "total": "232", "items": 1, "paymentMethod": "CASH"})
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.Equal(t, "u-1", e.UserID)
	assert.Equal(t, entity.ActionCreateSale, e.Action)
	require.NotNil(t, e.Entity)
	assert.Equal(t, "Sale", *e.Entity)
	require.NotNil(t, e.EntityID)
	assert.Equal(t, "s-1", *e.EntityID)

	var d map[string]any
	require.NoError(t, json.Unmarshal(e.Details, &d))
	assert.Equal(t, "V-000001", d["folio"])
}

func TestAppend_SinEntidadNiDetalles(t *testing.T) {
	repo := &memLogRepo{}
	rec := NewRecorder(repo, logger.Nop(), metrics.NewForTest())

	require.NoError(t, rec.Append(context.Background(), "u-1", entity.ActionLogin, "", "", nil))
	assert.Nil(t, repo.entries[0].Entity)
	assert.Nil(t, repo.entries[0].EntityID)
	assert.Empty(t, repo.entries[0].Details)
}

func TestAppend_FalloSeCuentaYSeEnvuelve(t *testing.T) {
	repo := &memLogRepo{failErr: errors.New("conexión cerrada")}
	m := metrics.NewForTest()
	rec := NewRecorder(repo, logger.Nop(), m)

	err := rec.Append(context.Background(), "u-1", entity.ActionCreateSale, "Sale", "s-1", nil)
	assert.ErrorIs(t, err, domain.ErrAuditWrite)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWriteFailures.WithLabelValues(entity.ActionCreateSale)))
}

// ── Formatter ──────────────────────────────────────────────────────────────

func TestFormatMessage(t *testing.T) {
	cases := []struct {
		action   string
		details  string
		entityID *string
		want     string
	}{
		{entity.ActionLogin, ``, nil, "Ana inició sesión"},
		{entity.ActionLogout, ``, nil, "Ana cerró sesión"},
		{entity.ActionCreateSale, `{"total":"1624"}`, nil, "Ana registró venta por $1624"},
		{entity.ActionCreateSale, `{"total":232.5}`, nil, "Ana registró venta por $232.5"},
		{entity.ActionCreateSale, `{}`, nil, "Ana registró venta por $0"},
		{entity.ActionDeleteSale, `{"folio":"V-000007"}`, nil, "Ana canceló ticket #V-000007"},
		{entity.ActionDeleteSale, ``, ptr("s-9"), "Ana canceló ticket #s-9"},
		{entity.ActionUpdatePrice, `{"productName":"Coca Cola 600ml","oldPrice":"18","newPrice":"20"}`, nil,
			"Ana cambió precio de Coca Cola 600ml: $18 → $20"},
		{entity.ActionCreateUser, `{"userName":"Luis"}`, nil, "Ana creó usuario Luis"},
		{entity.ActionUpdateUser, `{"userName":"Luis"}`, nil, "Ana modificó usuario Luis"},
		{entity.ActionDeleteUser, `{}`, nil, "Ana eliminó usuario "},
		{"EXPORT_REPORT", ``, nil, "Ana realizó EXPORT_REPORT"},
	}
	for _, tc := range cases {
		e := &entity.ActivityLog{UserName: "Ana", Action: tc.action, EntityID: tc.entityID}
		if tc.details != "" {
			e.Details = json.RawMessage(tc.details)
		}
		assert.Equal(t, tc.want, FormatMessage(e), tc.action)
	}
}

// ── LogUseCase ─────────────────────────────────────────────────────────────

func seedLogs(repo *memLogRepo, n int) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		repo.entries = append(repo.entries, &entity.ActivityLog{
			ID:        logID(i),
			UserID:    "u-1",
			Action:    entity.ActionLogin,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func logID(i int) string { return string(rune('a' + i)) }

func TestList_RequiereLogsRead(t *testing.T) {
	uc := NewLogUseCase(&memLogRepo{})
	_, err := uc.List(context.Background(), dto.Actor{UserID: "u-2", Role: "SUPERVISOR"}, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestList_PaginaYOrden(t *testing.T) {
	repo := &memLogRepo{names: map[string]string{"u-1": "Administrador"}}
	seedLogs(repo, 25)
	uc := NewLogUseCase(repo)
	admin := dto.Actor{UserID: "u-1", Role: "ADMIN"}

	first, err := uc.List(context.Background(), admin, dto.PageRequest{Page: 0, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, dto.Pagination{Page: 1, Limit: 20, Total: 25, TotalPages: 2}, first.Pagination)
	require.Len(t, first.Logs, 20)
	assert.True(t, first.Logs[0].Timestamp.After(first.Logs[1].Timestamp), "más recientes primero")
	assert.Equal(t, "Administrador inició sesión", first.Logs[0].Message)

	second, err := uc.List(context.Background(), admin, dto.PageRequest{Page: 2, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, second.Logs, 5)

	big, err := uc.List(context.Background(), admin, dto.PageRequest{Page: 1, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, big.Pagination.Limit)
}
