package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/repository"
)

var _ repository.ActivityLogRepository = (*ActivityLogRepo)(nil)

// ActivityLogRepo bitácora sobre PostgreSQL. Solo inserta y lee.
type ActivityLogRepo struct {
	q Querier
}

// NewActivityLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewActivityLogRepository(q Querier) *ActivityLogRepo {
	return &ActivityLogRepo{q: q}
}

// Create agrega una entrada.
func (r *ActivityLogRepo) Create(ctx context.Context, e *entity.ActivityLog) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	var details any
	if len(e.Details) > 0 {
		details = string(e.Details)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO activity_logs (id, user_id, action, entity, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
		e.ID, e.UserID, e.Action, e.Entity, e.EntityID, details, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// List entradas más recientes primero con el nombre del usuario, y el total de registros.
func (r *ActivityLogRepo) List(ctx context.Context, limit, offset int) ([]*entity.ActivityLog, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM activity_logs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT a.id, a.user_id, COALESCE(u.name, ''), a.action, a.entity, a.entity_id, COALESCE(a.details::text, ''), a.created_at
		FROM activity_logs a
		LEFT JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at DESC, a.id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.ActivityLog
	for rows.Next() {
		var e entity.ActivityLog
		var details string
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.Action, &e.Entity, &e.EntityID, &details, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan activity log: %w", err)
		}
		if details != "" {
			e.Details = []byte(details)
		}
		list = append(list, &e)
	}
	return list, total, rows.Err()
}
