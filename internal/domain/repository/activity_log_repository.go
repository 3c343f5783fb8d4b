package repository

import (
	"context"

	"github.com/saori-erp/saori-api/internal/domain/entity"
)

// ActivityLogRepository bitácora append-only: no hay Update ni Delete.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *entity.ActivityLog) error
	// List más recientes primero, con el nombre del usuario; devuelve también el total.
	List(ctx context.Context, limit, offset int) ([]*entity.ActivityLog, int, error)
}
