package audit

import (
	"context"
	"fmt"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/permission"
	"github.com/saori-erp/saori-api/internal/domain/repository"
)

// LogUseCase consulta de la bitácora.
type LogUseCase struct {
	repo repository.ActivityLogRepository
}

// NewLogUseCase construye el caso de uso.
func NewLogUseCase(repo repository.ActivityLogRepository) *LogUseCase {
	return &LogUseCase{repo: repo}
}

// List devuelve la página solicitada, más recientes primero, con mensajes formateados. Requiere logs:read.
func (uc *LogUseCase) List(ctx context.Context, actor dto.Actor, page dto.PageRequest) (*dto.LogListResponse, error) {
	if !permission.Has(permission.Role(actor.Role), permission.LogsRead) {
		return nil, domain.ErrForbidden
	}
	page = page.Normalize()

	entries, total, err := uc.repo.List(ctx, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("%w: listar bitácora: %v", domain.ErrPersistence, err)
	}

	out := &dto.LogListResponse{
		Logs:       make([]dto.LogEntryResponse, 0, len(entries)),
		Pagination: dto.NewPagination(page, total),
	}
	for _, e := range entries {
		out.Logs = append(out.Logs, dto.LogEntryResponse{
			ID:        e.ID,
			UserID:    e.UserID,
			UserName:  e.UserName,
			Action:    e.Action,
			Entity:    e.Entity,
			EntityID:  e.EntityID,
			Message:   FormatMessage(e),
			Details:   e.Details,
			Timestamp: e.CreatedAt,
		})
	}
	return out, nil
}
