// Package audit escribe y consulta la bitácora de actividad.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/repository"
	"github.com/saori-erp/saori-api/pkg/logger"
	"github.com/saori-erp/saori-api/pkg/metrics"
)

// Recorder agrega entradas append-only a la bitácora.
type Recorder struct {
	repo    repository.ActivityLogRepository
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRecorder construye el recorder.
func NewRecorder(repo repository.ActivityLogRepository, log *logger.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{repo: repo, log: log.Component("audit"), metrics: m, now: time.Now}
}

// Append escribe una entrada. entity y entityID vacíos se guardan como NULL; details se serializa a JSON.
// Un fallo se registra en log y en saori_audit_write_failures_total y se devuelve envuelto en ErrAuditWrite:
// el llamador decide si lo ignora (las operaciones ya confirmadas no se revierten).
func (r *Recorder) Append(ctx context.Context, actorID, action, entityType, entityID string, details any) error {
	e := &entity.ActivityLog{
		UserID:    actorID,
		Action:    action,
		CreatedAt: r.now(),
	}
	if entityType != "" {
		e.Entity = &entityType
	}
	if entityID != "" {
		e.EntityID = &entityID
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return r.fail(action, entityID, fmt.Errorf("serializar detalles: %w", err))
		}
		e.Details = raw
	}
	if err := r.repo.Create(ctx, e); err != nil {
		return r.fail(action, entityID, err)
	}
	return nil
}

func (r *Recorder) fail(action, entityID string, err error) error {
	r.metrics.AuditWriteFailures.WithLabelValues(action).Inc()
	r.log.Error().Err(err).Str("action", action).Str("entity_id", entityID).Msg("no se pudo escribir la bitácora")
	return fmt.Errorf("%w: %s: %v", domain.ErrAuditWrite, action, err)
}
