package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/pkg/logger"
	"github.com/saori-erp/saori-api/pkg/metrics"
)

// Options parámetros de la unidad de trabajo de una venta.
type Options struct {
	MaxAttempts   int           // intentos totales (1 = sin reintentos)
	RetryInitial  time.Duration // espera antes del primer reintento
	CommitTimeout time.Duration // límite de toda la operación, reintentos incluidos
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 5
	}
	if o.RetryInitial <= 0 {
		o.RetryInitial = 20 * time.Millisecond
	}
	if o.CommitTimeout <= 0 {
		o.CommitTimeout = 10 * time.Second
	}
	return o
}

func (o Options) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.RetryInitial
	b.MaxInterval = 20 * o.RetryInitial
	b.MaxElapsedTime = 0 // el límite lo ponen MaxAttempts y el contexto
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(o.MaxAttempts-1)), ctx)
}

// withRetry repite op solo ante domain.ErrConflictRetryable, con backoff exponencial.
// Cualquier otro error corta de inmediato. Un contexto vencido o cancelado se reporta como
// domain.ErrOutcomeUnknown: el commit pudo haberse aplicado.
func withRetry(ctx context.Context, opts Options, log *logger.Logger, m *metrics.Metrics, op func() error) error {
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			m.SaleCommitRetries.Inc()
		}
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrConflictRetryable) && ctx.Err() == nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("conflicto de concurrencia, reintentando")
			return err
		}
		return backoff.Permanent(err)
	}, opts.backOff(ctx))

	switch {
	case err == nil, errors.Is(err, domain.ErrOutcomeUnknown):
		return err
	case isContextErr(err, ctx):
		return fmt.Errorf("%w: %v", domain.ErrOutcomeUnknown, err)
	}
	return err
}

func isContextErr(err error, ctx context.Context) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(ctx.Err() != nil && !isBusinessErr(err))
}

// isBusinessErr errores cuyo resultado es cierto: la venta no se registró.
func isBusinessErr(err error) bool {
	return errors.Is(err, domain.ErrInvalidOrder) || errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrAlreadyVoided)
}
