package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saori-erp/saori-api/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func pgConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isRetryable conflictos de concurrencia: la transacción completa puede repetirse desde cero.
func isRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// classify traduce errores de pgx a errores de dominio. Los de dominio pasan sin cambios;
// contexto cancelado o vencido también, para que el caso de uso decida.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isDomainError(err):
		return err
	case isRetryable(err):
		return fmt.Errorf("%w: %s: %v", domain.ErrConflictRetryable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrInvalidOrder, domain.ErrDuplicate,
		domain.ErrInsufficientStock, domain.ErrConflictRetryable, domain.ErrPersistence,
		domain.ErrAlreadyVoided, domain.ErrForbidden, domain.ErrUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
