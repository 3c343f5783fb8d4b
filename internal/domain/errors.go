package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("no tienes permisos para esta acción")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Venta
	ErrInvalidOrder      = errors.New("la venta es inválida")
	ErrConflictRetryable = errors.New("conflicto de concurrencia, reintentar")
	ErrPersistence       = errors.New("fallo de persistencia")
	ErrAuditWrite        = errors.New("no se pudo registrar la bitácora")
	ErrAlreadyVoided     = errors.New("la venta ya fue cancelada")
	// ErrOutcomeUnknown: el commit pudo o no aplicarse (timeout/cancelación durante la tx).
	// El cliente debe consultar por la llave de idempotencia en lugar de reintentar a ciegas.
	ErrOutcomeUnknown = errors.New("resultado desconocido, consulte la venta por su llave de idempotencia")
)
