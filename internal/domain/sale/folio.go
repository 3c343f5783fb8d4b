package sale

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FolioPrefix prefijo de los tickets de venta.
const FolioPrefix = "V-"

// ErrInvalidFolio el texto no es un folio V-NNNNNN válido.
var ErrInvalidFolio = errors.New("folio inválido")

// FormatFolio devuelve el folio del ticket n con al menos 6 dígitos (V-000001).
// Números mayores a 999999 se escriben completos, nunca se truncan.
func FormatFolio(n int64) string {
	return fmt.Sprintf("%s%06d", FolioPrefix, n)
}

// ParseFolio extrae el número de ticket de un folio.
func ParseFolio(s string) (int64, error) {
	digits, ok := strings.CutPrefix(s, FolioPrefix)
	if !ok || digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFolio, s)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFolio, s)
	}
	return n, nil
}

// NextTicketNumber siguiente número a partir del último emitido (0 si no hay ventas).
func NextTicketNumber(latest int64) int64 {
	return latest + 1
}
