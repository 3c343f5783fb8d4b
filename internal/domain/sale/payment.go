package sale

import "strings"

// PaymentMethod forma de pago de una venta.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentOther    PaymentMethod = "OTHER"
)

// IsCash indica si el método entrega cambio. Solo efectivo.
func (m PaymentMethod) IsCash() bool { return m == PaymentCash }

// ParsePaymentMethod normaliza el método recibido; vacío equivale a CASH.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case "":
		return PaymentCash, true
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return m, true
	}
	return m, false
}
