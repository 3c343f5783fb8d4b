// Package sale contiene la aritmética de una venta: totales, impuesto, cambio y folio.
package sale

import "github.com/shopspring/decimal"

// TaxRate IVA fijo aplicado al subtotal de la venta.
var TaxRate = decimal.RequireFromString("0.16")

// MoneyPlaces decimales con que se guardan los importes.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// LineInput datos de una línea necesarios para calcular totales.
type LineInput struct {
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal // 0..100
}

// LineTotals importes calculados de una línea.
type LineTotals struct {
	Gross    decimal.Decimal
	Discount decimal.Decimal
	Subtotal decimal.Decimal
}

// Totals resultado del cálculo de una venta. Importes redondeados a centavos.
type Totals struct {
	Lines    []LineTotals
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Change   decimal.Decimal
}

// ComputeTotals calcula los totales de la venta.
// La suma de líneas es exacta y se redondea (half-up) a centavos una sola vez, así el resultado
// no depende del orden de las líneas. El IVA sale del subtotal ya redondeado y
// Total = Subtotal + Tax se cumple al centavo.
func ComputeTotals(lines []LineInput, method PaymentMethod, amountPaid decimal.Decimal) Totals {
	out := Totals{Lines: make([]LineTotals, len(lines))}

	subtotal := decimal.Zero
	discount := decimal.Zero
	for i, l := range lines {
		gross := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		lineDiscount := gross.Mul(l.DiscountPercent).Div(hundred)
		lineSubtotal := gross.Sub(lineDiscount)

		subtotal = subtotal.Add(lineSubtotal)
		discount = discount.Add(lineDiscount)
		out.Lines[i] = LineTotals{
			Gross:    gross.Round(MoneyPlaces),
			Discount: lineDiscount.Round(MoneyPlaces),
			Subtotal: lineSubtotal.Round(MoneyPlaces),
		}
	}

	out.Subtotal = subtotal.Round(MoneyPlaces)
	out.Tax = out.Subtotal.Mul(TaxRate).Round(MoneyPlaces)
	out.Discount = discount.Round(MoneyPlaces)
	out.Total = out.Subtotal.Add(out.Tax)
	out.Change = decimal.Zero
	if method.IsCash() {
		if c := amountPaid.Sub(out.Total); c.IsPositive() {
			out.Change = c.Round(MoneyPlaces)
		}
	}
	return out
}

// FitsCents indica si d no tiene más de dos decimales significativos (1.500 sí, 0.005 no).
func FitsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}
