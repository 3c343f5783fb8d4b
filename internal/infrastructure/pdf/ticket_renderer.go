// Package pdf genera el ticket imprimible de una venta.
//
// Layout (rollo de 80 mm):
//
//	┌──────────────────────────┐
//	│  Tienda / Sucursal       │
//	│  Folio + Fecha + Cajero  │
//	│  ──────────────────────  │
//	│  Cant | Producto | Imp.  │
//	│  ──────────────────────  │
//	│  Subtotal / IVA / Total  │
//	│  Pago / Cambio           │
//	│  QR con el folio         │
//	└──────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/saori-erp/saori-api/internal/application/sales"
	"github.com/saori-erp/saori-api/internal/domain/entity"
)

var _ sales.TicketRenderer = (*TicketRenderer)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

const (
	ticketWidth = 80 // mm
	ticketBase  = 130
	lineHeight  = 5
)

// TicketRenderer genera el ticket con Maroto v2.
type TicketRenderer struct {
	storeName string
}

// NewTicketRenderer construye el generador. storeName va en la cabecera.
func NewTicketRenderer(storeName string) *TicketRenderer {
	return &TicketRenderer{storeName: storeName}
}

// RenderTicket devuelve los bytes del PDF. La venta debe traer sus líneas.
func (g *TicketRenderer) RenderTicket(s *entity.Sale) ([]byte, error) {
	cfg := config.NewBuilder().
		WithDimensions(ticketWidth, ticketBase+float64(len(s.Lines)*lineHeight)).
		WithLeftMargin(4).WithRightMargin(4).
		WithTopMargin(4).WithBottomMargin(4).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 7}).
		WithTitle("Ticket "+s.Folio, true).
		WithAuthor(g.storeName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRows(g.storeName, s)...)
	m.AddRows(line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(s.Lines)...)
	m.AddRows(line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(s)...)
	m.AddRows(footerRows(s)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar ticket: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRows(storeName string, s *entity.Sale) []core.Row {
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(text.New(storeName, props.Text{
			Style: fontstyle.Bold, Size: 11, Align: align.Center, Color: colorPrimary,
		}))),
	}
	if s.BranchName != "" {
		rows = append(rows, row.New(4).Add(col.New(12).Add(text.New(s.BranchName, props.Text{
			Size: 7, Align: align.Center, Color: colorGray,
		}))))
	}
	rows = append(rows,
		row.New(5).Add(
			col.New(6).Add(text.New("Ticket "+s.Folio, props.Text{Style: fontstyle.Bold, Size: 8})),
			col.New(6).Add(text.New(s.CreatedAt.Format("02/01/2006 15:04"), props.Text{Size: 7, Align: align.Right})),
		),
		row.New(4).Add(col.New(12).Add(text.New("Atendió: "+nonEmpty(s.UserName, "—"), props.Text{
			Size: 7, Color: colorGray,
		}))),
	)
	if s.IsVoid() {
		rows = append(rows, row.New(6).Add(col.New(12).Add(text.New("CANCELADA", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Center,
		}))))
	}
	return rows
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Align: a}))
	}
	return row.New(lineHeight).Add(
		h("Cant.", 2, align.Left),
		h("Producto", 6, align.Left),
		h("Importe", 4, align.Right),
	)
}

func lineRows(lines []*entity.SaleLine) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		name := l.ProductName
		if l.DiscountPercent.IsPositive() {
			name += fmt.Sprintf(" (-%s%%)", l.DiscountPercent.String())
		}
		out = append(out, row.New(lineHeight).Add(
			col.New(2).Add(text.New(fmt.Sprintf("%d", l.Quantity), props.Text{Size: 7})),
			col.New(6).Add(text.New(name, props.Text{Size: 7})),
			col.New(4).Add(text.New(formatMoney(l.Subtotal), props.Text{Size: 7, Align: align.Right})),
		))
	}
	return out
}

func totalsRows(s *entity.Sale) []core.Row {
	pair := func(label, value string, bold bool) core.Row {
		p := props.Text{Size: 7, Align: align.Right}
		if bold {
			p = props.Text{Size: 9, Align: align.Right, Style: fontstyle.Bold, Color: colorPrimary}
		}
		return row.New(lineHeight).Add(
			col.New(7).Add(text.New(label, p)),
			col.New(5).Add(text.New(value, p)),
		)
	}
	rows := []core.Row{pair("Subtotal:", formatMoney(s.Subtotal), false)}
	if s.Discount.IsPositive() {
		rows = append(rows, pair("Descuento:", "-"+formatMoney(s.Discount), false))
	}
	rows = append(rows,
		pair("IVA 16%:", formatMoney(s.TaxAmount), false),
		pair("TOTAL:", formatMoney(s.Total), true),
		pair("Pago ("+paymentLabel(s.PaymentMethod)+"):", formatMoney(s.AmountPaid), false),
	)
	if s.Change.IsPositive() {
		rows = append(rows, pair("Cambio:", formatMoney(s.Change), false))
	}
	return rows
}

func footerRows(s *entity.Sale) []core.Row {
	return []core.Row{
		row.New(3),
		row.New(28).Add(col.New(12).Add(code.NewQr(s.Folio, props.Rect{Percent: 90, Center: true}))),
		row.New(5).Add(col.New(12).Add(text.New("¡Gracias por su compra!", props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1,
		}))),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func paymentLabel(method string) string {
	switch method {
	case "CASH":
		return "efectivo"
	case "CARD":
		return "tarjeta"
	case "TRANSFER":
		return "transferencia"
	}
	return strings.ToLower(method)
}

// formatMoney $ con separador de miles y dos decimales. Ej: 1234.5 → "$1,234.50".
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + "$" + string(buf) + frac
}
