package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/saori-erp/saori-api/internal/application/audit"
	"github.com/saori-erp/saori-api/internal/application/catalog"
	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/infrastructure/postgres"
	"github.com/saori-erp/saori-api/pkg/metrics"
)

// productRow fila del CSV de catálogo.
type productRow struct {
	line     int
	code     string
	name     string
	price    decimal.Decimal
	cost     *decimal.Decimal
	category string
	stock    int
}

// Encabezados aceptados (español o inglés) → columna canónica.
var headerAliases = map[string]string{
	"codigo": "code", "código": "code", "code": "code",
	"nombre": "name", "name": "name",
	"precio": "price", "price": "price",
	"costo": "cost", "cost": "cost",
	"categoria": "category", "categoría": "category", "category": "category",
	"stock": "stock", "existencia": "stock",
}

func importProductsCmd(e *env) *cobra.Command {
	var (
		asEmail string
		latin1  bool
		sep     string
	)
	cmd := &cobra.Command{
		Use:   "import-products <archivo.csv>",
		Short: "Importa o actualiza productos desde un CSV (exportado de Excel en Latin-1 por defecto)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var r io.Reader = f
			if latin1 {
				r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
			}
			comma := ','
			if sep != "" {
				comma = []rune(sep)[0]
			}
			rows, err := parseProductsCSV(r, comma)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := e.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			user, err := postgres.NewUserRepository(pool).GetByEmail(ctx, asEmail)
			if err != nil {
				return err
			}
			if user == nil || !user.Active {
				return fmt.Errorf("usuario %q no existe o está inactivo", asEmail)
			}
			actor := dto.Actor{UserID: user.ID, BranchID: user.BranchID, Role: user.Role, Name: user.Name}

			recorder := audit.NewRecorder(postgres.NewActivityLogRepository(pool), e.log, metrics.New(prometheus.NewRegistry()))
			uc := catalog.NewProductUseCase(
				postgres.NewProductRepository(pool),
				postgres.NewCategoryRepository(pool),
				postgres.NewTxRunner(pool),
				recorder, e.log,
			)
			imp := &importer{uc: uc, products: postgres.NewProductRepository(pool), categories: postgres.NewCategoryRepository(pool)}
			res, err := imp.apply(ctx, actor, rows)
			if err != nil {
				return err
			}
			e.log.Info().Int("created", res.created).Int("updated", res.updated).Int("failed", len(res.failed)).Msg("importación terminada")
			for _, msg := range res.failed {
				e.log.Warn().Msg(msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&asEmail, "as", "admin@saori.local", "usuario que firma la importación en la bitácora")
	cmd.Flags().BoolVar(&latin1, "latin1", true, "el archivo viene en ISO-8859-1")
	cmd.Flags().StringVar(&sep, "sep", ",", "separador de columnas")
	return cmd
}

// parseProductsCSV lee el CSV con encabezado. code es opcional (se genera); name y price obligatorios.
func parseProductsCSV(r io.Reader, comma rune) ([]productRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canon, ok := headerAliases[key]; ok {
			idx[canon] = i
		}
	}
	for _, required := range []string{"name", "price"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("falta la columna %q", required)
		}
	}

	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []productRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		row := productRow{line: line, code: get(rec, "code"), name: get(rec, "name"), category: get(rec, "category")}
		if row.name == "" {
			return nil, fmt.Errorf("línea %d: nombre vacío", line)
		}
		if row.price, err = parseMoney(get(rec, "price")); err != nil {
			return nil, fmt.Errorf("línea %d: precio: %w", line, err)
		}
		if c := get(rec, "cost"); c != "" {
			cost, err := parseMoney(c)
			if err != nil {
				return nil, fmt.Errorf("línea %d: costo: %w", line, err)
			}
			row.cost = &cost
		}
		if s := get(rec, "stock"); s != "" {
			if row.stock, err = strconv.Atoi(s); err != nil || row.stock < 0 {
				return nil, fmt.Errorf("línea %d: stock inválido %q", line, s)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseMoney acepta "$1,234.50" o "1234.5".
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	return decimal.NewFromString(s)
}

type importResult struct {
	created, updated int
	failed           []string
}

type importer struct {
	uc         *catalog.ProductUseCase
	products   *postgres.ProductRepo
	categories *postgres.CategoryRepo
}

// apply crea los productos nuevos y actualiza nombre/precio/costo de los existentes (por código).
// Una fila rechazada por validación no detiene la importación.
func (imp *importer) apply(ctx context.Context, actor dto.Actor, rows []productRow) (*importResult, error) {
	cats, err := imp.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	catByName := make(map[string]string, len(cats))
	for _, c := range cats {
		catByName[strings.ToLower(c.Name)] = c.ID
	}

	res := &importResult{}
	for _, row := range rows {
		var categoryID *string
		if id, ok := catByName[strings.ToLower(row.category)]; ok {
			categoryID = &id
		}

		var existingID string
		if row.code != "" {
			p, err := imp.products.GetByCode(ctx, row.code)
			if err != nil {
				return nil, err
			}
			if p != nil {
				existingID = p.ID
			}
		}

		if existingID != "" {
			name, price := row.name, row.price
			_, err = imp.uc.UpdateProduct(ctx, actor, existingID, dto.UpdateProductRequest{
				Name: &name, Price: &price, Cost: row.cost, CategoryID: categoryID,
			})
			if err == nil {
				res.updated++
			}
		} else {
			_, err = imp.uc.CreateProduct(ctx, actor, dto.CreateProductRequest{
				Code: row.code, Name: row.name, Price: row.price, Cost: row.cost,
				CategoryID: categoryID, Stock: row.stock,
			})
			if err == nil {
				res.created++
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrNotFound):
			res.failed = append(res.failed, fmt.Sprintf("línea %d (%s): %v", row.line, row.name, err))
		default:
			return nil, fmt.Errorf("línea %d: %w", row.line, err)
		}
	}
	return res, nil
}
