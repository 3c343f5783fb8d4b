package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/saori-erp/saori-api/internal/application/auth"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/infrastructure/postgres"
)

const mainBranchID = "main-branch"

type seedUser struct {
	email, password, name, role string
}

type seedProduct struct {
	code, name, price, cost, categoryID string
	stock                               int
}

var (
	seedUsers = []seedUser{
		{"admin@saori.local", "admin123", "Administrador", "ADMIN"},
		{"empleado@saori.local", "empleado123", "Empleado", "VENDEDOR"},
	}
	seedCategories = []entity.Category{
		{ID: "cat-bebidas", Name: "Bebidas", Color: "#3B82F6"},
		{ID: "cat-botanas", Name: "Botanas", Color: "#F59E0B"},
		{ID: "cat-abarrotes", Name: "Abarrotes", Color: "#10B981"},
	}
	seedProducts = []seedProduct{
		{"PROD-001", "Coca-Cola 600ml", "18.00", "12.50", "cat-bebidas", 100},
		{"PROD-002", "Agua natural 1L", "12.00", "7.00", "cat-bebidas", 80},
		{"PROD-003", "Papas fritas 45g", "17.50", "11.00", "cat-botanas", 60},
		{"PROD-004", "Galletas surtidas", "24.00", "15.00", "cat-botanas", 40},
		{"PROD-005", "Arroz 1kg", "32.00", "22.00", "cat-abarrotes", 30},
	}
)

func seedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Carga sucursal, usuarios, categorías y productos de ejemplo (idempotente)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := e.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if _, err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}
			s := &seeder{
				branches:   postgres.NewBranchRepository(pool),
				users:      postgres.NewUserRepository(pool),
				categories: postgres.NewCategoryRepository(pool),
				products:   postgres.NewProductRepository(pool),
				stock:      postgres.NewStockRepository(pool),
				now:        time.Now().UTC(),
			}
			if err := s.run(ctx); err != nil {
				return err
			}
			e.log.Info().
				Int("users", s.created.users).
				Int("categories", s.created.categories).
				Int("products", s.created.products).
				Msg("datos iniciales cargados")
			return nil
		},
	}
}

type seeder struct {
	branches   *postgres.BranchRepo
	users      *postgres.UserRepo
	categories *postgres.CategoryRepo
	products   *postgres.ProductRepo
	stock      *postgres.StockRepo
	now        time.Time

	created struct{ users, categories, products int }
}

func (s *seeder) run(ctx context.Context) error {
	branch, err := s.branches.GetByID(ctx, mainBranchID)
	if err != nil {
		return err
	}
	if branch == nil {
		if err := s.branches.Create(ctx, &entity.Branch{
			ID: mainBranchID, Name: "Sucursal Principal", IsMain: true, CreatedAt: s.now,
		}); err != nil {
			return fmt.Errorf("sucursal: %w", err)
		}
	}

	for _, u := range seedUsers {
		existing, err := s.users.GetByEmail(ctx, u.email)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return err
		}
		if err := s.users.Create(ctx, &entity.User{
			ID: uuid.NewString(), BranchID: mainBranchID, Email: u.email, PasswordHash: hash,
			Name: u.name, Role: u.role, Active: true, CreatedAt: s.now, UpdatedAt: s.now,
		}); err != nil {
			return fmt.Errorf("usuario %s: %w", u.email, err)
		}
		s.created.users++
	}

	for i := range seedCategories {
		c := seedCategories[i]
		err := s.categories.Create(ctx, &c)
		if errors.Is(err, domain.ErrDuplicate) {
			continue
		}
		if err != nil {
			return fmt.Errorf("categoría %s: %w", c.Name, err)
		}
		s.created.categories++
	}

	for _, p := range seedProducts {
		existing, err := s.products.GetByCode(ctx, p.code)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		cost := decimal.RequireFromString(p.cost)
		categoryID := p.categoryID
		product := &entity.Product{
			ID: uuid.NewString(), Code: p.code, Name: p.name,
			Price: decimal.RequireFromString(p.price), Cost: &cost, CategoryID: &categoryID,
			MinStock: 5, Active: true, CreatedAt: s.now, UpdatedAt: s.now,
		}
		if err := s.products.Create(ctx, product); err != nil {
			return fmt.Errorf("producto %s: %w", p.code, err)
		}
		if err := s.stock.Upsert(ctx, &entity.StockLevel{
			ProductID: product.ID, BranchID: mainBranchID, Quantity: p.stock, UpdatedAt: s.now,
		}); err != nil {
			return fmt.Errorf("stock %s: %w", p.code, err)
		}
		s.created.products++
	}
	return nil
}
