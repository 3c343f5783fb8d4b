// saorictl tareas de operación: migraciones, datos iniciales e importación de catálogo.
//
// Uso:
//
//	saorictl migrate
//	saorictl seed
//	saorictl import-products productos.csv --as admin@saori.local
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/saori-erp/saori-api/internal/infrastructure/postgres"
	"github.com/saori-erp/saori-api/pkg/config"
	"github.com/saori-erp/saori-api/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env configuración compartida por los subcomandos.
type env struct {
	envFile string
	cfg     *config.Config
	log     *logger.Logger
}

func rootCmd() *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:           "saorictl",
		Short:         "Herramientas de operación de Saori",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if e.envFile != "" {
				if err := godotenv.Load(e.envFile); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("leer %s: %w", e.envFile, err)
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&e.envFile, "env-file", ".env", "archivo de variables de entorno")

	cmd.AddCommand(migrateCmd(e), seedCmd(e), importProductsCmd(e))
	return cmd
}

func (e *env) pool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, e.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	return pool, nil
}

func migrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := e.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				e.log.Info().Msg("sin migraciones pendientes")
				return nil
			}
			e.log.Info().Strs("migrations", applied).Msg("migraciones aplicadas")
			return nil
		},
	}
}
