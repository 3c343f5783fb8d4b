package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/saori-erp/saori-api/internal/application/audit"
	"github.com/saori-erp/saori-api/internal/application/auth"
	"github.com/saori-erp/saori-api/internal/application/catalog"
	"github.com/saori-erp/saori-api/internal/application/sales"
	infrapdf "github.com/saori-erp/saori-api/internal/infrastructure/pdf"
	"github.com/saori-erp/saori-api/internal/infrastructure/postgres"
	httpRouter "github.com/saori-erp/saori-api/internal/interfaces/http"
	"github.com/saori-erp/saori-api/pkg/config"
	"github.com/saori-erp/saori-api/pkg/logger"
	"github.com/saori-erp/saori-api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	// Montos como números JSON (232.00 → 232), no como cadenas.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.App.Env == "development" {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		if len(applied) > 0 {
			log.Info().Strs("migrations", applied).Msg("migraciones aplicadas")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	logRepo := postgres.NewActivityLogRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	recorder := audit.NewRecorder(logRepo, log, m)
	saleOpts := sales.Options{
		MaxAttempts:   cfg.Sales.MaxAttempts,
		RetryInitial:  cfg.Sales.RetryInitial,
		CommitTimeout: cfg.Sales.CommitTimeout,
	}
	createSaleUC := sales.NewCreateSaleUseCase(txRunner, recorder, log, m, saleOpts)
	voidSaleUC := sales.NewVoidSaleUseCase(txRunner, recorder, log, m, saleOpts)
	saleQueryUC := sales.NewQueryUseCase(saleRepo, infrapdf.NewTicketRenderer(cfg.App.StoreName))
	logUC := audit.NewLogUseCase(logRepo)
	catalogUC := catalog.NewProductUseCase(productRepo, categoryRepo, txRunner, recorder, log)
	authUC := auth.NewAuthUseCase(userRepo, recorder, auth.JWTConfig{
		Secret:            cfg.JWT.Secret,
		ExpMinutes:        cfg.JWT.Expiration,
		RefreshExpMinutes: cfg.JWT.RefreshExpiration,
		Issuer:            cfg.JWT.Issuer,
	}, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Sales.CommitTimeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.HTTP.CORSOrigins,
		AllowHeaders:  strings.Join([]string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization, httpRouter.HeaderIdempotencyKey}, ", "),
		ExposeHeaders: strings.Join([]string{httpRouter.HeaderIdempotencyReplayed, fiber.HeaderXRequestID}, ", "),
	}))
	app.Use(httpRouter.RequestLogger(log, m))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Saori API",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		CreateSale:   createSaleUC,
		VoidSale:     voidSaleUC,
		SaleQuery:    saleQueryUC,
		LogUC:        logUC,
		CatalogUC:    catalogUC,
		DB:           pool,
		ServiceName:  cfg.App.Name,
		JWTSecret:    cfg.JWT.Secret,
		LoginLimiter: httpRouter.NewIPRateLimiter(cfg.HTTP.LoginRatePerMinute),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
