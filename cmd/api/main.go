package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redis "github.com/redis/go-redis/v9"

	_ "github.com/jhoicas/Alquiler-api/docs"
	"github.com/jhoicas/Alquiler-api/internal/application/operation"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain/pricing"
	"github.com/jhoicas/Alquiler-api/internal/infrastructure/lock"
	"github.com/jhoicas/Alquiler-api/internal/infrastructure/memory"
	"github.com/jhoicas/Alquiler-api/internal/infrastructure/obs"
	"github.com/jhoicas/Alquiler-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Alquiler-api/internal/interfaces/http"
	"github.com/jhoicas/Alquiler-api/pkg/config"
	"github.com/jhoicas/Alquiler-api/pkg/logger"
)

// @title                       Alquiler API
// @version                     1.0
// @description                 Ventas, alquileres y reservas de prendas con libro de pagos, billetera de clientes y conciliación de inventario.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Token JWT con el prefijo Bearer
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("timezone", cfg.Business.Location().String()).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Persistencia: PostgreSQL si está configurado; si no, almacén en memoria (desarrollo).
	var (
		txRunner ports.TxRunner
		repos    ports.Repositories
		health   func() error
	)
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool)
		repos = postgres.NewRepositories(pool)
		health = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		}
	} else {
		log.Warn().Msg("DB no configurada: usando almacén en memoria")
		store := memory.New()
		txRunner = store
		repos = store.Repositories()
	}

	// Locks: Redis si hay dirección; si no, mutex por clave en proceso.
	var locker ports.Locker = lock.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		locker = lock.RedisLocker{R: rdb, Prefix: cfg.App.Name + ":lock:"}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics := obs.NewDomainMetrics(cfg.Metrics.Namespace, reg)
	httpMetrics := obs.NewHTTPMetrics(cfg.Metrics.Namespace, reg)

	operationSvc := operation.NewService(txRunner, repos, locker, domainMetrics, operation.Config{
		Pricing: pricing.Rules{
			MaxDiscountPercentageAllowed:    cfg.Business.MaxDiscountPct,
			RequireAdminAuthForDiscountOver: cfg.Business.AdminAuthDiscountOver,
			AllowStacking:                   cfg.Business.AllowPromoStacking,
		},
		SaleReturnWindowDays: cfg.Business.SaleReturnWindowDays,
		LateFeePerDay:        cfg.Business.LateFeePerDay,
		LoyaltyPointsPerUnit: cfg.Business.LoyaltyPointsPerUnit,
		ReferralReward:       cfg.Business.ReferralReward,
		LockTTL:              cfg.Business.LockTTL(),
		Location:             cfg.Business.Location(),
	}, log.Component("operation"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Operations:  operationSvc,
		JWTSecret:   cfg.JWT.Secret,
		HTTPMetrics: httpMetrics,
		Gatherer:    reg,
		Health:      health,
		SwaggerFile: "./docs/swagger.json",
		Log:         log.Component("http"),
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
