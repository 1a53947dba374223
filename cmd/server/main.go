package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/restaurant-pos/internal/cache"
	"github.com/iliyamo/restaurant-pos/internal/config"
	"github.com/iliyamo/restaurant-pos/internal/database"
	"github.com/iliyamo/restaurant-pos/internal/handler"
	"github.com/iliyamo/restaurant-pos/internal/logger"
	"github.com/iliyamo/restaurant-pos/internal/middleware"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/repository"
	"github.com/iliyamo/restaurant-pos/internal/router"
	"github.com/iliyamo/restaurant-pos/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New("pos-api", cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; caching and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = queue.Nop{}
	if cfg.EventsEnabled {
		async := queue.NewAsync(queue.NewPublisher(cfg.RabbitURL, log), 256, 5*time.Second, log)
		defer async.Close()
		events = async

		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.EventLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event consumer stopped", slog.Any("error", err))
			}
		}()
	}

	uow := service.NewSQLUnitOfWork(db)
	settingsRepo := repository.NewSettingsRepo(db)
	settingsCache := cache.NewSettings(rdb, settingsRepo, cfg.SettingsCacheTTL, "pos", log)

	orders := service.NewOrderService(uow, settingsCache, events, log)
	payments := service.NewPaymentService(uow, events, log)
	tables := service.NewTableService(uow, log)
	settings := service.NewSettingsService(settingsRepo, settingsCache, log)

	cacheCfg := config.LoadCacheConfig()
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), cfg.JWTSecret)
	router.RegisterOrders(e, handler.NewOrderHandler(orders), cfg.JWTSecret)
	router.RegisterPayments(e, handler.NewPaymentHandler(payments), cfg.JWTSecret)
	router.RegisterTables(e, handler.NewTableHandler(tables), cfg.JWTSecret)
	router.RegisterSettings(e, handler.NewSettingsHandler(settings), cfg.JWTSecret)
	router.RegisterMenu(e, handler.NewMenuHandler(repository.NewMenuItemRepo(db)), cfg.JWTSecret,
		middleware.NewRedisCache(cacheCfg, rdb), middleware.EvictOnWrite(cacheCfg, rdb, log))

	report, err := tables.Reconcile(ctx)
	if err != nil {
		log.Warn("startup table reconciliation failed", slog.Any("error", err))
	} else if len(report.Occupied)+len(report.Released) > 0 {
		log.Info("tables reconciled", slog.Any("occupied", report.Occupied), slog.Any("released", report.Released))
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
