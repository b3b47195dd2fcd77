package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/deevah-backend/internal/cache"
	"github.com/ignatzorin/deevah-backend/internal/config"
	"github.com/ignatzorin/deevah-backend/internal/db"
	"github.com/ignatzorin/deevah-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/deevah-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/deevah-backend/internal/http/router"
	"github.com/ignatzorin/deevah-backend/internal/logger"
	"github.com/ignatzorin/deevah-backend/internal/repository"
	"github.com/ignatzorin/deevah-backend/internal/service"
	"github.com/ignatzorin/deevah-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	healthChecks := map[string]httpHandlers.Pinger{"database": dbConn}

	// Кэш списков бронирований: Redis, если задан REDIS_URL, иначе память процесса.
	var bookingCache cache.Cache
	if cfg.RedisURL != "" {
		redisCache, redisClient, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Fatalf("main: ошибка подключения к redis: %v", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Log.WithError(err).Warn("main: ошибка закрытия redis")
			}
		}()
		healthChecks["redis"] = httpHandlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		bookingCache = redisCache
	} else {
		memoryCache := cache.NewMemoryCache(time.Minute)
		defer memoryCache.Close()
		bookingCache = memoryCache
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	bookingRepo := repository.NewBookingRepository(dbConn)
	walletRepo := repository.NewWalletRepository(dbConn, cfg.WalletCurrency)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	feedRepo := repository.NewFeedRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager, cfg.ReferralReward)
	notificationService := service.NewNotificationService(notificationRepo)
	catalogService := service.NewCatalogService(catalogRepo)
	walletService := service.NewWalletService(walletRepo, userRepo, cfg.ReferralReward)
	bookingService := service.NewBookingService(bookingRepo, catalogRepo, bookingCache, cfg.BookingCacheTTL)
	feedService := service.NewFeedService(feedRepo)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	goroutine.SafeGo("ws hub", hub.Run)

	bookingService.SetEventPublisher(hub)
	bookingService.SetReferralRewarder(walletService)
	walletService.SetEventPublisher(hub)
	feedService.SetEventPublisher(hub)

	// Периодическая сверка журнала и балансов.
	reconciler, err := service.NewReconciler(walletService, cfg.ReconcileInterval)
	if err != nil {
		logger.Log.Fatalf("main: ошибка создания планировщика: %v", err)
	}
	if err := reconciler.Start(); err != nil {
		logger.Log.Fatalf("main: ошибка запуска сверки: %v", err)
	}
	defer func() {
		if err := reconciler.Shutdown(); err != nil {
			logger.Log.WithError(err).Warn("main: ошибка остановки планировщика")
		}
	}()

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth:         httpHandlers.NewAuthHandler(authService),
		Catalog:      httpHandlers.NewCatalogHandler(catalogService),
		Booking:      httpHandlers.NewBookingHandler(bookingService),
		Wallet:       httpHandlers.NewWalletHandler(walletService),
		Feed:         httpHandlers.NewFeedHandler(feedService),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Health:       httpHandlers.NewHealthHandler(healthChecks),
	}, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo("http shutdown", func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Errorf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
