package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/config"
	"github.com/MintShards/pawn-repo-sub002/internal/crypto"
	"github.com/MintShards/pawn-repo-sub002/internal/handler"
	"github.com/MintShards/pawn-repo-sub002/internal/repository"
	"github.com/MintShards/pawn-repo-sub002/internal/service"
)

func main() {
	logger := logrus.New()
	// Уровень логирования (Debug для разработки, Info для продакшена)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Загрузка конфигурации приложения
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Подключение к PostgreSQL
	db, err := sql.Open("postgres", fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	))
	if err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	// Проверка соединения с БД
	if err := db.Ping(); err != nil {
		logger.Fatalf("Ошибка проверки соединения с БД: %v", err)
	}

	// Подключение к Redis (необязательно, без него баланс считается напрямую)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Warn("Redis недоступен, кэш балансов отключен")
			redisClient = nil
		}
	}

	// Инициализация PGP для шифрования документов клиентов
	pgpManager, err := crypto.NewPGPManager(cfg.PGPKeyPath)
	if err != nil {
		logger.Fatalf("Ошибка инициализации PGP: %v", err)
	}

	// Инициализация репозиториев
	logger.Info("Инициализация репозиториев...")
	userRepo := repository.NewUserRepository(db, logger)
	customerRepo := repository.NewCustomerRepository(db, logger)
	transactionRepo := repository.NewTransactionRepository(db, logger)
	paymentRepo := repository.NewPaymentRepository(db, logger)
	extensionRepo := repository.NewExtensionRepository(db, logger)
	auditRepo := repository.NewAuditRepository(db, logger)
	emailSender := service.NewEmailSender(logger)

	// Инициализация сервисов
	logger.Info("Инициализация сервисов...")
	balanceCache := service.NewBalanceCache(redisClient, logger)
	authService := service.NewAuthService(userRepo, auditRepo, cfg.JWTSecret, cfg.TokenExpiry, logger)
	authorizer := service.NewAuthorizer(userRepo, auditRepo, logger)
	balanceService := service.NewBalanceService(transactionRepo, paymentRepo, balanceCache, logger)
	gate := service.NewReversalGate(paymentRepo, extensionRepo, auditRepo, logger)
	customerService := service.NewCustomerService(customerRepo, pgpManager, cfg.DocumentHMACKey, logger)
	transactionService := service.NewTransactionService(
		transactionRepo,
		customerRepo,
		auditRepo,
		balanceService,
		authorizer,
		emailSender,
		logger,
		cfg.GracePeriodDays,
	)
	paymentService := service.NewPaymentService(
		transactionRepo,
		paymentRepo,
		customerRepo,
		auditRepo,
		balanceService,
		authorizer,
		gate,
		emailSender,
		logger,
	)
	extensionService := service.NewExtensionService(
		transactionRepo,
		extensionRepo,
		customerRepo,
		auditRepo,
		balanceService,
		authorizer,
		gate,
		emailSender,
		logger,
		cfg.GracePeriodDays,
	)
	consistencyService := service.NewConsistencyService(customerRepo, transactionRepo, paymentRepo, auditRepo, logger)
	reportService := service.NewReportService(transactionRepo, paymentRepo, logger)
	ratesClient := service.NewMetalRatesClient(logger)

	// Инициализация HTTP обработчиков
	logger.Info("Инициализация обработчиков API...")
	authHandler := handler.NewAuthHandler(authService, logger)
	customerHandler := handler.NewCustomerHandler(customerService, transactionService, logger)
	transactionHandler := handler.NewTransactionHandler(transactionService, balanceService, paymentService, extensionService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	extensionHandler := handler.NewExtensionHandler(extensionService, logger)
	reportHandler := handler.NewReportHandler(reportService, ratesClient, logger)
	adminHandler := handler.NewAdminHandler(
		paymentService,
		extensionService,
		transactionService,
		consistencyService,
		customerService,
		authService,
		gate,
		auditRepo,
		logger,
	)

	// Настройка маршрутизатора
	router := mux.NewRouter()

	// 1. Публичные маршруты для аутентификации
	publicRouter := router.PathPrefix("/auth").Subrouter()
	authHandler.RegisterRoutes(publicRouter)

	// 2. Защищенные API маршруты (требуется JWT токен)
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(handler.AuthMiddleware(authService, logger))

	customerRouter := apiRouter.PathPrefix("/customers").Subrouter()
	customerHandler.RegisterRoutes(customerRouter)

	transactionRouter := apiRouter.PathPrefix("/transactions").Subrouter()
	transactionHandler.RegisterRoutes(transactionRouter)

	paymentRouter := apiRouter.PathPrefix("/payments").Subrouter()
	paymentHandler.RegisterRoutes(paymentRouter)

	extensionRouter := apiRouter.PathPrefix("/extensions").Subrouter()
	extensionHandler.RegisterRoutes(extensionRouter)

	reportHandler.RegisterRoutes(apiRouter)

	// 3. Административные маршруты (требуется роль admin)
	adminRouter := apiRouter.PathPrefix("/admin").Subrouter()
	adminRouter.Use(handler.AdminMiddleware(logger))
	adminHandler.RegisterRoutes(adminRouter)

	// Настройка планировщика: просрочка билетов и ночная сверка счетчиков
	logger.Info("Настройка планировщика фоновых задач...")
	c := cron.New()
	_, err = c.AddFunc("0 */12 * * *", func() {
		logger.Info("Запуск пометки просроченных билетов")
		transactionService.SweepOverdue(context.Background())
	})
	if err != nil {
		logger.Fatalf("Ошибка настройки планировщика: %v", err)
	}
	_, err = c.AddFunc("30 3 * * *", func() {
		logger.Info("Запуск ночной сверки счетчиков клиентов")
		if _, err := consistencyService.ValidateAll(context.Background(), 0, false, uuid.Nil); err != nil {
			logger.WithError(err).Error("Ошибка ночной сверки счетчиков")
		}
	})
	if err != nil {
		logger.Fatalf("Ошибка настройки планировщика: %v", err)
	}
	c.Start()

	// Настройка и запуск HTTP сервера
	server := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	go func() {
		logger.Info("Запуск сервера на порту :8080")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Ошибка сервера: %v", err)
		}
	}()

	// Ожидание сигналов для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Завершение работы сервера...")
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Errorf("Ошибка при завершении работы сервера: %v", err)
	}
	logger.Info("Сервер успешно остановлен")
}
