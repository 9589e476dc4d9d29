// Точка входа консоли управления доступом.
// Загружает конфигурацию, подключается к PostgreSQL (журнал изменений прав),
// применяет миграции, создаёт клиент backend, кэш карт доступа и сервисный слой,
// запускает topologymetrics и HTTP-сервер (UI + JSON API) с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/accessadmin/internal/api/handlers"
	"github.com/bigkaa/accessadmin/internal/api/middleware"
	"github.com/bigkaa/accessadmin/internal/api/openapi"
	"github.com/bigkaa/accessadmin/internal/backend"
	"github.com/bigkaa/accessadmin/internal/config"
	"github.com/bigkaa/accessadmin/internal/database"
	"github.com/bigkaa/accessadmin/internal/repository"
	"github.com/bigkaa/accessadmin/internal/server"
	"github.com/bigkaa/accessadmin/internal/service"
	"github.com/bigkaa/accessadmin/internal/ui/auth"
	uihandlers "github.com/bigkaa/accessadmin/internal/ui/handlers"
	"github.com/bigkaa/accessadmin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/accessadmin/internal/ui/middleware"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Консоль управления доступом запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("backend", cfg.BackendURL),
	)

	if os.Getenv("AA_DEPHEALTH_GROUP") == "" {
		logger.Warn("AA_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Каталоги переводов
	bundle := i18n.Init(cfg.UIDefaultLanguage, logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := database.OpenDB(pool)
	defer pgDB.Close()

	// 6. Клиент backend. Токен берётся из контекста запроса (сессия администратора)
	backendClient, err := backend.New(backend.Options{
		BaseURL:    cfg.BackendURL,
		Timeout:    cfg.BackendTimeout,
		CACertPath: cfg.BackendCACertPath,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Кэш карт доступа: Redis, если задан адрес, иначе in-process LRU
	var (
		accessCache  service.AccessCache
		redisChecker handlers.ReadinessChecker
	)
	if cfg.RedisEnabled() {
		redisClient, err := service.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("Ошибка подключения к Redis",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		defer redisClient.Close()
		redisCache := service.NewRedisAccessCache(redisClient, cfg.AccessCacheTTL, logger)
		accessCache, redisChecker = redisCache, redisCache
		logger.Info("Кэш карт доступа: Redis", slog.String("addr", cfg.RedisAddr))
	} else {
		accessCache = service.NewLRUAccessCache(cfg.AccessCacheSize, cfg.AccessCacheTTL)
		logger.Info("Кэш карт доступа: in-process LRU",
			slog.Int("size", cfg.AccessCacheSize),
			slog.Duration("ttl", cfg.AccessCacheTTL),
		)
	}

	// 8. Services
	loader := service.NewLoader(backendClient)
	registry := service.NewModuleRegistry(loader, logger)
	journal := service.NewJournal(repository.NewPermissionChangeRepository(pool), logger)
	permissionSvc := service.NewPermissionService(loader, registry, journal, accessCache, logger)
	propagator := service.NewPropagator(loader, registry, journal, accessCache, logger)
	directory := service.NewDirectory(loader, propagator, logger)
	authSvc := service.NewAuthService(backendClient, logger)

	// 9. Проверка токенов backend и сессии
	tokenVerifier, err := auth.NewTokenVerifier(cfg.JWTJWKSURL, cfg.BackendCACertPath, cfg.JWTIssuer, cfg.BackendTimeout, logger)
	if err != nil {
		logger.Error("Ошибка создания проверки токенов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !tokenVerifier.Verifies() {
		logger.Warn("AA_JWT_JWKS_URL не задан, подпись токенов backend не проверяется")
	}

	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionSecure, cfg.SessionTTL)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("AA_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}

	// 10. topologymetrics — мониторинг зависимостей (PostgreSQL + backend)
	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:            "accessadmin",
		Group:                cfg.DephealthGroup,
		DB:                   pgDB,
		PGConnURL:            cfg.DatabaseURL(),
		BackendURL:           cfg.BackendURL,
		BackendHealthPath:    cfg.BackendHealthPath,
		BackendTLSSkipVerify: cfg.BackendCACertPath != "",
		CheckInterval:        cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания topologymetrics", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 11. Readiness checkers (PostgreSQL + backend, Redis при наличии)
	checkers := []handlers.NamedChecker{
		{Name: "postgresql", Checker: database.NewReadinessChecker(pool)},
		{Name: "backend", Checker: dephealthSvc},
	}
	if redisChecker != nil {
		checkers = append(checkers, handlers.NamedChecker{Name: "redis", Checker: redisChecker})
	}
	healthHandler := handlers.NewHealthHandler(checkers...)

	// 12. JSON API и валидация по OpenAPI документу
	apiHandler := handlers.NewAPIHandler(healthHandler, registry, permissionSvc, directory, logger)

	doc, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI документа", slog.String("error", err.Error()))
		os.Exit(1)
	}
	validator, err := middleware.NewOpenAPIValidator(doc, logger)
	if err != nil {
		logger.Error("Ошибка создания валидатора запросов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. UI
	uiAuth := uimiddleware.NewUIAuth(sessionMgr, permissionSvc, logger)

	components := server.Components{
		API:            apiHandler,
		Validator:      validator,
		Bundle:         bundle,
		AuthMiddleware: uiAuth,
		Auth:           uihandlers.NewAuthHandler(authSvc, tokenVerifier, sessionMgr, directory, permissionSvc, logger),
		Dashboard:      uihandlers.NewDashboardHandler(registry, logger),
		Users:          uihandlers.NewUsersHandler(directory, logger),
		Roles:          uihandlers.NewRolesHandler(directory, logger),
		Modules:        uihandlers.NewModulesHandler(registry, logger),
		Permissions:    uihandlers.NewPermissionsHandler(permissionSvc, directory, logger),
	}

	// 14. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, components)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 15. Остановка фоновых задач
	dephealthSvc.Stop()
	logger.Info("Консоль управления доступом остановлена")
}
