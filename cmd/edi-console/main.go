// Точка входа EDI Console — административная консоль и портал партнёра
// поверх REST API EDI backend.
// Загружает конфигурацию и каталоги переводов, создаёт клиента backend,
// кэш запросов (с межэкземплярной инвалидацией через Redis, если задана),
// сервисный слой и обработчики, запускает topologymetrics,
// HTTP-сервер и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/edi-console/internal/api/handlers"
	"github.com/bigkaa/edi-console/internal/config"
	"github.com/bigkaa/edi-console/internal/ediclient"
	"github.com/bigkaa/edi-console/internal/query"
	"github.com/bigkaa/edi-console/internal/server"
	"github.com/bigkaa/edi-console/internal/service"
	uihandlers "github.com/bigkaa/edi-console/internal/ui/handlers"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/edi-console/internal/ui/middleware"
)

// adminFanout — число параллельных запросов к backend при сборке
// сводных страниц администратора.
const adminFanout = 4

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("EDI Console запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("backend", cfg.BackendURL),
	)

	if os.Getenv("EC_DEPHEALTH_GROUP") == "" {
		logger.Warn("EC_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Каталоги переводов
	bundle := i18n.NewBundle(logger)
	if err := i18n.LoadEmbedded(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	i18n.SetDefault(bundle)

	// 4. Клиент EDI backend
	factory, err := ediclient.NewFactory(ediclient.Options{
		BaseURL:       cfg.BackendURL,
		Timeout:       cfg.BackendTimeout,
		RateLimit:     cfg.BackendRateLimit,
		Burst:         cfg.BackendBurst,
		CACertPath:    cfg.BackendCACertPath,
		SessionCookie: cfg.SessionCookie,
		CSRFCookie:    cfg.CSRFCookie,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Кэш запросов
	cache := query.New(query.Options{
		MaxEntries:   cfg.CacheMaxEntries,
		TTL:          cfg.CacheTTL,
		StaleAfter:   cfg.CacheStaleAfter,
		FetchTimeout: cfg.BackendTimeout,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5.1 Инвалидация между экземплярами (опционально)
	var redisChecker handlers.ReadinessChecker
	var invalidator *query.RedisInvalidator
	if cfg.RedisURL != "" {
		invalidator, err = query.NewRedisInvalidator(ctx, cfg.RedisURL, cfg.RedisChannel, cache, logger)
		if err != nil {
			logger.Error("Ошибка подключения к Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := invalidator.Start(ctx); err != nil {
			logger.Error("Ошибка подписки на инвалидации", slog.String("error", err.Error()))
			os.Exit(1)
		}
		redisChecker = invalidator
	} else {
		logger.Info("EC_REDIS_URL не задан, инвалидация кэша только локальная")
	}

	// 6. topologymetrics — мониторинг EDI backend
	var backendChecker handlers.ReadinessChecker
	dephealthSvc, err := service.NewDephealthService(
		"edi-console",
		cfg.DephealthGroup,
		cfg.BackendURL,
		cfg.BackendHealthPath,
		cfg.DephealthCheckInterval,
		logger,
	)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
		dephealthSvc = nil
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		dephealthSvc = nil
	} else {
		backendChecker = dephealthSvc
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 7. Сервисы
	mailboxSvc := service.NewMailboxService(cache, logger)
	adminSvc := service.NewAdminService(cache, adminFanout, logger)
	portalSvc := service.NewPortalService(cache, logger)

	// 8. HTTP-сервер
	session := uimiddleware.NewSession(factory, cfg.LoginURL, logger)
	srv := server.New(cfg, logger, server.Handlers{
		Health:    handlers.NewHealthHandler(backendChecker, redisChecker),
		Session:   session,
		Bundle:    bundle,
		Language:  uihandlers.NewLanguageHandler(bundle, logger),
		Dashboard: uihandlers.NewDashboardHandler(adminSvc, cfg.DashboardRefresh, cfg.LoginURL, logger),
		Mailbox:   uihandlers.NewMailboxHandler(mailboxSvc, cfg.LoginURL, logger),
		Partners:  uihandlers.NewPartnersHandler(adminSvc, cfg.LoginURL, logger),
		Activity:  uihandlers.NewActivityHandler(adminSvc, cfg.LoginURL, logger),
		Portal:    uihandlers.NewPortalHandler(portalSvc, cfg.LoginURL, logger),
		Logout:    uihandlers.NewLogoutHandler(portalSvc, session, logger),
	})
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Остановка фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	cancel()
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	if invalidator != nil {
		if err := invalidator.Close(); err != nil {
			logger.Warn("Ошибка закрытия Redis", slog.String("error", err.Error()))
		}
	}

	logger.Info("EDI Console остановлена")
}
