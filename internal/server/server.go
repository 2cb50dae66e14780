// Пакет server — HTTP-сервер EDI Console с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/edi-console/internal/api/errors"
	apihandlers "github.com/bigkaa/edi-console/internal/api/handlers"
	"github.com/bigkaa/edi-console/internal/api/middleware"
	"github.com/bigkaa/edi-console/internal/config"
	uihandlers "github.com/bigkaa/edi-console/internal/ui/handlers"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/edi-console/internal/ui/middleware"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
	"github.com/bigkaa/edi-console/internal/ui/static"
)

// Handlers — обработчики, из которых собирается маршрутизатор.
type Handlers struct {
	Health    *apihandlers.HealthHandler
	Session   *uimiddleware.Session
	Bundle    *i18n.Bundle
	Language  *uihandlers.LanguageHandler
	Dashboard *uihandlers.DashboardHandler
	Mailbox   *uihandlers.MailboxHandler
	Partners  *uihandlers.PartnersHandler
	Activity  *uihandlers.ActivityHandler
	Portal    *uihandlers.PortalHandler
	Logout    *uihandlers.LogoutHandler
}

// Server — HTTP-сервер EDI Console.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, h Handlers) *Server {
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     NewRouter(cfg, logger, h),
		ReadTimeout: 30 * time.Second,
		// WriteTimeout не задаётся: SSE-поток панели живёт, пока открыта вкладка
		IdleTimeout: 120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршрутизатор консоли и портала.
func NewRouter(cfg *config.Config, logger *slog.Logger, h Handlers) chi.Router {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.RequestID())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.NotFound(w, "Маршрут не найден: "+r.URL.Path)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierrors.MethodNotAllowed(w, "Метод "+r.Method+" не поддерживается для "+r.URL.Path)
	})

	// Health и metrics проверяются Kubernetes напрямую, без сессии
	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, partials.AdminPrefix+"/", http.StatusFound)
	})

	csrf := uimiddleware.CSRF(cfg.CSRFCookie, logger)

	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware(h.Bundle))
		r.With(csrf).Post("/lang", h.Language.HandleSwitch)

		r.Route(partials.AdminPrefix, func(r chi.Router) {
			r.Use(h.Session.Middleware())
			r.Use(csrf)
			adminRoutes(r, h)
		})

		r.Route(partials.PortalPrefix, func(r chi.Router) {
			r.Use(h.Session.Middleware())
			r.Use(csrf)
			portalRoutes(r, h)
		})
	})

	return router
}

// adminRoutes — маршруты административной консоли (/admin).
func adminRoutes(r chi.Router, h Handlers) {
	r.Get("/", h.Dashboard.HandleDashboard)
	r.Get("/dashboard/auto-refresh", h.Dashboard.HandleAutoRefresh)
	r.Get("/events/dashboard", h.Dashboard.HandleEvents)
	r.Post("/logout", h.Logout.HandleAdmin)

	m := h.Mailbox
	r.Get("/mailbox", m.HandleMailbox)
	r.Get("/mailbox/{folder}", m.HandleFolder)
	r.Get("/mailbox/{folder}/stats", m.HandleFolderStats)

	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", m.HandleCreate)
		r.Get("/new", m.HandleNew)
		r.Get("/{id}", m.HandleTransaction)
		r.Post("/{id}", m.HandleUpdate)
		r.Get("/{id}/tab/{tab}", m.HandleTab)
		r.Get("/{id}/actions", m.HandleActions)
		r.Get("/{id}/edit", m.HandleEdit)
		r.Get("/{id}/move", m.HandleMoveDialog)
		r.Post("/{id}/move", m.HandleMove)
		r.Post("/{id}/process", m.HandleProcess)
		r.Post("/{id}/send", m.HandleSend)
		r.Post("/{id}/delete", m.HandleDelete)
		r.Post("/{id}/permanent-delete", m.HandlePermanentDelete)
	})

	p := h.Partners
	r.Get("/partners", p.HandleList)
	r.Route("/partners/{id}", func(r chi.Router) {
		r.Get("/", p.HandleDetail)
		r.Post("/users", p.HandleCreateUser)
		r.Post("/sftp", p.HandleSaveSFTP)
		r.Post("/sftp/test", p.HandleTestSFTP)
		r.Post("/sftp/delete", p.HandleDeleteSFTP)
	})
	r.Route("/users/{id}", func(r chi.Router) {
		r.Post("/", p.HandleUpdateUser)
		r.Get("/edit", p.HandleEditDialog)
		r.Get("/password", p.HandlePasswordDialog)
		r.Post("/password", p.HandleResetPassword)
		r.Post("/delete", p.HandleDeleteUser)
		r.Post("/permissions/{perm}", p.HandleTogglePermission)
	})

	r.Get("/activity", h.Activity.HandleActivity)
	r.Get("/activity/export", h.Activity.HandleExport)
	r.Get("/analytics", h.Activity.HandleAnalytics)
}

// portalRoutes — маршруты портала партнёра (/partner-portal).
func portalRoutes(r chi.Router, h Handlers) {
	p := h.Portal
	r.Get("/", p.HandleDashboard)
	r.Get("/transactions", p.HandleTransactions)
	r.Get("/transactions/{id}", p.HandleTransaction)
	r.Get("/upload", p.HandleUploadPage)
	r.Post("/upload", p.HandleUpload)
	r.Get("/downloads", p.HandleDownloads)
	r.Get("/downloads/{id}", p.HandleDownload)
	r.Post("/downloads/bulk", p.HandleBulkDownload)
	r.Get("/settings", p.HandleSettings)
	r.Post("/settings/contact", p.HandleContact)
	r.Post("/settings/test", p.HandleTestConnection)
	r.Post("/logout", h.Logout.HandlePortal)
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
