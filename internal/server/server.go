// Пакет server — HTTP-сервер консоли с graceful shutdown.
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

	"github.com/bigkaa/accessadmin/internal/api/handlers"
	"github.com/bigkaa/accessadmin/internal/api/middleware"
	"github.com/bigkaa/accessadmin/internal/config"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/ui/i18n"
	uihandlers "github.com/bigkaa/accessadmin/internal/ui/handlers"
	uimiddleware "github.com/bigkaa/accessadmin/internal/ui/middleware"
	"github.com/bigkaa/accessadmin/internal/ui/static"
)

// Components — обработчики, из которых собирается роутер.
type Components struct {
	API       *handlers.APIHandler
	Validator *middleware.OpenAPIValidator
	Bundle    *i18n.Bundle

	AuthMiddleware *uimiddleware.UIAuth
	Auth           *uihandlers.AuthHandler
	Dashboard      *uihandlers.DashboardHandler
	Users          *uihandlers.UsersHandler
	Roles          *uihandlers.RolesHandler
	Modules        *uihandlers.ModulesHandler
	Permissions    *uihandlers.PermissionsHandler
}

// Server — HTTP-сервер консоли.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, c Components) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, c),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты: ops, статика, страницы /admin и JSON API /api/v1.
func NewRouter(logger *slog.Logger, c Components) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Ops: проверяются Kubernetes напрямую, без сессии
	router.Get("/health/live", c.API.HealthLive)
	router.Get("/health/ready", c.API.HealthReady)
	router.Get("/metrics", c.API.GetMetrics)

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/", http.StatusFound)
	})
	router.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/", http.StatusMovedPermanently)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(i18n.Middleware(c.Bundle))
		mountUI(r, c)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(c.Validator.Middleware())
		r.Use(middleware.RequireSession(c.AuthMiddleware))
		mountAPI(r, c.API)
	})

	return router
}

// mountUI — страницы консоли. Каждый раздел закрыт своим модулем,
// изменяющие действия требуют уровня edit.
func mountUI(r chi.Router, c Components) {
	// Публичные страницы
	r.Get("/login", c.Auth.HandleLoginPage)
	r.Post("/login", c.Auth.HandleLogin)
	r.Get("/forgot-password", c.Auth.HandleForgotPage)
	r.Post("/forgot-password", c.Auth.HandleForgot)
	r.Get("/reset-password", c.Auth.HandleResetPage)
	r.Post("/reset-password", c.Auth.HandleReset)
	r.Post("/set-language", uihandlers.HandleSetLanguage)

	r.Group(func(r chi.Router) {
		r.Use(c.AuthMiddleware.Middleware())

		r.Get("/", c.Dashboard.HandleDashboard)
		r.Get("/no-access", c.Dashboard.HandleNoAccess)
		r.Post("/logout", c.Auth.HandleLogout)

		r.Route("/users", func(r chi.Router) {
			r.Use(uimiddleware.RequireModule(rbac.ModuleUsers))
			r.Get("/", c.Users.HandleList)
			r.Group(func(r chi.Router) {
				r.Use(uimiddleware.RequireModule(rbac.ModuleUsers, rbac.LevelEdit))
				r.Get("/new", c.Users.HandleNew)
				r.Post("/", c.Users.HandleCreate)
				r.Get("/{id}/edit", c.Users.HandleEdit)
				r.Post("/{id}", c.Users.HandleUpdate)
				r.Post("/{id}/activate", c.Users.HandleActivate)
				r.Post("/{id}/deactivate", c.Users.HandleDeactivate)
				r.Post("/{id}/delete", c.Users.HandleDelete)
			})
		})

		r.Route("/roles", func(r chi.Router) {
			r.Use(uimiddleware.RequireModule(rbac.ModuleRoles))
			r.Get("/", c.Roles.HandleList)
			r.Group(func(r chi.Router) {
				r.Use(uimiddleware.RequireModule(rbac.ModuleRoles, rbac.LevelEdit))
				r.Get("/new", c.Roles.HandleNew)
				r.Post("/", c.Roles.HandleCreate)
				r.Get("/{id}/edit", c.Roles.HandleEdit)
				r.Post("/{id}", c.Roles.HandleUpdate)
				r.Get("/{id}/delete", c.Roles.HandleDeleteConfirm)
				r.Post("/{id}/delete", c.Roles.HandleDelete)
			})
		})

		r.Route("/modules", func(r chi.Router) {
			r.Use(uimiddleware.RequireModule(rbac.ModuleModules))
			r.Get("/", c.Modules.HandleList)
			r.With(uimiddleware.RequireModule(rbac.ModuleModules, rbac.LevelEdit)).Post("/reload", c.Modules.HandleReload)
		})

		r.Route("/permissions", func(r chi.Router) {
			r.Use(uimiddleware.RequireModule(rbac.ModulePermissions))
			r.Get("/", c.Permissions.HandleSearch)
			r.Get("/{id}", c.Permissions.HandleView)
			r.With(uimiddleware.RequireModule(rbac.ModulePermissions, rbac.LevelEdit)).Post("/{id}", c.Permissions.HandleSave)
		})
	})
}

// mountAPI — JSON API. Права проверяются так же, как для страниц.
func mountAPI(r chi.Router, h *handlers.APIHandler) {
	requireEdit := func(code string) func(http.Handler) http.Handler {
		return middleware.RequireModuleJSON(code, rbac.LevelEdit)
	}

	r.Get("/me/access", h.GetMyAccess)

	r.With(middleware.RequireModuleJSON(rbac.ModuleModules)).Get("/modules", h.ListModules)
	r.With(requireEdit(rbac.ModuleModules)).Post("/modules/reload", h.ReloadModules)

	r.With(middleware.RequireModuleJSON(rbac.ModulePermissions)).Get("/users/search", h.SearchUsers)
	r.With(middleware.RequireModuleJSON(rbac.ModulePermissions)).Get("/users/{id}/access", h.GetUserAccess)
	r.With(requireEdit(rbac.ModulePermissions)).Put("/users/{id}/access", h.SaveUserAccess)
	r.With(middleware.RequireModuleJSON(rbac.ModulePermissions)).Get("/users/{id}/access/history", h.GetUserAccessHistory)
	r.With(requireEdit(rbac.ModuleUsers)).Put("/users/{id}/role", h.ChangeUserRole)
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
