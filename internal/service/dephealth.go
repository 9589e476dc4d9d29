// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Консоль мониторит две зависимости:
//   - PostgreSQL — SQL checker через существующий pgxpool (connection pool mode, critical)
//   - backend — HTTP checker к health endpoint внешнего REST backend (critical)
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // HTTP checker для backend
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"     // PostgreSQL checker (pool mode)
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthConfig — параметры мониторинга зависимостей.
type DephealthConfig struct {
	// ServiceID — имя вершины графа текущего приложения
	ServiceID string
	// Group — имя группы в метриках (AA_DEPHEALTH_GROUP)
	Group string
	// DB — *sql.DB поверх pgxpool (database.OpenDB)
	DB *sql.DB
	// PGConnURL — URL PostgreSQL (для лейблов, не для подключения)
	PGConnURL string
	// BackendURL — базовый URL backend
	BackendURL string
	// BackendHealthPath — путь health endpoint относительно BackendURL
	BackendHealthPath string
	// BackendTLSSkipVerify — не проверять сертификат backend (самоподписанный CA)
	BackendTLSSkipVerify bool
	// CheckInterval — интервал проверки (AA_DEPHEALTH_CHECK_INTERVAL)
	CheckInterval time.Duration
}

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
func NewDephealthService(cfg DephealthConfig, logger *slog.Logger) (*DephealthService, error) {
	return newDephealthService(cfg, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(cfg DephealthConfig, logger *slog.Logger, registerer prometheus.Registerer) (*DephealthService, error) {
	return newDephealthService(cfg, logger, dephealth.WithRegisterer(registerer))
}

func newDephealthService(cfg DephealthConfig, logger *slog.Logger, extraOpts ...dephealth.Option) (*DephealthService, error) {
	origin, healthPath := backendHealthTarget(cfg.BackendURL, cfg.BackendHealthPath)

	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		// pgcheck.New + AddDependency напрямую, без contrib/sqldb и его MySQL-зависимости
		dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(cfg.DB)),
			dephealth.FromURL(cfg.PGConnURL),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
		),
		dephealth.HTTP("backend",
			dephealth.FromURL(origin),
			dephealth.WithHTTPHealthPath(healthPath),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
			dephealth.WithHTTPTLSSkipVerify(cfg.BackendTLSSkipVerify),
		),
	}
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(cfg.ServiceID, cfg.Group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// backendHealthTarget делит URL backend на origin и полный путь health endpoint.
// Путь базового URL (например, /api) добавляется перед healthPath.
func backendHealthTarget(baseURL, healthPath string) (origin, fullPath string) {
	if healthPath == "" {
		healthPath = "/health"
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL, healthPath
	}

	fullPath = path.Join("/", u.Path, healthPath)
	if strings.HasSuffix(healthPath, "/") && !strings.HasSuffix(fullPath, "/") {
		fullPath += "/"
	}
	return u.Scheme + "://" + u.Host, fullPath
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен (PostgreSQL + backend)")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// CheckReady — готовность по backend для /health/ready.
// До первой проверки зависимость отсутствует в Health(), это считается ok.
func (ds *DephealthService) CheckReady() (status string, message string) {
	for name, ok := range ds.dh.Health() {
		if strings.Contains(name, "backend") && !ok {
			return "fail", "backend не проходит проверку здоровья"
		}
	}
	return "ok", "backend доступен"
}
