// metrics.go — Prometheus HTTP метрики консоли.
// Регистрирует метрики: aa_http_requests_total, aa_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aa_http_requests_total",
			Help: "Общее количество HTTP-запросов к консоли",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aa_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к консоли в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			// Шаблон маршрута известен только после маршрутизации
			path := routeLabel(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// routeLabel — шаблон маршрута chi (/admin/users/{id}/edit).
// Для запросов без маршрута (404) путь нормализуется.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath заменяет числовые сегменты пути на {id},
// а всё под /static/ сводит к одному лейблу.
// /admin/users/42/permissions → /admin/users/{id}/permissions
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.Atoi(s); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
