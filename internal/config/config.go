// Пакет config — загрузка и валидация конфигурации консоли управления доступом
// из переменных окружения (префикс AA_) и необязательного .env файла.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации консоли.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL (журнал изменений прав) ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимум соединений пула (журнал пишется редко)
	DBMaxConns int

	// --- Backend ---

	// Базовый URL внешнего REST backend (без trailing slash)
	BackendURL string
	// Таймаут одного запроса к backend
	BackendTimeout time.Duration
	// Путь к CA-сертификату для TLS-соединения с backend (опционально)
	BackendCACertPath string
	// Путь health endpoint backend для dephealth
	BackendHealthPath string

	// --- Сессия ---

	// Ключ шифрования cookie (пусто — случайный ключ при каждом старте)
	SessionSecret string
	// Время жизни сессии, если токен backend не несёт exp
	SessionTTL time.Duration
	// Флаг Secure для cookie
	SessionSecure bool

	// --- Проверка токена backend (опционально) ---

	// URL JWKS backend; пусто — подпись токена не проверяется, читается только exp
	JWTJWKSURL string
	// Ожидаемый iss (проверяется только вместе с JWKS)
	JWTIssuer string

	// --- Кэш карт доступа ---

	// Время жизни записи кэша
	AccessCacheTTL time.Duration
	// Максимум записей in-process кэша
	AccessCacheSize int
	// Адрес Redis; пусто — in-process LRU
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// --- topologymetrics ---

	// Группа сервиса в dephealth
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- UI ---

	// Язык интерфейса по умолчанию (en, es)
	UIDefaultLanguage string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// Перед чтением подгружается .env (путь из AA_ENV_FILE, по умолчанию ./.env);
// уже заданные переменные окружения не перезаписываются.
func Load() (*Config, error) {
	if err := loadDotEnv(getEnvDefault("AA_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// AA_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("AA_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("AA_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("AA_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// AA_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("AA_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("AA_LOG_LEVEL: %w", err)
	}

	// AA_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("AA_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("AA_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	if cfg.DBHost, err = getEnvRequired("AA_DB_HOST"); err != nil {
		return nil, err
	}
	cfg.DBPort, err = getEnvInt("AA_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("AA_DB_PORT: %w", err)
	}
	if cfg.DBName, err = getEnvRequired("AA_DB_NAME"); err != nil {
		return nil, err
	}
	if cfg.DBUser, err = getEnvRequired("AA_DB_USER"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = getEnvRequired("AA_DB_PASSWORD"); err != nil {
		return nil, err
	}

	cfg.DBMaxConns, err = getEnvInt("AA_DB_MAX_CONNS", 4)
	if err != nil {
		return nil, fmt.Errorf("AA_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("AA_DB_MAX_CONNS: значение должно быть >= 1, получено %d", cfg.DBMaxConns)
	}

	cfg.DBSSLMode = getEnvDefault("AA_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("AA_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Backend ---

	// AA_BACKEND_URL — обязательный
	cfg.BackendURL, err = getEnvRequired("AA_BACKEND_URL")
	if err != nil {
		return nil, err
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if u, perr := url.Parse(cfg.BackendURL); perr != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("AA_BACKEND_URL: некорректный URL %q", cfg.BackendURL)
	}

	// AA_BACKEND_TIMEOUT — таймаут запроса (по умолчанию 10s)
	cfg.BackendTimeout, err = getEnvDuration("AA_BACKEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AA_BACKEND_TIMEOUT: %w", err)
	}

	cfg.BackendCACertPath = getEnvDefault("AA_BACKEND_CA_CERT_PATH", "")

	// AA_BACKEND_HEALTH_PATH — путь health endpoint backend (по умолчанию /health)
	cfg.BackendHealthPath = getEnvDefault("AA_BACKEND_HEALTH_PATH", "/health")
	if !strings.HasPrefix(cfg.BackendHealthPath, "/") {
		return nil, fmt.Errorf("AA_BACKEND_HEALTH_PATH: путь должен начинаться с /: %q", cfg.BackendHealthPath)
	}

	// --- Сессия ---

	cfg.SessionSecret = getEnvDefault("AA_SESSION_SECRET", "")

	// AA_SESSION_TTL — время жизни сессии (по умолчанию 8h)
	cfg.SessionTTL, err = getEnvDuration("AA_SESSION_TTL", 8*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("AA_SESSION_TTL: %w", err)
	}

	// AA_SESSION_SECURE — Secure-флаг cookie (по умолчанию true)
	cfg.SessionSecure, err = getEnvBool("AA_SESSION_SECURE", true)
	if err != nil {
		return nil, fmt.Errorf("AA_SESSION_SECURE: %w", err)
	}

	// --- JWT ---

	cfg.JWTJWKSURL = getEnvDefault("AA_JWT_JWKS_URL", "")
	cfg.JWTIssuer = getEnvDefault("AA_JWT_ISSUER", "")
	if cfg.JWTIssuer != "" && cfg.JWTJWKSURL == "" {
		return nil, errors.New("AA_JWT_ISSUER: проверка issuer требует AA_JWT_JWKS_URL")
	}

	// --- Кэш ---

	// AA_ACCESS_CACHE_TTL — время жизни записи кэша (по умолчанию 1m)
	cfg.AccessCacheTTL, err = getEnvDuration("AA_ACCESS_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("AA_ACCESS_CACHE_TTL: %w", err)
	}

	// AA_ACCESS_CACHE_SIZE — размер in-process кэша (по умолчанию 1000)
	cfg.AccessCacheSize, err = getEnvInt("AA_ACCESS_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("AA_ACCESS_CACHE_SIZE: %w", err)
	}
	if cfg.AccessCacheSize < 1 {
		return nil, fmt.Errorf("AA_ACCESS_CACHE_SIZE: значение %d должно быть положительным", cfg.AccessCacheSize)
	}

	cfg.RedisAddr = getEnvDefault("AA_REDIS_ADDR", "")
	cfg.RedisPassword = getEnvDefault("AA_REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvInt("AA_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("AA_REDIS_DB: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("AA_DEPHEALTH_GROUP", "accessadmin")

	// AA_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("AA_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AA_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- UI ---

	cfg.UIDefaultLanguage = strings.ToLower(getEnvDefault("AA_UI_DEFAULT_LANGUAGE", "es"))
	if cfg.UIDefaultLanguage != "en" && cfg.UIDefaultLanguage != "es" {
		return nil, fmt.Errorf("AA_UI_DEFAULT_LANGUAGE: недопустимое значение %q, допустимые: en, es", cfg.UIDefaultLanguage)
	}

	// --- Graceful shutdown ---

	// AA_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("AA_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AA_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL для golang-migrate (драйвер pgx5).
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// RedisEnabled — задан ли общий кэш в Redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// loadDotEnv подгружает .env; отсутствие файла не ошибка.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("чтение %s: %w", path, err)
	}
	return nil
}

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает логическое значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
