package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"AA_DB_HOST":     "localhost",
		"AA_DB_NAME":     "accessadmin",
		"AA_DB_USER":     "accessadmin",
		"AA_DB_PASSWORD": "secret",
		"AA_BACKEND_URL": "https://backend.example.com",
		"AA_ENV_FILE":    "/nonexistent/.env",
	}
}

// resetEnvs очищает обязательные переменные перед тестом с неполным набором.
func resetEnvs(t *testing.T) {
	t.Helper()
	for k := range minimalEnvs() {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.DBMaxConns != 4 {
		t.Errorf("DBMaxConns = %d, ожидается 4", cfg.DBMaxConns)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Errorf("BackendTimeout = %v, ожидается 10s", cfg.BackendTimeout)
	}
	if cfg.BackendHealthPath != "/health" {
		t.Errorf("BackendHealthPath = %q, ожидается /health", cfg.BackendHealthPath)
	}
	if cfg.SessionTTL != 8*time.Hour {
		t.Errorf("SessionTTL = %v, ожидается 8h", cfg.SessionTTL)
	}
	if !cfg.SessionSecure {
		t.Error("SessionSecure по умолчанию должен быть true")
	}
	if cfg.AccessCacheTTL != time.Minute || cfg.AccessCacheSize != 1000 {
		t.Errorf("кэш = %v/%d, ожидается 1m/1000", cfg.AccessCacheTTL, cfg.AccessCacheSize)
	}
	if cfg.RedisEnabled() {
		t.Error("Redis по умолчанию выключен")
	}
	if cfg.DephealthGroup != "accessadmin" {
		t.Errorf("DephealthGroup = %q", cfg.DephealthGroup)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.UIDefaultLanguage != "es" {
		t.Errorf("UIDefaultLanguage = %q, ожидается es", cfg.UIDefaultLanguage)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["AA_PORT"] = "9090"
	envs["AA_LOG_LEVEL"] = "debug"
	envs["AA_LOG_FORMAT"] = "text"
	envs["AA_BACKEND_URL"] = "https://backend.example.com/api/"
	envs["AA_BACKEND_TIMEOUT"] = "3s"
	envs["AA_BACKEND_CA_CERT_PATH"] = "/certs/ca.pem"
	envs["AA_SESSION_SECURE"] = "false"
	envs["AA_JWT_JWKS_URL"] = "https://backend.example.com/.well-known/jwks.json"
	envs["AA_JWT_ISSUER"] = "backend"
	envs["AA_REDIS_ADDR"] = "redis:6379"
	envs["AA_REDIS_DB"] = "2"
	envs["AA_UI_DEFAULT_LANGUAGE"] = "EN"
	envs["AA_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.BackendURL != "https://backend.example.com/api" {
		t.Errorf("BackendURL = %q, ожидается без trailing slash", cfg.BackendURL)
	}
	if cfg.BackendTimeout != 3*time.Second {
		t.Errorf("BackendTimeout = %v", cfg.BackendTimeout)
	}
	if cfg.SessionSecure {
		t.Error("SessionSecure = true, ожидается false")
	}
	if !cfg.RedisEnabled() || cfg.RedisDB != 2 {
		t.Errorf("Redis = %q/%d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.UIDefaultLanguage != "en" {
		t.Errorf("UIDefaultLanguage = %q, ожидается en", cfg.UIDefaultLanguage)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	requiredVars := []string{
		"AA_DB_HOST", "AA_DB_NAME", "AA_DB_USER", "AA_DB_PASSWORD", "AA_BACKEND_URL",
	}

	for _, missing := range requiredVars {
		t.Run(missing, func(t *testing.T) {
			resetEnvs(t)
			envs := minimalEnvs()
			delete(envs, missing)
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() не вернул ошибку при отсутствии %s", missing)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"порт ниже диапазона", "AA_PORT", "0"},
		{"порт выше диапазона", "AA_PORT", "70000"},
		{"порт не число", "AA_PORT", "abc"},
		{"уровень логов", "AA_LOG_LEVEL", "verbose"},
		{"формат логов", "AA_LOG_FORMAT", "xml"},
		{"режим SSL", "AA_DB_SSL_MODE", "prefer"},
		{"размер пула", "AA_DB_MAX_CONNS", "0"},
		{"URL backend без схемы", "AA_BACKEND_URL", "backend.local"},
		{"таймаут backend", "AA_BACKEND_TIMEOUT", "soon"},
		{"health path без слэша", "AA_BACKEND_HEALTH_PATH", "health"},
		{"secure не bool", "AA_SESSION_SECURE", "maybe"},
		{"размер кэша", "AA_ACCESS_CACHE_SIZE", "0"},
		{"номер БД Redis", "AA_REDIS_DB", "x"},
		{"язык", "AA_UI_DEFAULT_LANGUAGE", "ru"},
		{"интервал dephealth", "AA_DEPHEALTH_CHECK_INTERVAL", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetEnvs(t)
			envs := minimalEnvs()
			envs[tt.key] = tt.value
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() не вернул ошибку при %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_IssuerRequiresJWKS(t *testing.T) {
	envs := minimalEnvs()
	envs["AA_JWT_ISSUER"] = "backend"
	setEnvs(t, envs)

	if _, err := Load(); err == nil {
		t.Error("AA_JWT_ISSUER без AA_JWT_JWKS_URL должен быть ошибкой")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	resetEnvs(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "AA_DB_HOST=db.from.file\nAA_DB_NAME=aa\nAA_DB_USER=aa\nAA_DB_PASSWORD=pw\nAA_BACKEND_URL=http://backend:5000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AA_ENV_FILE", path)
	// Переменная окружения имеет приоритет над .env
	t.Setenv("AA_DB_NAME", "from-env")

	// godotenv пишет в окружение процесса; убираем за собой
	t.Cleanup(func() {
		for _, k := range []string{"AA_DB_HOST", "AA_DB_USER", "AA_DB_PASSWORD", "AA_BACKEND_URL"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.DBHost != "db.from.file" {
		t.Errorf("DBHost = %q, ожидается значение из .env", cfg.DBHost)
	}
	if cfg.DBName != "from-env" {
		t.Errorf("DBName = %q, окружение должно иметь приоритет", cfg.DBName)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.example.com",
		DBPort:     5432,
		DBName:     "accessadmin",
		DBUser:     "user",
		DBPassword: "pass",
		DBSSLMode:  "disable",
	}
	expected := "host=db.example.com port=5432 dbname=accessadmin user=user password=pass sslmode=disable"
	if dsn := cfg.DatabaseDSN(); dsn != expected {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", dsn, expected)
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     5433,
		DBName:     "accessadmin",
		DBUser:     "user",
		DBPassword: "p@ss/word",
		DBSSLMode:  "require",
	}
	expected := "pgx5://user:p%40ss%2Fword@db:5433/accessadmin?sslmode=require"
	if u := cfg.DatabaseURL(); u != expected {
		t.Errorf("DatabaseURL() = %q, ожидается %q", u, expected)
	}
}

func TestSetupLogger(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		t.Run(format, func(t *testing.T) {
			logger := SetupLogger(&Config{LogLevel: slog.LevelInfo, LogFormat: format})
			if logger == nil {
				t.Error("SetupLogger() вернул nil")
			}
		})
	}
}
