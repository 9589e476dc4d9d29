// Пакет backend — HTTP-клиент внешнего REST backend консоли.
// Все ответы backend обёрнуты в конверт {success, message, data, errors}.
// Запросы авторизуются bearer-токеном вошедшего администратора (из контекста запроса).
// Поддерживает TLS с кастомным CA (AA_BACKEND_CA_CERT_PATH) и трассировку через otelhttp.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrTransport — сетевая ошибка: backend не ответил (класс (a)).
var ErrTransport = errors.New("backend недоступен")

// ErrUnauthenticated — в контексте нет токена для авторизованного запроса.
var ErrUnauthenticated = errors.New("нет токена backend")

// APIError — backend ответил success=false или статусом не 2xx (класс (b)).
type APIError struct {
	// Status — HTTP-статус ответа
	Status int
	// Message — сообщение backend (может быть пустым)
	Message string
	// Errors — детализация ошибок валидации
	Errors []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && len(e.Errors) > 0 {
		msg = strings.Join(e.Errors, "; ")
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("backend вернул ошибку (статус %d): %s", e.Status, msg)
}

// IsStatus проверяет, что err — APIError с указанным статусом.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// envelope — обёртка всех ответов backend.
type envelope struct {
	Success bool            `json:"success"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

// TokenProvider — функция, возвращающая bearer-токен для запроса.
type TokenProvider func(ctx context.Context) (string, error)

type tokenKey struct{}

// WithToken сохраняет токен администратора в контексте запроса.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext — TokenProvider по умолчанию: токен из WithToken.
func TokenFromContext(ctx context.Context) (string, error) {
	token, _ := ctx.Value(tokenKey{}).(string)
	if token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}

// Options — параметры клиента.
type Options struct {
	// BaseURL — базовый URL backend (без trailing slash)
	BaseURL string
	// Timeout — таймаут одного запроса
	Timeout time.Duration
	// CACertPath — путь к CA-сертификату (пустая строка — системный пул)
	CACertPath string
	// TokenProvider — источник токена (nil — TokenFromContext)
	TokenProvider TokenProvider
	// HTTPClient — готовый HTTP-клиент (для тестов); CACertPath тогда игнорируется
	HTTPClient *http.Client
}

// Client — HTTP-клиент backend.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// New создаёт клиент backend.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("не задан URL backend")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}

		base := http.DefaultTransport.(*http.Transport).Clone()
		if opts.CACertPath != "" {
			tlsConfig, err := buildTLSConfig(opts.CACertPath)
			if err != nil {
				return nil, fmt.Errorf("загрузка CA-сертификата backend: %w", err)
			}
			base.TLSClientConfig = tlsConfig
			logger.Info("CA-сертификат backend добавлен в пул доверия",
				slog.String("ca_cert", opts.CACertPath),
			)
		}

		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		}
	}

	tp := opts.TokenProvider
	if tp == nil {
		tp = TokenFromContext
	}

	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		httpClient:    httpClient,
		tokenProvider: tp,
		logger:        logger.With(slog.String("component", "backend_client")),
	}, nil
}

// BaseURL возвращает базовый URL backend (для проверки здоровья).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в файле %s нет PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// --- HTTP helpers ---

// doAuthorized выполняет запрос с bearer-токеном и декодирует data конверта в target.
func (c *Client) doAuthorized(ctx context.Context, method, path string, body, target any) error {
	token, err := c.tokenProvider(ctx)
	if err != nil {
		return fmt.Errorf("получение токена: %w", err)
	}
	return c.do(ctx, method, path, token, body, target)
}

// do выполняет запрос к backend. token может быть пустым (публичные endpoint'ы).
func (c *Client) do(ctx context.Context, method, path, token string, body, target any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("сериализация тела запроса: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Backend не ответил",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}

	c.logger.Debug("Запрос к backend",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return decodeResponse(resp, target)
}

// decodeResponse разбирает конверт и декодирует data в target.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: чтение ответа: %w", ErrTransport, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	if len(bytes.TrimSpace(raw)) == 0 {
		if !ok {
			return &APIError{Status: resp.StatusCode}
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if !ok {
			return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("декодирование конверта backend: %w", err)
	}

	if !ok || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Errors: env.Errors}
		if env.Message != nil {
			apiErr.Message = *env.Message
		}
		return apiErr
	}

	if target == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("декодирование данных backend: %w", err)
	}
	return nil
}
