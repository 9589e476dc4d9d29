// token.go — срок действия токена backend.
// Без JWKS токен разбирается без проверки подписи (только exp).
// С JWKS подпись проверяется через keyfunc, с issuer — ещё и iss.
package auth

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken — токен backend не прошёл проверку.
var ErrInvalidToken = errors.New("невалидный токен backend")

// TokenVerifier определяет срок действия токена, выданного backend при входе.
type TokenVerifier struct {
	jwks   keyfunc.Keyfunc
	issuer string
	leeway time.Duration
	logger *slog.Logger
}

// NewTokenVerifier создаёт проверку токенов.
// jwksURL == "" — токен не проверяется, из него читается только exp.
// caCertPath — опциональный CA для TLS до JWKS endpoint.
func NewTokenVerifier(jwksURL, caCertPath, issuer string, timeout time.Duration, logger *slog.Logger) (*TokenVerifier, error) {
	tv := &TokenVerifier{
		issuer: issuer,
		leeway: 30 * time.Second,
		logger: logger.With(slog.String("component", "token_verifier")),
	}
	if jwksURL == "" {
		return tv, nil
	}

	httpClient := http.DefaultClient
	if caCertPath != "" {
		var err error
		httpClient, err = httpClientWithCA(caCertPath, timeout)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата %s: %w", caCertPath, err)
		}
	}

	// NoErrorReturnFirstHTTPReq — стартуем даже если JWKS ещё недоступен
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    httpClient,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           time.Hour,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}
	tv.jwks = k
	return tv, nil
}

// NewTokenVerifierWithKeyfunc создаёт проверку с готовой keyfunc.
// Используется в тестах для подстановки JWKS.
func NewTokenVerifierWithKeyfunc(kf keyfunc.Keyfunc, issuer string, logger *slog.Logger) *TokenVerifier {
	return &TokenVerifier{
		jwks:   kf,
		issuer: issuer,
		leeway: 30 * time.Second,
		logger: logger.With(slog.String("component", "token_verifier")),
	}
}

// Verifies — проверяется ли подпись токена.
func (tv *TokenVerifier) Verifies() bool {
	return tv.jwks != nil
}

// Expiry возвращает время истечения токена.
// Нулевое время — в токене нет exp (или это не JWT) и подпись не проверяется:
// срок сессии тогда задаёт только TTL.
func (tv *TokenVerifier) Expiry(ctx context.Context, token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}

	if tv.jwks == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			tv.logger.Debug("Токен backend не является JWT", slog.String("error", err.Error()))
			return time.Time{}, nil
		}
		if claims.ExpiresAt == nil {
			return time.Time{}, nil
		}
		if time.Now().After(claims.ExpiresAt.Time) {
			return time.Time{}, fmt.Errorf("%w: срок истёк", ErrInvalidToken)
		}
		return claims.ExpiresAt.Time, nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(tv.leeway),
	}
	if tv.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tv.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, tv.jwks.KeyfuncCtx(ctx), opts...)
	if err != nil || !parsed.Valid {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims.ExpiresAt.Time, nil
}

// SessionExpiry — срок сессии: exp токена, но не позже now+ttl.
func SessionExpiry(tokenExpiry time.Time, ttl time.Duration) time.Time {
	limit := time.Now().Add(ttl)
	if tokenExpiry.IsZero() || tokenExpiry.After(limit) {
		return limit
	}
	return tokenExpiry
}

// httpClientWithCA создаёт HTTP-клиент с кастомным CA-сертификатом.
func httpClientWithCA(caCertPath string, timeout time.Duration) (*http.Client, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, err
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs: caCertPool,
			},
		},
	}, nil
}
