package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

const (
	testKeyID  = "test-key-aa"
	testIssuer = "https://backend.test"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}
	data, _ := json.Marshal(jwks)
	return data
}

// signToken подписывает JWT RS256 с указанными iss и exp.
func signToken(t *testing.T, key *rsa.PrivateKey, iss string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "7",
		"iss": iss,
		"exp": jwt.NewNumericDate(exp),
		"iat": jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// hsToken — токен HS256, как выдаёт backend с симметричным ключом.
func hsToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestTokenVerifier_Unverified проверяет чтение exp без JWKS.
func TestTokenVerifier_Unverified(t *testing.T) {
	tv, err := NewTokenVerifier("", "", "", time.Second, testLogger())
	if err != nil {
		t.Fatalf("NewTokenVerifier: %v", err)
	}
	if tv.Verifies() {
		t.Error("Verifies() = true без JWKS")
	}
	ctx := context.Background()
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)

	got, err := tv.Expiry(ctx, hsToken(t, jwt.MapClaims{"exp": jwt.NewNumericDate(exp)}))
	if err != nil {
		t.Fatalf("Expiry: %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("Expiry = %v, ожидалось %v", got, exp)
	}

	got, err = tv.Expiry(ctx, hsToken(t, jwt.MapClaims{"sub": "7"}))
	if err != nil || !got.IsZero() {
		t.Errorf("без exp: Expiry = %v, %v; ожидалось нулевое время", got, err)
	}

	got, err = tv.Expiry(ctx, "opaque-session-token")
	if err != nil || !got.IsZero() {
		t.Errorf("не JWT: Expiry = %v, %v; ожидалось нулевое время", got, err)
	}

	_, err = tv.Expiry(ctx, hsToken(t, jwt.MapClaims{"exp": jwt.NewNumericDate(time.Now().Add(-time.Hour))}))
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("истёкший токен: ошибка = %v, ожидалась ErrInvalidToken", err)
	}
}

// TestTokenVerifier_JWKS проверяет подпись и issuer через JWKS.
func TestTokenVerifier_JWKS(t *testing.T) {
	key := generateTestKey(t)
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("keyfunc: %v", err)
	}
	tv := NewTokenVerifierWithKeyfunc(kf, testIssuer, testLogger())
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	got, err := tv.Expiry(ctx, signToken(t, key, testIssuer, exp))
	if err != nil {
		t.Fatalf("Expiry: %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("Expiry = %v, ожидалось %v", got, exp)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"чужой issuer", signToken(t, key, "https://evil.test", exp)},
		{"истёкший", signToken(t, key, testIssuer, time.Now().Add(-time.Hour))},
		{"чужой ключ", signToken(t, generateTestKey(t), testIssuer, exp)},
		{"HS256", hsToken(t, jwt.MapClaims{"iss": testIssuer, "exp": jwt.NewNumericDate(exp)})},
		{"мусор", "not-a-jwt"},
	}
	for _, tt := range tests {
		if _, err := tv.Expiry(ctx, tt.token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: ошибка = %v, ожидалась ErrInvalidToken", tt.name, err)
		}
	}
}

// TestSessionExpiry проверяет ограничение срока сессии TTL.
func TestSessionExpiry(t *testing.T) {
	ttl := time.Hour

	if got := SessionExpiry(time.Time{}, ttl); time.Until(got) < 59*time.Minute {
		t.Errorf("без exp: срок = %v, ожидалось now+ttl", got)
	}
	soon := time.Now().Add(10 * time.Minute)
	if got := SessionExpiry(soon, ttl); !got.Equal(soon) {
		t.Errorf("ранний exp: срок = %v, ожидалось %v", got, soon)
	}
	late := time.Now().Add(48 * time.Hour)
	if got := SessionExpiry(late, ttl); got.After(time.Now().Add(ttl + time.Second)) {
		t.Errorf("поздний exp: срок = %v, ожидалось не позже now+ttl", got)
	}
}

// TestAccessAndPrincipal проверяет карту доступа и принципала в контексте.
func TestAccessAndPrincipal(t *testing.T) {
	access := Access{"users": rbac.LevelReadOnly, "roles": rbac.LevelEdit, "home": rbac.LevelNone}

	if !access.Allows("Users") || access.CanEdit("users") {
		t.Error("users: ожидался доступ только на чтение")
	}
	if !access.CanEdit("roles") {
		t.Error("roles: ожидалось редактирование")
	}
	if access.Allows("home") || access.Allows("missing") {
		t.Error("home/missing: доступ должен быть запрещён")
	}

	if PrincipalFromContext(context.Background()) != nil {
		t.Error("пустой контекст должен давать nil")
	}
	p := &Principal{Session: testSession(), Access: access}
	if got := PrincipalFromContext(WithPrincipal(context.Background(), p)); got != p {
		t.Error("принципал не найден в контексте")
	}
}
