// Пакет auth — сессия консоли: зашифрованный cookie AES-256-GCM,
// проверка срока токена backend и принципал запроса с картой доступа.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Имя cookie для зашифрованной сессии.
const SessionCookieName = "accessadmin_session"

// SessionData — данные сессии, хранящиеся в зашифрованном cookie.
// Карта доступа в cookie не хранится: она разрешается на каждый запрос.
type SessionData struct {
	// Token — bearer-токен backend из POST /Users/login.
	Token string `json:"token"`
	// ExpiresAt — время истечения сессии (Unix timestamp).
	ExpiresAt int64 `json:"expires_at"`
	// UserID — id пользователя в backend.
	UserID int `json:"user_id"`
	// Email — email пользователя (actor в журнале изменений).
	Email string `json:"email"`
	// FullName — имя для шапки страницы.
	FullName string `json:"full_name"`
	// RoleName — имя роли на момент входа.
	RoleName string `json:"role_name"`
}

// IsExpired проверяет, истекла ли сессия.
// Возвращает true если до истечения менее 30 секунд.
func (s *SessionData) IsExpired() bool {
	return time.Now().Unix() >= s.ExpiresAt-30
}

// SessionManager — менеджер сессий.
// Шифрует/дешифрует SessionData в HTTP cookies через AES-256-GCM.
type SessionManager struct {
	gcm cipher.AEAD
	// secure — Secure flag для cookie (true для HTTPS).
	secure bool
	// ttl — максимальная длительность сессии.
	ttl time.Duration
}

// NewSessionManager создаёт новый менеджер сессий.
// key — 32-байтовый ключ (base64) или произвольная строка (хешируется SHA-256).
// Если key пустой — генерируется случайный ключ (сессии не переживают рестарт).
func NewSessionManager(key string, secure bool, ttl time.Duration) (*SessionManager, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			keyBytes = sha256Key(key)
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	if ttl <= 0 {
		ttl = 8 * time.Hour
	}

	return &SessionManager{
		gcm:    gcm,
		secure: secure,
		ttl:    ttl,
	}, nil
}

// TTL — максимальная длительность сессии.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// Encrypt шифрует SessionData и возвращает base64-строку.
func (sm *SessionManager) Encrypt(data *SessionData) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, sm.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	// nonce prepended к ciphertext
	ciphertext := sm.gcm.Seal(nonce, nonce, plaintext, nil)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt дешифрует base64-строку обратно в SessionData.
func (sm *SessionManager) Decrypt(encrypted string) (*SessionData, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := sm.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := sm.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}

	return &data, nil
}

// SetSessionCookie устанавливает зашифрованный session cookie в ответ.
// Срок cookie — до ExpiresAt сессии.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, data *SessionData) error {
	encrypted, err := sm.Encrypt(data)
	if err != nil {
		return err
	}

	maxAge := int(time.Until(time.Unix(data.ExpiresAt, 0)).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	// Path "/" — cookie нужен и UI (/admin), и JSON API (/api/v1)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// GetSessionFromRequest извлекает и дешифрует SessionData из cookie запроса.
// Возвращает nil, nil если cookie отсутствует.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	return sm.Decrypt(cookie.Value)
}

// ClearSessionCookie удаляет session cookie из ответа (logout).
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sha256Key хеширует строковый ключ в 32 bytes через SHA-256.
func sha256Key(key string) []byte {
	h := sha256.Sum256([]byte(key))
	return h[:]
}
