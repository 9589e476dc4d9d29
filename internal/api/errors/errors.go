// Пакет errors — ответы JSON API консоли в формате конверта backend.
// Единый формат: {"success": bool, "message": "...", "data": ..., "errors": [...]}.
// Все HTTP-ответы API (и успешные, и с ошибками) пишутся через этот пакет.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bigkaa/accessadmin/internal/backend"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/service"
)

// Envelope — тело любого ответа JSON API.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// WriteJSON записывает успешный ответ с данными.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	write(w, statusCode, Envelope{Success: true, Data: data})
}

// WriteError записывает ответ ошибки.
// details — дополнительные сообщения (ошибки полей, ответ backend).
func WriteError(w http.ResponseWriter, statusCode int, message string, details ...string) {
	write(w, statusCode, Envelope{Success: false, Message: message, Errors: details})
}

func write(w http.ResponseWriter, statusCode int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusBadRequest, message, details...)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// Conflict — 409 действие запрещено политикой ролей.
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message)
}

// BackendUnavailable — 502 внешний backend недоступен.
func BackendUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// FromService переводит ошибку сервисного слоя в HTTP-ответ.
// Ответ backend (*backend.APIError) передаётся с его статусом и сообщениями.
func FromService(w http.ResponseWriter, err error) {
	var (
		pv     *rbac.PolicyViolation
		apiErr *backend.APIError
	)
	switch {
	case errors.As(err, &pv):
		Conflict(w, pv.Error())
	case errors.Is(err, service.ErrValidation):
		ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, service.ErrBackendUnavailable):
		BackendUnavailable(w, "backend недоступен")
	case errors.Is(err, backend.ErrUnauthenticated):
		Unauthorized(w, "сессия backend недействительна")
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		WriteError(w, status, apiErr.Message, apiErr.Errors...)
	default:
		InternalError(w, "внутренняя ошибка")
	}
}
