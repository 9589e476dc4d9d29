// render.go — рендеринг страниц, flash-уведомления и перевод ошибок в сообщения.
package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/accessadmin/internal/backend"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/service"
	"github.com/bigkaa/accessadmin/internal/ui/auth"
	"github.com/bigkaa/accessadmin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/accessadmin/internal/ui/middleware"
	"github.com/bigkaa/accessadmin/internal/ui/pages"
)

// flashCookieName — cookie одноразового уведомления.
const flashCookieName = "accessadmin_flash"

// Виды уведомлений.
const (
	flashSuccess = "success"
	flashWarning = "warning"
	flashError   = "error"
)

// render рендерит страницу в буфер и отправляет её целиком.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component, logger *slog.Logger) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// newPage собирает общие данные страницы и забирает flash-уведомление.
func newPage(w http.ResponseWriter, r *http.Request, title string) pages.Page {
	return pages.Page{Title: title, Flash: takeFlash(w, r)}
}

// setFlash сохраняет уведомление до следующей страницы.
func setFlash(w http.ResponseWriter, kind, message string) {
	data, _ := json.Marshal(pages.Flash{Kind: kind, Message: message})
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/admin",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash читает и удаляет уведомление.
func takeFlash(w http.ResponseWriter, r *http.Request) *pages.Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var f pages.Flash
	if err := json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

// redirectWithFlash — уведомление и redirect (POST → redirect → GET).
func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, kind, message string) {
	setFlash(w, kind, message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// errorMessage переводит ошибку сервиса в текст уведомления на языке запроса.
func errorMessage(ctx context.Context, err error) string {
	var (
		pv     *rbac.PolicyViolation
		apiErr *backend.APIError
	)
	switch {
	case errors.As(err, &pv):
		return i18n.T(ctx, "policy."+pv.Action)
	case errors.Is(err, service.ErrInvalidCredentials):
		return i18n.T(ctx, "error.invalid_credentials")
	case errors.Is(err, service.ErrValidation):
		return i18n.T(ctx, "error.validation") + ": " + validationDetail(err)
	case errors.Is(err, service.ErrNotFound):
		return i18n.T(ctx, "error.not_found")
	case errors.Is(err, service.ErrBackendUnavailable):
		return i18n.T(ctx, "error.backend_unavailable")
	case errors.As(err, &apiErr):
		// Сообщение backend показывается как есть
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if len(apiErr.Errors) > 0 {
			return strings.Join(apiErr.Errors, "; ")
		}
		return i18n.T(ctx, "error.internal")
	default:
		return i18n.T(ctx, "error.internal")
	}
}

// validationDetail — текст после «ошибка валидации: ».
func validationDetail(err error) string {
	msg := err.Error()
	marker := service.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// errorStatus — HTTP-статус страницы с ошибкой формы.
func errorStatus(err error) int {
	var pv *rbac.PolicyViolation
	switch {
	case errors.As(err, &pv):
		return http.StatusConflict
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrBackendUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// sessionRejected — backend отклонил токен сессии (истёк или отозван).
func sessionRejected(err error) bool {
	return errors.Is(err, backend.ErrUnauthenticated) || backend.IsStatus(err, http.StatusUnauthorized)
}

// failure обрабатывает ошибку действия: отклонённая сессия → вход,
// иначе уведомление и redirect на back.
func failure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, back, op string, err error) {
	logger.Warn("Ошибка операции",
		slog.String("operation", op),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	if sessionRejected(err) {
		http.Redirect(w, r, uimiddleware.LoginPath, http.StatusSeeOther)
		return
	}
	redirectWithFlash(w, r, back, flashError, errorMessage(r.Context(), err))
}

// principal — принципал запроса (гарантирован middleware аутентификации).
func principal(r *http.Request) *auth.Principal {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		return &auth.Principal{Session: &auth.SessionData{}}
	}
	return p
}

// actor — email администратора для журнала и логов.
func actor(r *http.Request) string {
	return principal(r).Session.Email
}

// idParam разбирает числовой {id} из пути.
func idParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
