// auth.go — вход по email и паролю через backend, выход и сброс пароля.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bigkaa/accessadmin/internal/backend"
	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/service"
	"github.com/bigkaa/accessadmin/internal/ui/auth"
	"github.com/bigkaa/accessadmin/internal/ui/i18n"
	"github.com/bigkaa/accessadmin/internal/ui/pages"
)

// RoleLookup — имя роли по id (роль пользователя после входа).
type RoleLookup interface {
	GetRole(ctx context.Context, id int) (*model.Role, error)
}

// SessionForgetter — сброс кэша карты доступа пользователя.
type SessionForgetter interface {
	ForgetSession(ctx context.Context, userID int)
}

// AuthHandler — обработчики входа, выхода и сброса пароля.
type AuthHandler struct {
	auth     Authenticator
	tokens   TokenExpiry
	sessions *auth.SessionManager
	roles    RoleLookup
	access   SessionForgetter
	logger   *slog.Logger
}

// NewAuthHandler создаёт AuthHandler.
func NewAuthHandler(
	authenticator Authenticator,
	tokens TokenExpiry,
	sessions *auth.SessionManager,
	roles RoleLookup,
	access SessionForgetter,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:     authenticator,
		tokens:   tokens,
		sessions: sessions,
		roles:    roles,
		access:   access,
		logger:   logger.With(slog.String("component", "ui.auth")),
	}
}

// HandleLoginPage — GET /admin/login.
// С действующей сессией — сразу на главную.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if session, err := h.sessions.GetSessionFromRequest(r); err == nil && session != nil && !session.IsExpired() {
		http.Redirect(w, r, "/admin/", http.StatusFound)
		return
	}
	render(w, r, http.StatusOK, pages.Login(newPage(w, r, "title.login"), pages.LoginData{}), h.logger)
}

// HandleLogin — POST /admin/login.
// Токен backend и профиль пользователя сохраняются в зашифрованном cookie.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	result, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		h.loginFailed(w, r, email, err)
		return
	}

	tokenExp, err := h.tokens.Expiry(r.Context(), result.Token)
	if err != nil {
		h.logger.Warn("Токен backend отклонён",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, auth.ErrInvalidToken) {
			err = service.ErrInvalidCredentials
		}
		h.loginFailed(w, r, email, err)
		return
	}
	expiresAt := auth.SessionExpiry(tokenExp, h.sessions.TTL())

	user := result.User
	ctx := backend.WithToken(r.Context(), result.Token)
	session := &auth.SessionData{
		Token:     result.Token,
		ExpiresAt: expiresAt.Unix(),
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName(),
		RoleName:  h.roleName(ctx, &user),
	}
	if session.FullName == "" {
		session.FullName = user.Email
	}

	// Карта доступа новой сессии читается заново
	h.access.ForgetSession(ctx, user.ID)

	if err := h.sessions.SetSessionCookie(w, session); err != nil {
		h.logger.Error("Ошибка установки session cookie", slog.String("error", err.Error()))
		http.Error(w, "Ошибка создания сессии", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Пользователь вошёл в консоль",
		slog.Int("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("role", session.RoleName),
		slog.Time("expires_at", expiresAt),
	)
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, email string, err error) {
	data := pages.LoginData{Email: email, Error: errorMessage(r.Context(), err)}
	render(w, r, errorStatus(err), pages.Login(pages.Page{Title: "title.login"}, data), h.logger)
}

// roleName — имя роли из ответа входа или из справочника ролей.
func (h *AuthHandler) roleName(ctx context.Context, u *model.User) string {
	if u.RoleName != "" || u.RoleID == 0 || h.roles == nil {
		return u.RoleName
	}
	role, err := h.roles.GetRole(ctx, u.RoleID)
	if err != nil {
		h.logger.Warn("Не удалось получить роль пользователя",
			slog.Int("user_id", u.ID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return role.Name
}

// HandleLogout — POST /admin/logout.
// Очищает cookie и кэш карты доступа.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if session, err := h.sessions.GetSessionFromRequest(r); err == nil && session != nil {
		h.access.ForgetSession(r.Context(), session.UserID)
		h.logger.Info("Пользователь вышел из консоли", slog.String("email", session.Email))
	}
	h.sessions.ClearSessionCookie(w)
	redirectWithFlash(w, r, "/admin/login", flashSuccess, i18n.T(r.Context(), "flash.logged_out"))
}

// HandleForgotPage — GET /admin/forgot-password.
func (h *AuthHandler) HandleForgotPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK,
		pages.ForgotPassword(newPage(w, r, "title.forgot"), pages.ForgotPasswordData{}), h.logger)
}

// HandleForgot — POST /admin/forgot-password.
func (h *AuthHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	page := pages.Page{Title: "title.forgot"}

	if err := h.auth.ForgotPassword(r.Context(), email); err != nil {
		h.logger.Warn("Ошибка запроса сброса пароля", slog.String("error", err.Error()))
		data := pages.ForgotPasswordData{Email: email, Error: errorMessage(r.Context(), err)}
		render(w, r, errorStatus(err), pages.ForgotPassword(page, data), h.logger)
		return
	}
	render(w, r, http.StatusOK, pages.ForgotPassword(page, pages.ForgotPasswordData{Sent: true}), h.logger)
}

// HandleResetPage — GET /admin/reset-password?token=...
func (h *AuthHandler) HandleResetPage(w http.ResponseWriter, r *http.Request) {
	data := pages.ResetPasswordData{Token: r.URL.Query().Get("token")}
	render(w, r, http.StatusOK, pages.ResetPassword(newPage(w, r, "title.reset"), data), h.logger)
}

// HandleReset — POST /admin/reset-password.
func (h *AuthHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	input := backend.ResetPasswordInput{
		Token:           r.FormValue("token"),
		NewPassword:     r.FormValue("newPassword"),
		ConfirmPassword: r.FormValue("confirmPassword"),
	}
	if err := h.auth.ResetPassword(r.Context(), input); err != nil {
		h.logger.Warn("Ошибка сброса пароля", slog.String("error", err.Error()))
		data := pages.ResetPasswordData{Token: input.Token, Error: errorMessage(r.Context(), err)}
		render(w, r, errorStatus(err), pages.ResetPassword(pages.Page{Title: "title.reset"}, data), h.logger)
		return
	}
	redirectWithFlash(w, r, "/admin/login", flashSuccess, i18n.T(r.Context(), "flash.reset_done"))
}
