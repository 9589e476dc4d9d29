package pages

import "github.com/a-h/templ"

// LoginData — данные страницы входа.
type LoginData struct {
	Email string
	Error string
}

// Login — страница входа по email и паролю.
func Login(page Page, data LoginData) templ.Component {
	return AuthLayout(page, component(func(b *writer) {
		b.raw(`<h2>`)
		b.t("login.heading")
		b.raw(`</h2>`)
		if data.Error != "" {
			b.raw(`<p class="form-error">`)
			b.text(data.Error)
			b.raw(`</p>`)
		}
		b.raw(`<form method="post" action="/admin/login" class="stack"><label>`)
		b.t("field.email")
		b.raw(`<input type="email" name="email" required autocomplete="username" value="`)
		b.text(data.Email)
		b.raw(`"></label><label>`)
		b.t("field.password")
		b.raw(`<input type="password" name="password" required autocomplete="current-password"></label><button type="submit" class="primary">`)
		b.t("login.submit")
		b.raw(`</button></form><p><a href="/admin/forgot-password">`)
		b.t("login.forgot")
		b.raw(`</a></p>`)
	}))
}

// ForgotPasswordData — данные страницы запроса сброса пароля.
type ForgotPasswordData struct {
	Email string
	Sent  bool
	Error string
}

// ForgotPassword — запрос письма для сброса пароля.
func ForgotPassword(page Page, data ForgotPasswordData) templ.Component {
	return AuthLayout(page, component(func(b *writer) {
		b.raw(`<h2>`)
		b.t("forgot.heading")
		b.raw(`</h2>`)
		if data.Sent {
			b.raw(`<p class="notice">`)
			b.t("forgot.sent")
			b.raw(`</p><p><a href="/admin/login">`)
			b.t("common.back_to_login")
			b.raw(`</a></p>`)
			return
		}
		if data.Error != "" {
			b.raw(`<p class="form-error">`)
			b.text(data.Error)
			b.raw(`</p>`)
		}
		b.raw(`<form method="post" action="/admin/forgot-password" class="stack"><label>`)
		b.t("field.email")
		b.raw(`<input type="email" name="email" required value="`)
		b.text(data.Email)
		b.raw(`"></label><button type="submit" class="primary">`)
		b.t("forgot.submit")
		b.raw(`</button></form><p><a href="/admin/login">`)
		b.t("common.back_to_login")
		b.raw(`</a></p>`)
	}))
}

// ResetPasswordData — данные страницы установки нового пароля.
type ResetPasswordData struct {
	Token string
	Error string
}

// ResetPassword — установка нового пароля по токену из письма.
func ResetPassword(page Page, data ResetPasswordData) templ.Component {
	return AuthLayout(page, component(func(b *writer) {
		b.raw(`<h2>`)
		b.t("reset.heading")
		b.raw(`</h2>`)
		if data.Error != "" {
			b.raw(`<p class="form-error">`)
			b.text(data.Error)
			b.raw(`</p>`)
		}
		b.raw(`<form method="post" action="/admin/reset-password" class="stack"><input type="hidden" name="token" value="`)
		b.text(data.Token)
		b.raw(`"><label>`)
		b.t("field.new_password")
		b.raw(`<input type="password" name="newPassword" required minlength="8" autocomplete="new-password"></label><label>`)
		b.t("field.confirm_password")
		b.raw(`<input type="password" name="confirmPassword" required minlength="8" autocomplete="new-password"></label><button type="submit" class="primary">`)
		b.t("reset.submit")
		b.raw(`</button></form>`)
	}))
}
