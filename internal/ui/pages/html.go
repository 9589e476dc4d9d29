// Пакет pages — templ-компоненты страниц консоли.
package pages

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/accessadmin/internal/ui/i18n"
)

// writer накапливает первую ошибку записи, чтобы компоненты не проверяли каждую строку.
type writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newWriter(ctx context.Context, w io.Writer) *writer {
	return &writer{ctx: ctx, w: w}
}

// raw пишет доверенную разметку.
func (b *writer) raw(s string) {
	if b.err == nil {
		_, b.err = io.WriteString(b.w, s)
	}
}

// text пишет экранированный текст (и значения атрибутов).
func (b *writer) text(s string) {
	b.raw(templ.EscapeString(s))
}

// t пишет экранированный перевод.
func (b *writer) t(key string) {
	b.text(i18n.T(b.ctx, key))
}

// tf пишет экранированный перевод с аргументами.
func (b *writer) tf(key string, args ...any) {
	b.text(i18n.Tf(b.ctx, key, args...))
}

func (b *writer) int(n int) {
	b.raw(strconv.Itoa(n))
}

// url пишет безопасный URL в атрибут.
func (b *writer) url(u string) {
	b.text(string(templ.URL(u)))
}

// component рендерит вложенный компонент.
func (b *writer) component(c templ.Component) {
	if b.err == nil && c != nil {
		b.err = c.Render(b.ctx, b.w)
	}
}

// checked пишет атрибут checked при v == true.
func (b *writer) checked(v bool) {
	if v {
		b.raw(" checked")
	}
}

// selected пишет атрибут selected при v == true.
func (b *writer) selected(v bool) {
	if v {
		b.raw(" selected")
	}
}

// disabled пишет атрибут disabled при v == true.
func (b *writer) disabled(v bool) {
	if v {
		b.raw(" disabled")
	}
}

// component оборачивает функцию рендеринга в templ.Component.
func component(fn func(b *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b := newWriter(ctx, w)
		fn(b)
		return b.err
	})
}

func userPath(id int, suffix string) string {
	return "/admin/users/" + strconv.Itoa(id) + suffix
}

func rolePath(id int, suffix string) string {
	return "/admin/roles/" + strconv.Itoa(id) + suffix
}

func permissionsPath(id int) string {
	return "/admin/permissions/" + strconv.Itoa(id)
}
