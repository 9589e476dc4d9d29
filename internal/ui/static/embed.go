// Пакет static — встроенные статические ресурсы консоли (CSS, JS).
// Файлы встраиваются в бинарник через //go:embed и раздаются по /static/*.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed css/*.css js/*.js
var content embed.FS

// FileSystem возвращает http.FileSystem для /static/*.
// Файлы доступны по путям вида /static/css/app.css, /static/js/app.js.
func FileSystem() http.FileSystem {
	return http.FS(content)
}

// FS возвращает fs.FS для прямого доступа к встроенным файлам.
func FS() fs.FS {
	return content
}
