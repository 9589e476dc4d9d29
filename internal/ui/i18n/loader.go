// loader.go — каталоги переводов, встроенные в бинарник.
package i18n

import (
	"embed"
	"fmt"
	"log/slog"
)

//go:embed locales/*.json
var localeFS embed.FS

// LoadFromEmbedFS загружает каталог каждого поддерживаемого языка.
// Отсутствие каталога — ошибка запуска.
func LoadFromEmbedFS(bundle *Bundle, logger *slog.Logger) error {
	for _, tag := range SupportedLanguages {
		lang := tag.String()
		path := "locales/" + lang + ".json"
		data, err := localeFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("i18n: каталог %s: %w", path, err)
		}
		if err := bundle.LoadMessages(lang, data); err != nil {
			return err
		}
	}

	logger.Info("Каталоги переводов загружены",
		slog.Int("languages", len(SupportedLanguages)),
		slog.String("default", bundle.DefaultLang()),
	)
	return nil
}
