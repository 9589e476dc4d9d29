// Пакет i18n — интернационализация консоли.
// T(ctx, key) и Tf(ctx, key, args...) возвращают перевод для языка из контекста запроса.
// Поддерживаемые языки: Español (es), English (en).
// Язык определяется middleware: cookie "lang" → Accept-Language → язык по умолчанию.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
)

// Коды поддерживаемых языков.
const (
	LangES = "es"
	LangEN = "en"
)

var (
	// SupportedLanguages — теги поддерживаемых языков (порядок = приоритет matcher).
	SupportedLanguages = []language.Tag{
		language.Spanish,
		language.English,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// IsSupported проверяет код языка.
func IsSupported(lang string) bool {
	return lang == LangES || lang == LangEN
}

// Bundle — каталоги переводов всех языков.
// Отсутствующий ключ ищется в каталоге языка по умолчанию.
type Bundle struct {
	mu          sync.RWMutex
	catalogs    map[string]map[string]string // lang → key → translation
	defaultLang string
	logger      *slog.Logger
}

// NewBundle создаёт пустой Bundle.
func NewBundle(defaultLang string, logger *slog.Logger) *Bundle {
	if !IsSupported(defaultLang) {
		defaultLang = LangES
	}
	return &Bundle{
		catalogs:    make(map[string]map[string]string),
		defaultLang: defaultLang,
		logger:      logger,
	}
}

// DefaultLang — язык по умолчанию.
func (b *Bundle) DefaultLang() string {
	return b.defaultLang
}

// LoadMessages загружает плоский JSON-каталог {"key": "translation"}.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages

	if b.logger != nil {
		b.logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// Translate возвращает перевод по ключу.
// Ключ, которого нет ни в одном каталоге, возвращается как есть.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg
	}
	if lang != b.defaultLang {
		if msg, ok := b.catalogs[b.defaultLang][key]; ok {
			return msg
		}
	}
	return key
}

// Translatef — Translate с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// MatchLanguage выбирает язык по заголовку Accept-Language.
// Без совпадения возвращает язык по умолчанию.
func (b *Bundle) MatchLanguage(acceptLanguage string) string {
	_, idx, confidence := matcher.Match(parseAccept(acceptLanguage)...)
	if confidence == language.No {
		return b.defaultLang
	}
	base, _ := SupportedLanguages[idx].Base()
	return base.String()
}

func parseAccept(acceptLanguage string) []language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		return nil
	}
	return tags
}

// --- Глобальный Bundle ---

var (
	globalBundle *Bundle
	globalOnce   sync.Once
)

// Init создаёт глобальный Bundle. Повторные вызовы возвращают первый.
func Init(defaultLang string, logger *slog.Logger) *Bundle {
	globalOnce.Do(func() {
		globalBundle = NewBundle(defaultLang, logger)
	})
	return globalBundle
}

// GetBundle возвращает глобальный Bundle (nil если не инициализирован).
func GetBundle() *Bundle {
	return globalBundle
}

// --- Функции для страниц ---

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	if globalBundle != nil {
		return globalBundle.defaultLang
	}
	return LangES
}

// T возвращает перевод по ключу для языка из контекста.
func T(ctx context.Context, key string) string {
	if globalBundle == nil {
		return key
	}
	return globalBundle.Translate(LangFromContext(ctx), key)
}

// Tf — T с подстановкой аргументов.
func Tf(ctx context.Context, key string, args ...any) string {
	if globalBundle == nil {
		if len(args) == 0 {
			return key
		}
		return formatFunc(key, args...)
	}
	return globalBundle.Translatef(LangFromContext(ctx), key, args...)
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят из каталогов,
// статическая printf-проверка go vet к ним неприменима.
var formatFunc = fmt.Sprintf
