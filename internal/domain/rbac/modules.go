package rbac

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CanonicalCode — внутренний ключ модуля: нижний регистр без окружающих пробелов.
// Исходное написание кода сохраняется только для отображения.
func CanonicalCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// adminModules — модули, доступные только администраторам.
// Одна нормализованная запись на модуль; варианты регистра покрываются нормализацией.
var adminModules = map[string]struct{}{
	"users":           {},
	"usuarios":        {},
	"roles":           {},
	"permissions":     {},
	"permisos":        {},
	"modules":         {},
	"modulos":         {},
	"admin":           {},
	"administracion":  {},
	"administration":  {},
	"admin-utilities": {},
	"utilidades":      {},
}

// NormalizeModuleCode приводит код к форме allow-list:
// нижний регистр, без диакритики, «_» и пробелы заменены на «-».
func NormalizeModuleCode(code string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, code)
	if err != nil {
		folded = code
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, folded)
}

// IsAdminModule проверяет, входит ли модуль в список админских.
func IsAdminModule(code string) bool {
	_, ok := adminModules[NormalizeModuleCode(code)]
	return ok
}
