// Пакет openapi — встроенный OpenAPI 3 документ JSON API консоли.
package openapi

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var spec []byte

// Spec возвращает исходный YAML документа.
func Spec() []byte {
	return spec
}

// Load разбирает и валидирует встроенный документ.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("разбор OpenAPI документа: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("валидация OpenAPI документа: %w", err)
	}
	return doc, nil
}
