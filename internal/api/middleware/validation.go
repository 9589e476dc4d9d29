// validation.go — проверка запросов JSON API по встроенному OpenAPI документу.
// Тело, path- и query-параметры проверяются до обработчика; ошибка — 400 в конверте.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	apierrors "github.com/bigkaa/accessadmin/internal/api/errors"
)

// OpenAPIValidator — middleware валидации запросов.
type OpenAPIValidator struct {
	router routers.Router
	logger *slog.Logger
}

// NewOpenAPIValidator создаёт валидатор по документу.
func NewOpenAPIValidator(doc *openapi3.T, logger *slog.Logger) (*OpenAPIValidator, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("создание OpenAPI router: %w", err)
	}
	return &OpenAPIValidator{
		router: router,
		logger: logger.With(slog.String("component", "openapi_validator")),
	}, nil
}

// Middleware возвращает HTTP middleware.
// Запросы к путям вне документа пропускаются (404/405 отдаёт chi).
func (v *OpenAPIValidator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := v.router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					// Аутентификация — cookie сессии, проверяется отдельным middleware
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
					MultiError:         true,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				details := validationDetails(err)
				v.logger.Debug("Запрос не прошёл валидацию",
					slog.String("path", r.URL.Path),
					slog.Any("errors", details),
				)
				apierrors.ValidationError(w, "запрос не соответствует схеме API", details...)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validationDetails раскладывает ошибку валидации на сообщения.
func validationDetails(err error) []string {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		details := make([]string, 0, len(multi))
		for _, e := range multi {
			details = append(details, validationMessage(e))
		}
		return details
	}
	return []string{validationMessage(err)}
}

func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("параметр %s: %s", reqErr.Parameter.Name, reqErr.Reason)
		}
		if reqErr.Err != nil {
			return reqErr.Err.Error()
		}
		return reqErr.Reason
	}
	return err.Error()
}
