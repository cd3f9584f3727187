package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"horse.fit/todos/internal/todo"
)

// requireAPIKey checks the x-api-key header against the configured hashes.
// It returns nil when no hashes are configured.
func (s *Server) requireAPIKey() echo.MiddlewareFunc {
	if s.keys.Empty() {
		return nil
	}
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + apiKeyHeader,
		Validator: func(key string, _ echo.Context) (bool, error) {
			return s.keys.Verify(key), nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			s.logger.Debug().Err(err).Str("path", c.Request().URL.Path).Msg("api key rejected")
			return c.JSON(http.StatusForbidden, todo.MessageBody{Message: "Forbidden"})
		},
	})
}
