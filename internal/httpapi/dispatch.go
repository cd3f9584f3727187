package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"horse.fit/todos/internal/todo"
)

// dispatch adapts one Echo route to the router's Request form.
func (s *Server) dispatch(resource string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := buildRequest(c, resource)
		if err != nil {
			return err
		}
		return writeResponse(c, s.router.Dispatch(c.Request().Context(), req))
	}
}

func buildRequest(c echo.Context, resource string) (todo.Request, error) {
	// Echo matches on RawPath when the client escaped the path, leaving params encoded.
	escaped := c.Request().URL.RawPath != ""
	pathParams := make(map[string]string, len(c.ParamNames()))
	for _, name := range c.ParamNames() {
		value := c.Param(name)
		if escaped {
			unescaped, err := url.PathUnescape(value)
			if err != nil {
				return todo.Request{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid path parameter %s", name))
			}
			value = unescaped
		}
		pathParams[name] = value
	}

	queryParams := make(map[string]string)
	for key, values := range c.QueryParams() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}

	var body string
	if c.Request().Body != nil {
		raw, err := io.ReadAll(c.Request().Body)
		if err != nil {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				return todo.Request{}, he
			}
			return todo.Request{}, fmt.Errorf("read request body: %w", err)
		}
		body = string(raw)
	}

	return todo.Request{
		Method:      c.Request().Method,
		Resource:    resource,
		PathParams:  pathParams,
		QueryParams: queryParams,
		Body:        body,
	}, nil
}

func writeResponse(c echo.Context, resp todo.Response) error {
	return c.JSON(resp.StatusCode, resp.Body)
}
