// Package httpapi serves the to-do routes over HTTP with Echo.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/todos/internal/auth"
	"horse.fit/todos/internal/todo"
)

const apiKeyHeader = "x-api-key"

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	BodyLimit       string
}

type Server struct {
	router *todo.Router
	keys   *auth.KeySet
	logger zerolog.Logger
	opts   Options
}

// NewServer builds a server. A nil or empty key set turns the API key check off.
func NewServer(router *todo.Router, keys *auth.KeySet, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	bodyLimit := strings.TrimSpace(opts.BodyLimit)
	if bodyLimit == "" {
		bodyLimit = "1M"
	}

	return &Server{
		router: router,
		keys:   keys,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			BodyLimit:       bodyLimit,
		},
	}
}

// Handler returns the configured Echo instance.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(s.opts.BodyLimit))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Info()
			message := "http request"
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = s.logger.Error().Err(v.Error)
				message = "http request failed"
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg(message)
			return nil
		},
	}))

	keyCheck := s.requireAPIKey()
	for _, route := range todo.Routes() {
		var mws []echo.MiddlewareFunc
		if route.KeyRequired && keyCheck != nil {
			mws = append(mws, keyCheck)
		}
		e.Add(route.Method, echoPath(route.Resource), s.dispatch(route.Resource), mws...)
	}

	return e
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.router == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.Handler()
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Bool("api_key_check", !s.keys.Empty()).Msg("todos api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("todos api server stopped")
	return nil
}

// httpErrorHandler renders framework errors. Unmatched paths and methods are
// reported the same way the router reports them.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			_ = writeResponse(c, todo.Unsupported())
			return
		case http.StatusRequestEntityTooLarge:
			_ = c.JSON(he.Code, todo.MessageBody{Message: "Invalid request body", Error: "request body too large"})
			return
		}
		if he.Code < http.StatusInternalServerError {
			message := http.StatusText(he.Code)
			if text, ok := he.Message.(string); ok && strings.TrimSpace(text) != "" {
				message = text
			}
			_ = c.JSON(he.Code, todo.MessageBody{Message: message})
			return
		}
	}

	s.logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled http error")
	_ = c.JSON(http.StatusInternalServerError, todo.MessageBody{Message: "Internal server error", Error: errorText(err)})
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// echoPath turns "/todos/{ownerKey}" into "/todos/:ownerKey".
func echoPath(resource string) string {
	segments := strings.Split(resource, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			segments[i] = ":" + strings.TrimSuffix(strings.TrimPrefix(segment, "{"), "}")
		}
	}
	return strings.Join(segments, "/")
}
