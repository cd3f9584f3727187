// Package lambdaapi serves the to-do routes behind an API Gateway proxy integration.
package lambdaapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"horse.fit/todos/internal/todo"
)

type Handler struct {
	router *todo.Router
	logger zerolog.Logger
}

func NewHandler(router *todo.Router, logger zerolog.Logger) *Handler {
	return &Handler{
		router: router,
		logger: logger.With().Str("component", "lambda").Logger(),
	}
}

// Handle is the lambda.Start entry point. It never returns an error: API Gateway
// would turn one into a bare 502.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := event.Body
	if event.IsBase64Encoded && body != "" {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return h.respond(todo.Response{
				StatusCode: http.StatusBadRequest,
				Body:       todo.MessageBody{Message: "Invalid request body", Error: "body is not valid base64"},
			}), nil
		}
		body = string(decoded)
	}

	resp := h.router.Dispatch(ctx, todo.Request{
		Method:      event.HTTPMethod,
		Resource:    event.Resource,
		PathParams:  event.PathParameters,
		QueryParams: event.QueryStringParameters,
		Body:        body,
	})
	return h.respond(resp), nil
}

func (h *Handler) respond(resp todo.Response) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(resp.Body)
	if err != nil {
		h.logger.Error().Err(err).Int("status", resp.StatusCode).Msg("encode response body")
		raw, _ = json.Marshal(todo.MessageBody{Message: "Internal server error", Error: err.Error()})
		resp.StatusCode = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(raw),
	}
}
