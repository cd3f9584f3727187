package todo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Resource templates in API Gateway form.
const (
	ResourceItems       = "/todos"
	ResourceOwner       = "/todos/{ownerKey}"
	ResourceItem        = "/todos/{ownerKey}/{itemId}"
	ResourceTranslation = "/todos/{ownerKey}/{itemId}/translation"
)

const (
	msgCreated         = "Todo item created"
	msgUpdated         = "Todo item updated"
	msgEmptyPatch      = "No valid fields to update"
	msgNotFound        = "Todo item not found"
	msgLanguageMissing = "Target language query parameter is required"
	msgUnsupported     = "Unsupported route or method"
	msgInternal        = "Internal server error"
	msgInvalidBody     = "Invalid request body"
)

// Request is a transport-neutral description of one API call.
type Request struct {
	Method      string
	Resource    string
	PathParams  map[string]string
	QueryParams map[string]string
	Body        string
}

// Response carries the status code and a JSON-serializable body.
type Response struct {
	StatusCode int
	Body       any
}

// MessageBody is the body of every non-success response.
type MessageBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type ItemBody struct {
	Message string `json:"message"`
	Item    Item   `json:"item"`
}

type ListBody struct {
	Items []Item `json:"items"`
}

// Route is one supported (method, resource) pair.
type Route struct {
	Method      string
	Resource    string
	KeyRequired bool
}

var routes = []Route{
	{Method: http.MethodPost, Resource: ResourceItems, KeyRequired: true},
	{Method: http.MethodGet, Resource: ResourceOwner},
	{Method: http.MethodPut, Resource: ResourceItem, KeyRequired: true},
	{Method: http.MethodGet, Resource: ResourceTranslation},
}

// Routes returns the supported routes.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Router maps requests onto Service operations and errors onto status codes.
type Router struct {
	service *Service
	logger  zerolog.Logger
}

func NewRouter(service *Service, logger zerolog.Logger) *Router {
	return &Router{
		service: service,
		logger:  logger.With().Str("component", "todo_router").Logger(),
	}
}

// Dispatch never returns an error; every failure becomes a Response.
func (r *Router) Dispatch(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if recovered := recover(); recovered != nil {
			resp = r.internalError(req, fmt.Errorf("panic: %v", recovered))
		}
	}()

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	switch {
	case method == http.MethodPost && req.Resource == ResourceItems:
		return r.create(ctx, req)
	case method == http.MethodGet && req.Resource == ResourceOwner:
		return r.list(ctx, req)
	case method == http.MethodPut && req.Resource == ResourceItem:
		return r.update(ctx, req)
	case method == http.MethodGet && req.Resource == ResourceTranslation:
		return r.translate(ctx, req)
	default:
		return Unsupported()
	}
}

// Unsupported is the response for any route outside the supported table.
func Unsupported() Response {
	return message(http.StatusBadRequest, msgUnsupported)
}

func (r *Router) create(ctx context.Context, req Request) Response {
	body, err := decodeCreateBody(req.Body)
	if err != nil {
		return r.errorResponse(req, err)
	}
	item, err := r.service.Create(ctx, body.item())
	if err != nil {
		return r.errorResponse(req, err)
	}
	return Response{StatusCode: http.StatusCreated, Body: ItemBody{Message: msgCreated, Item: item}}
}

func (r *Router) list(ctx context.Context, req Request) Response {
	items, err := r.service.List(ctx, req.PathParams["ownerKey"], req.QueryParams["status"])
	if err != nil {
		return r.errorResponse(req, err)
	}
	return Response{StatusCode: http.StatusOK, Body: ListBody{Items: items}}
}

func (r *Router) update(ctx context.Context, req Request) Response {
	body, err := decodeUpdateBody(req.Body)
	if err != nil {
		return r.errorResponse(req, err)
	}
	item, err := r.service.Update(ctx, req.PathParams["ownerKey"], req.PathParams["itemId"], body.patch())
	if err != nil {
		return r.errorResponse(req, err)
	}
	return Response{StatusCode: http.StatusOK, Body: ItemBody{Message: msgUpdated, Item: *item}}
}

func (r *Router) translate(ctx context.Context, req Request) Response {
	result, err := r.service.Translate(ctx, req.PathParams["ownerKey"], req.PathParams["itemId"], req.QueryParams["language"])
	if err != nil {
		return r.errorResponse(req, err)
	}
	return Response{StatusCode: http.StatusOK, Body: result}
}

func (r *Router) errorResponse(req Request, err error) Response {
	var bodyErr *BodyError
	switch {
	case errors.As(err, &bodyErr):
		return Response{
			StatusCode: http.StatusBadRequest,
			Body:       MessageBody{Message: msgInvalidBody, Error: bodyErr.Error()},
		}
	case errors.Is(err, ErrEmptyPatch):
		return message(http.StatusBadRequest, msgEmptyPatch)
	case errors.Is(err, ErrLanguageRequired):
		return message(http.StatusBadRequest, msgLanguageMissing)
	case errors.Is(err, ErrItemNotFound):
		return message(http.StatusNotFound, msgNotFound)
	default:
		return r.internalError(req, err)
	}
}

func (r *Router) internalError(req Request, err error) Response {
	r.logger.Error().
		Err(err).
		Str("method", req.Method).
		Str("resource", req.Resource).
		Msg("request failed")
	return Response{
		StatusCode: http.StatusInternalServerError,
		Body:       MessageBody{Message: msgInternal, Error: err.Error()},
	}
}

func message(status int, text string) Response {
	return Response{StatusCode: status, Body: MessageBody{Message: text}}
}
