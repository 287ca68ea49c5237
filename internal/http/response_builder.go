// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and the mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"budgetbolt/internal/auth"
	"budgetbolt/internal/core"
	"budgetbolt/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	data, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Response encoding failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(data, '\n'))
}

// ErrorBody is the error payload of every failed request.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// ErrorResponse creates an error response with a {"detail": ...} body.
func ErrorResponse(statusCode int, detail string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Detail: detail})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, detail)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, detail)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, detail)
}

// UnauthorizedError creates a 401 response asking for a bearer token.
func UnauthorizedError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, detail).Header("WWW-Authenticate", `Bearer realm="budgetbolt"`)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// errorStatus maps an error to its status code and client-facing detail.
// Unknown errors become 500 and their text is not exposed.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidMonth):
		return http.StatusBadRequest, "Invalid month"
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrInvalidDate):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrMissingOwner),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrDescriptionLimit):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, services.ErrExportUnavailable):
		return http.StatusServiceUnavailable, services.ErrExportUnavailable.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", status,
			"error", err)
	}
	resp := ErrorResponse(status, detail)
	if status == http.StatusUnauthorized {
		resp = UnauthorizedError(detail)
	}
	resp.Write(w)
}
