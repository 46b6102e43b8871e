// Package http provides HTTP server and handler implementations.
//
// This file implements a small builder for HTMX responses: HX-Trigger
// headers plus consistently formatted HTML fragments.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// ResponseBuilder accumulates HX-Trigger events, headers and a body.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerOverviewRefresh tells the dashboard to re-fetch itself.
func (b *ResponseBuilder) TriggerOverviewRefresh() *ResponseBuilder {
	return b.Trigger("overview:refresh", struct{}{})
}

// TriggerFormReset clears the active form after a successful submit.
func (b *ResponseBuilder) TriggerFormReset() *ResponseBuilder {
	return b.Trigger("form:reset", struct{}{})
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *ResponseBuilder) BodyHTML(html string) *ResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// SuccessResponse renders a success fragment. The message is HTML-escaped.
func SuccessResponse(message string) *ResponseBuilder {
	return NewResponse().
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(message) + `</div>`)
}

// ErrorResponse renders an error fragment. The message is HTML-escaped.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func ConflictError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

func MethodNotAllowedError(allowedMethods string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}

// RequirePOST returns an error response when the method is not POST.
func RequirePOST(r *http.Request) *ResponseBuilder {
	if r.Method == http.MethodPost {
		return nil
	}
	return MethodNotAllowedError(http.MethodPost)
}
