// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing HTMX responses.
// It provides a type-safe, fluent API for building HX-Trigger headers and
// consistent response formatting.

package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notification is the payload of the show-notification event: a toast with
// a bold title and a one-line description.
type Notification struct {
	Type     NotificationType `json:"type"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

func successNotification(title, message string) Notification {
	return Notification{Type: NotificationSuccess, Title: title, Message: message, Duration: 3000}
}

func errorNotification(title, message string) Notification {
	return Notification{Type: NotificationError, Title: title, Message: message, Duration: 5000}
}

func (b *HTMXResponseBuilder) TriggerNotification(n Notification) *HTMXResponseBuilder {
	return b.Trigger("show-notification", n)
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(title, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(successNotification(title, message))
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(title, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(errorNotification(title, message))
}

// SharePayload asks the page to open the native share sheet. When sharing
// is unavailable the page copies URL to the clipboard and shows Fallback.
type SharePayload struct {
	Title    string       `json:"title"`
	Text     string       `json:"text"`
	URL      string       `json:"url"`
	Fallback Notification `json:"fallback"`
}

func (b *HTMXResponseBuilder) TriggerShare(p SharePayload) *HTMXResponseBuilder {
	return b.Trigger("share:request", p)
}

// Redirect makes htmx perform a full navigation to url.
func (b *HTMXResponseBuilder) Redirect(url string) *HTMXResponseBuilder {
	return b.Header("HX-Redirect", url)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html []byte) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = html
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		if triggerJSON, err := marshalASCII(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// marshalASCII encodes v as JSON with every non-ASCII rune escaped as \uXXXX.
// Header values are read as Latin-1 by browsers, so raw UTF-8 would arrive
// garbled.
func marshalASCII(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range string(raw) {
		switch {
		case r < utf8.RuneSelf:
			sb.WriteRune(r)
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&sb, "\\u%04x\\u%04x", hi, lo)
		default:
			fmt.Fprintf(&sb, "\\u%04x", r)
		}
	}
	return []byte(sb.String()), nil
}

// ErrorResponse creates an error response carrying both an inline message
// for non-htmx clients and an error toast.
func ErrorResponse(statusCode int, title, message string) *HTMXResponseBuilder {
	escaped := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		TriggerErrorNotification(title, message).
		BodyHTML([]byte(`<div class="error">` + escaped + `</div>`))
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "잘못된 요청", message)
}

// UnprocessableEntityError is the refusal of incomplete input.
func UnprocessableEntityError(title, message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, title, message)
}

func InternalServerError() *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "오류", "요청을 처리하지 못했습니다. 잠시 후 다시 시도해주세요.")
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "찾을 수 없음", message)
}
