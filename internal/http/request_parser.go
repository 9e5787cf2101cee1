// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"errors"
	"net/http"
	"net/url"

	"moim/internal/core"
)

// listKind names one of the editable lists of the meeting form.
type listKind string

const (
	listParticipants listKind = "participants"
	listExpenses     listKind = "expenses"
	listDonations    listKind = "donations"
)

func parseListKind(s string) (listKind, bool) {
	switch k := listKind(s); k {
	case listParticipants, listExpenses, listDonations:
		return k, true
	default:
		return "", false
	}
}

// FormValues wraps a parsed form with sanitizing accessors.
type FormValues struct {
	values url.Values
}

func NewFormValues(values url.Values) FormValues {
	return FormValues{values: values}
}

// Has reports whether the field was submitted at all, even empty.
func (f FormValues) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Get returns the trimmed, sanitized value of key.
func (f FormValues) Get(key string) string {
	return sanitizeInput(f.values.Get(key))
}

// Amount parses an amount field; malformed input becomes 0.
func (f FormValues) Amount(key string) int64 {
	return core.ParseAmount(f.values.Get(key))
}

// ParseFormOrFail parses the request form and returns an error response on
// failure, or nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("요청 형식이 올바르지 않습니다.")
	}
	return nil
}

// ParseMultipartOrFail parses a form of at most maxBytes. Plain urlencoded
// bodies are accepted too, for forms submitted without a file.
func ParseMultipartOrFail(w http.ResponseWriter, r *http.Request, maxBytes int64) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	err := r.ParseMultipartForm(maxBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return UnprocessableEntityError("업로드 실패", "5MB 이하의 이미지만 업로드할 수 있습니다.")
		}
		return BadRequestError("요청 형식이 올바르지 않습니다.")
	}
	return nil
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
