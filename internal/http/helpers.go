package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

const (
	flashCookie    = "flash"
	prefCookieAge  = 365 * 24 * time.Hour
	flashCookieAge = time.Minute
	maxCookieValue = 512
)

var errCookieTooLong = errors.New("cookie value too long")

// cookiePrefs stores small per-device preferences in long-lived cookies.
// Values are query-escaped since cookie values must be ASCII.
type cookiePrefs struct {
	r *http.Request
	w http.ResponseWriter
}

func (c cookiePrefs) Get(key string) (string, bool) {
	cookie, err := c.r.Cookie(key)
	if err != nil {
		return "", false
	}
	v, err := url.QueryUnescape(cookie.Value)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (c cookiePrefs) Set(key, value string) error {
	encoded := url.QueryEscape(value)
	if len(encoded) > maxCookieValue {
		return fmt.Errorf("%w: %s", errCookieTooLong, key)
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(prefCookieAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// setFlash stores a toast to show on the next full page load, used when a
// response navigates away with HX-Redirect.
func setFlash(w http.ResponseWriter, n Notification) {
	raw, err := json.Marshal(n)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   int(flashCookieAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending toast, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *Notification {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return &n
}

// absoluteURL rebuilds the public URL of path for the share sheet.
func absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: path}
	return u.String()
}
