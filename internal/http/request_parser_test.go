package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseListKind(t *testing.T) {
	tests := []struct {
		in   string
		want listKind
		ok   bool
	}{
		{"participants", listParticipants, true},
		{"expenses", listExpenses, true},
		{"donations", listDonations, true},
		{"photos", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := parseListKind(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseListKind(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormValues(t *testing.T) {
	form := NewFormValues(url.Values{
		"name":   {"  김영희\x00 "},
		"fee":    {"50,000원"},
		"bad":    {"-10"},
		"empty":  {""},
		"memo":   {"첫 줄\n둘째 줄"},
		"spaces": {"   "},
	})

	if got := form.Get("name"); got != "김영희" {
		t.Errorf("Get(name) = %q", got)
	}
	if got := form.Get("memo"); got != "첫 줄\n둘째 줄" {
		t.Errorf("newlines should be kept, got %q", got)
	}
	if got := form.Amount("fee"); got != 50000 {
		t.Errorf("Amount(fee) = %d", got)
	}
	if got := form.Amount("bad"); got != 0 {
		t.Errorf("Amount(bad) = %d", got)
	}
	if !form.Has("empty") || form.Has("missing") {
		t.Errorf("Has should distinguish empty from missing")
	}
	if got := form.Get("spaces"); got != "" {
		t.Errorf("Get(spaces) = %q", got)
	}
}

func TestParseMultipartOrFail(t *testing.T) {
	t.Run("urlencoded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/banner", strings.NewReader("group_name=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if resp := ParseMultipartOrFail(httptest.NewRecorder(), req, 1024); resp != nil {
			t.Fatalf("unexpected error response")
		}
		if req.PostForm.Get("group_name") != "x" {
			t.Fatalf("form not parsed")
		}
	})

	t.Run("too large", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, _ := mw.CreateFormFile("photo", "big.png")
		fw.Write(bytes.Repeat([]byte("x"), 4096))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/meetings/1/photos", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp := ParseMultipartOrFail(httptest.NewRecorder(), req, 512)
		if resp == nil {
			t.Fatalf("expected an error response")
		}
		rr := httptest.NewRecorder()
		resp.Write(rr)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status=%d", rr.Code)
		}
	})
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  hello  ", "hello"},
		{"a\x07b", "ab"},
		{"tab\there", "tab\there"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSafeImage(t *testing.T) {
	tests := []struct{ in, want string }{
		{"data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
		{"https://example.com/a.jpg", "https://example.com/a.jpg"},
		{"/static/placeholder.svg", "/static/placeholder.svg"},
		{"//evil.example/a.png", ""},
		{"javascript:alert(1)", ""},
		{"data:text/html,<b>", ""},
	}
	for _, tt := range tests {
		if got := string(safeImage(tt.in)); got != tt.want {
			t.Errorf("safeImage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCookiePrefs(t *testing.T) {
	rr := httptest.NewRecorder()
	prefs := cookiePrefs{r: httptest.NewRequest(http.MethodGet, "/", nil), w: rr}
	if err := prefs.Set("commentAuthor", "김영희"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := prefs.Set("commentAuthor", strings.Repeat("가", 200)); err == nil {
		t.Fatalf("expected an error for an oversized value")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	got, ok := cookiePrefs{r: req, w: httptest.NewRecorder()}.Get("commentAuthor")
	if !ok || got != "김영희" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
}

func TestFlashRoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	setFlash(rr, successNotification("저장됨", "완료"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	n := popFlash(w, req)
	if n == nil || n.Title != "저장됨" || n.Type != NotificationSuccess {
		t.Fatalf("popFlash = %+v", n)
	}
	cleared := w.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("flash cookie should be cleared, got %+v", cleared)
	}

	if popFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)) != nil {
		t.Fatalf("no cookie should yield no flash")
	}
}
