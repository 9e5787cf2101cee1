package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"moim/internal/core"
	"moim/internal/ledger/memory"
	applog "moim/internal/log"
	"moim/internal/metrics"
	"moim/internal/services"
)

var testNow = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New(memory.DemoMeetings())
	srv := NewServer(":0", Dependencies{
		Store:    store,
		Meetings: services.NewMeetingService(store, nil),
		Metrics:  metrics.New(),
		Logger:   applog.New(applog.Config{Level: slog.LevelError, Format: "text", Output: io.Discard}),
		Now:      func() time.Time { return testNow },
	})
	t.Cleanup(func() {
		srv.limiter.Stop()
		srv.cacheManager.Stop()
	})
	if srv.templates == nil {
		t.Fatal("templates failed to parse")
	}
	return srv, store
}

func do(srv *Server, method, target string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

// triggerOf decodes one event of the HX-Trigger header.
func triggerOf(t *testing.T, rr *httptest.ResponseRecorder, event string, v any) {
	t.Helper()
	raw := rr.Header().Get("HX-Trigger")
	if raw == "" {
		t.Fatalf("missing HX-Trigger header")
	}
	var events map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		t.Fatalf("decode HX-Trigger %q: %v", raw, err)
	}
	payload, ok := events[event]
	if !ok {
		t.Fatalf("HX-Trigger %q has no %s event", raw, event)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		t.Fatalf("decode %s: %v", event, err)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: invalid json: %v", path, err)
		}
		if body["status"] != "ok" && body["status"] != "ready" {
			t.Fatalf("%s status field = %v", path, body["status"])
		}
	}
}

// There is one home page: the editable banner over a sortable card list,
// each card carrying its balance badge and comment count.
func TestHomeListsMeetingsNewestFirst(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{core.DefaultGroupName, "모임 목록", "+ 새 모임", "잔액 40,000원"} {
		if !strings.Contains(body, want) {
			t.Fatalf("home body missing %q", want)
		}
	}
	march := strings.Index(body, "3월 정기모임")
	feb := strings.Index(body, "2월 송년모임")
	if march < 0 || feb < 0 || march > feb {
		t.Fatalf("expected March before February, got %d and %d", march, feb)
	}
	if got := rr.Header().Get("X-Request-ID"); got == "" {
		t.Fatalf("missing X-Request-ID")
	}
}

func TestHomeSortPartial(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(srv, http.MethodGet, "/?sort=oldest", nil, "HX-Request", "true", "HX-Target", "meeting-list")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<html") {
		t.Fatalf("partial response should not contain the layout")
	}
	if !strings.HasPrefix(strings.TrimSpace(body), `<section id="meeting-list">`) {
		t.Fatalf("unexpected partial: %s", body)
	}
	if strings.Index(body, "2월 송년모임") > strings.Index(body, "3월 정기모임") {
		t.Fatalf("oldest order should list February first")
	}
	if !strings.Contains(body, "/?sort=latest") {
		t.Fatalf("toggle should point back to latest")
	}
	if !strings.Contains(body, "과거순") {
		t.Fatalf("toggle should label the oldest order 과거순")
	}
}

func TestHomeFlashSurvivesSortPartial(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	setFlash(rec, successNotification("모임 저장", "저장되었습니다"))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one flash cookie, got %d", len(cookies))
	}
	cookie := cookies[0].Name + "=" + cookies[0].Value

	rr := do(srv, http.MethodGet, "/?sort=oldest", nil,
		"HX-Request", "true", "HX-Target", "meeting-list", "Cookie", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("partial status=%d", rr.Code)
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == flashCookie {
			t.Fatalf("sort partial should leave the flash cookie alone, got %+v", c)
		}
	}

	rr = do(srv, http.MethodGet, "/", nil, "Cookie", cookie)
	if !strings.Contains(rr.Body.String(), `data-flash-title="모임 저장"`) {
		t.Fatalf("full page should show the pending toast")
	}
	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("full page should clear the flash cookie")
	}
}

func TestHomeCacheInvalidatedAfterComment(t *testing.T) {
	srv, _ := newTestServer(t)

	do(srv, http.MethodGet, "/", nil)
	if srv.homeCache.Size() == 0 {
		t.Fatalf("expected cached card list after home request")
	}
	rr := do(srv, http.MethodPost, "/meetings/1/comments", url.Values{"author": {"a"}, "content": {"b"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("comment status=%d", rr.Code)
	}
	if srv.homeCache.Size() != 0 {
		t.Fatalf("home cache should be cleared after a write")
	}
}

func TestBannerUpdate(t *testing.T) {
	srv, store := newTestServer(t)

	rr := do(srv, http.MethodPost, "/banner", url.Values{"group_name": {"동창회"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `id="banner"`) || !strings.Contains(rr.Body.String(), "동창회") {
		t.Fatalf("banner partial missing: %s", rr.Body.String())
	}
	var n Notification
	triggerOf(t, rr, "show-notification", &n)
	if n.Type != NotificationSuccess || n.Title != "홈 화면이 업데이트되었습니다" {
		t.Fatalf("unexpected toast %+v", n)
	}

	b, _ := store.GetBanner(t.Context())
	if b.GroupName != "동창회" {
		t.Fatalf("group name = %q", b.GroupName)
	}

	// An empty name falls back to the default on render.
	rr = do(srv, http.MethodPost, "/banner", url.Values{"group_name": {""}})
	if !strings.Contains(rr.Body.String(), core.DefaultGroupName) {
		t.Fatalf("expected default group name")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	do(srv, http.MethodGet, "/", nil)

	rr := do(srv, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "moim_http_request_duration_seconds") {
		t.Fatalf("missing request histogram")
	}
	if !strings.Contains(body, `route="/{$}"`) {
		t.Fatalf("expected home route label in metrics")
	}
}

func TestSecurityMiddleware(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(srv, http.MethodGet, "/", nil)
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Fatalf("missing CSP header")
	}

	rr = do(srv, "TRACE", "/", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("TRACE status=%d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/static/app.js", "/static/app.css", "/static/placeholder.svg"} {
		rr := do(srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("Cache-Control") == "" {
			t.Fatalf("%s missing Cache-Control", path)
		}
	}
}
