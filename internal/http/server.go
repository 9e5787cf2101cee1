package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"moim/internal/backend"
	"moim/internal/cache"
	applog "moim/internal/log"
	"moim/internal/metrics"
	"moim/internal/middleware/ratelimit"
	"moim/internal/middleware/security"
	"moim/internal/middleware/trace"
	"moim/internal/services"
	appweb "moim/web"
)

const (
	defaultSessionTTL = 30 * time.Minute
	homeCacheTTL      = 30 * time.Second
)

// Dependencies are the collaborators of the web server. Store and Meetings
// are required; the rest have defaults.
type Dependencies struct {
	Store      backend.Store
	Meetings   *services.MeetingService
	Photos     *services.PhotoService
	Metrics    *metrics.Metrics
	Logger     *applog.Logger
	SessionTTL time.Duration
	RateLimit  ratelimit.Config
	Now        func() time.Time
}

// Server is the moim web application.
type Server struct {
	http.Server

	store    backend.Store
	meetings *services.MeetingService
	photos   *services.PhotoService

	// Edit sessions by opaque session id, expiring after SessionTTL idle.
	sessions     *gocache.Cache
	sessionTTL   time.Duration
	homeCache    *cache.LRUCache[[]meetingCard]
	cacheManager *cache.Manager

	templates *template.Template
	logger    *applog.Logger
	events    *applog.StructuredLogger
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware

	now     func() time.Time
	started time.Time
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = defaultSessionTTL
	}
	if deps.Photos == nil {
		deps.Photos = services.NewPhotoService(deps.Store)
	}
	logger := deps.Logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		store:        deps.Store,
		meetings:     deps.Meetings,
		photos:       deps.Photos,
		sessions:     gocache.New(deps.SessionTTL, deps.SessionTTL/2),
		sessionTTL:   deps.SessionTTL,
		homeCache:    cache.NewLRUCache[[]meetingCard](4, homeCacheTTL),
		cacheManager: cache.NewManager(),
		logger:       logger,
		events:       applog.NewStructuredLogger(logger),
		metrics:      deps.Metrics,
		limiter:      ratelimit.NewLimiter(deps.RateLimit),
		detector:     security.NewDetector(),
		now:          deps.Now,
		started:      deps.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP, traceObserver(deps.Metrics))
	s.cacheManager.Register(s.homeCache)
	s.cacheManager.StartCleanup(time.Minute)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", "error", err,
			applog.FieldComponent, applog.ComponentTemplate,
			"error_type", applog.ErrorTypeConfiguration)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /banner", s.handleBanner)

	mux.HandleFunc("GET /meetings/{id}", s.handleMeeting)
	mux.HandleFunc("POST /meetings/{id}/comments", s.handleAddComment)
	mux.HandleFunc("POST /meetings/{id}/photos", s.handleUploadPhotos)
	mux.HandleFunc("POST /meetings/{id}/photos/{photoID}/thumbnail", s.handleSetThumbnail)
	mux.HandleFunc("GET /meetings/{id}/share", s.handleShare)

	mux.HandleFunc("GET /edit/{id}", s.handleEditOpen)
	mux.HandleFunc("POST /edit/sessions/{sid}/meta", s.handleEditMeta)
	mux.HandleFunc("POST /edit/sessions/{sid}/save", s.handleEditSave)
	mux.HandleFunc("POST /edit/sessions/{sid}/cancel", s.handleEditCancel)
	mux.HandleFunc("POST /edit/sessions/{sid}/{list}", s.handleEditAddRow)
	mux.HandleFunc("POST /edit/sessions/{sid}/{list}/{rowID}", s.handleEditUpdateRow)
	mux.HandleFunc("DELETE /edit/sessions/{sid}/{list}/{rowID}", s.handleEditRemoveRow)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// traceObserver avoids handing a typed nil *metrics.Metrics to the tracer.
func traceObserver(m *metrics.Metrics) trace.Observer {
	if m == nil {
		return nil
	}
	return m
}

// Shutdown stops accepting requests and releases background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)
	s.limiter.Stop()
	s.cacheManager.Stop()
	return err
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "잠시 후 다시 시도해주세요", "요청이 너무 많습니다.").Write(w)
}

// render executes the named templates into one buffer so a template error
// can still produce a clean 500.
func (s *Server) render(ctx context.Context, parts ...templatePart) ([]byte, bool) {
	if s.templates == nil {
		s.logger.ErrorContext(ctx, "Templates not loaded",
			applog.FieldComponent, applog.ComponentTemplate,
			"error_type", applog.ErrorTypeConfiguration)
		return nil, false
	}
	var buf bytes.Buffer
	for _, p := range parts {
		if err := s.templates.ExecuteTemplate(&buf, p.name, p.data); err != nil {
			s.logger.ErrorContext(ctx, "Template execution failed",
				"template", p.name,
				applog.FieldError, err,
				applog.FieldOperation, applog.OpRender)
			return nil, false
		}
	}
	return buf.Bytes(), true
}

type templatePart struct {
	name string
	data any
}

func part(name string, data any) templatePart {
	return templatePart{name: name, data: data}
}

// writePage renders a full page, answering 500 on template errors.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, name string, data any) {
	body, ok := s.render(r.Context(), part(name, data))
	if !ok {
		InternalServerError().Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// invalidateHome drops cached home lists after any write.
func (s *Server) invalidateHome() {
	s.homeCache.Clear()
}
