package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"moim/internal/backend"
	"moim/internal/ledger"
	applog "moim/internal/log"
	"moim/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and, when the store supports it, the database.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if p, ok := s.store.(backend.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "ok"
	}

	checks["edit_sessions"] = s.sessions.ItemCount()
	checks["home_cache_entries"] = s.homeCache.Size()
	checks["rate_limit_clients"] = s.limiter.ActiveClients()
	checks["suspicious_requests"] = s.detector.SuspiciousRequests()
	checks["requests_total"] = s.tracer.TotalRequests()

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps a service or storage error to a response: validation refusals
// become 422 with the refusal toast, missing entities 404, the rest 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, component, op string) {
	ctx := r.Context()

	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		s.logger.InfoContext(ctx, "Request refused",
			applog.FieldOperation, op,
			applog.FieldError, err,
			"error_type", applog.ErrorTypeValidation)
		UnprocessableEntityError(ve.Title, ve.Message).Write(w)

	case errors.Is(err, ledger.ErrMeetingNotFound):
		NotFoundError("모임을 찾을 수 없습니다.").Write(w)

	case errors.Is(err, ledger.ErrPhotoNotFound):
		NotFoundError("사진을 찾을 수 없습니다.").Write(w)

	case errors.Is(err, services.ErrEntryNotFound):
		NotFoundError("항목을 찾을 수 없습니다.").Write(w)

	default:
		s.events.LogError(ctx, "Request failed", err, component, op, nil)
		InternalServerError().Write(w)
	}
}
