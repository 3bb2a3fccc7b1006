package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"faktura/internal/core"
	"faktura/internal/log"
	"faktura/internal/storage"
)

const readyTimeout = 5 * time.Second

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks that storage answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]string{"storage": "ok"}
	if s.storage == nil {
		checks["storage"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else if err := s.storage.Ping(ctx); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentStorage).WarnContext(ctx, "Readiness check failed",
			log.NewFields().WithError(err, log.ErrorTypeDatabase).ToSlice()...)
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics reports request, rate-limit and security counters as plain
// text, one "name value" pair per line.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.traceMiddleware.GetMetrics()
	rateMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	var b strings.Builder
	fmt.Fprintf(&b, "faktura_uptime_seconds %d\n", int64(time.Since(s.startedAt).Seconds()))
	fmt.Fprintf(&b, "faktura_http_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(&b, "faktura_http_server_errors_total %d\n", traceMetrics.ServerErrors)
	fmt.Fprintf(&b, "faktura_http_last_response_microseconds %d\n", traceMetrics.LastResponseTime)
	fmt.Fprintf(&b, "faktura_rate_limit_hits_total %d\n", rateMetrics.TotalHits)
	fmt.Fprintf(&b, "faktura_rate_limit_clients %d\n", rateMetrics.ClientCount)
	fmt.Fprintf(&b, "faktura_security_suspicious_requests_total %d\n", securityMetrics.SuspiciousRequests)
	fmt.Fprintf(&b, "faktura_security_blocked_requests_total %d\n", securityMetrics.BlockedRequests)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// errorType categorizes err for logging.
func errorType(err error) string {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr), core.IsValidationError(err):
		return log.ErrorTypeValidation
	case errors.Is(err, storage.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrRecipientInUse):
		return log.ErrorTypeConflict
	default:
		return log.ErrorTypeInternal
	}
}

// writeError maps err to a status code and renders it. Unexpected errors are
// logged and hidden behind a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errType := errorType(err)
	fields := log.NewFields().
		WithHTTPRequest(r.Method, r.URL.Path).
		WithError(err, errType)
	logger := log.FromContext(r.Context())
	if errType == log.ErrorTypeInternal {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		InternalServerError("internal error").Write(w)
		return
	}
	logger.DebugContext(r.Context(), "Request rejected", fields.ToSlice()...)

	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		if reqErr.status == http.StatusUnprocessableEntity {
			UnprocessableEntityError(reqErr.message, reqErr.details).Write(w)
			return
		}
		ErrorResponse(reqErr.status, reqErr.message).Write(w)
	case errType == log.ErrorTypeNotFound:
		NotFoundError(err.Error()).Write(w)
	case errType == log.ErrorTypeConflict:
		ConflictError(err.Error()).Write(w)
	default:
		UnprocessableEntityError(err.Error(), nil).Write(w)
	}
}
