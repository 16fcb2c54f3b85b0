// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/okian/hearth/pkg/logger"
	"github.com/okian/hearth/pkg/metrics"
	"github.com/okian/hearth/pkg/tracing"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusNotFound        = 404
	statusTooManyRequests = 429
	statusInternalError   = 500
)

// Label used for requests that matched no route.
const unmatchedRoute = "unmatched"

// RequestID propagates an inbound X-Request-ID or assigns a fresh UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := logger.WithFields(r.Context(), logger.String("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Tracing opens a span per request. Server failures are logged at error level
// with their classification; everything else at debug. Span fields carry the latency.
func Tracing(log logger.Logger, includeHeaders bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.Start(r.Context(), r, includeHeaders)
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			span.SetStatus(wrapped.statusCode)
			span.SetRoute(routePattern(r))
			span.End()

			if wrapped.statusCode >= statusInternalError {
				fields := append(span.Fields(),
					logger.String("classification", getErrorType(wrapped.statusCode)),
				)
				log.Error(ctx, "request failed", fields...)
				return
			}
			log.Debug(ctx, "request completed", span.Fields()...)
		})
	}
}

// Metrics records a latency observation and a request counter labelled by
// route pattern, method and status. It wraps every route including /metrics.
func Metrics(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.InFlight(1)
			defer m.InFlight(-1)

			wrapped := wrap(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			endpoint := routePattern(r)
			statusCodeStr := strconv.Itoa(wrapped.statusCode)

			m.RecordHTTPRequest(endpoint, r.Method, statusCodeStr, duration)

			if wrapped.statusCode >= statusBadRequest {
				m.RecordError(endpoint, r.Method, getErrorType(wrapped.statusCode), getErrorSeverity(wrapped.statusCode))
			}
		})
	}
}

// Recovery turns a panicking handler into a 500 so one request can never
// take the server down.
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrap(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					// Deliberate abort; let net/http drop the connection quietly.
					panic(rec)
				}

				err, ok := rec.(error)
				if ok {
					err = fmt.Errorf("%w: %w", ErrPanic, err)
				} else {
					err = fmt.Errorf("%w: %v", ErrPanic, rec)
				}
				if span := tracing.FromContext(r.Context()); span != nil {
					span.RecordError(err)
				}
				log.Error(r.Context(), "handler panic recovered",
					logger.Error(err),
					logger.String("stack", string(debug.Stack())),
				)
				if !wrapped.wroteHeader {
					writeStatus(wrapped, http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// routePattern returns the chi pattern that matched r, e.g. "/assets/*".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// getErrorSeverity returns error severity based on HTTP status code.
func getErrorSeverity(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "high"
	case statusCode >= statusBadRequest:
		return "medium"
	default:
		return "low"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrap(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
