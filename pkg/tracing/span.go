// Package tracing provides lightweight per-request spans whose identity and
// attributes are carried in the request context and attached to log records.
package tracing

import (
	"context"
	mathrand "math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/okian/hearth/pkg/logger"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// Headers whose values never end up in span attributes.
var redactedHeaders = map[string]struct{}{
	"Authorization":       {},
	"Proxy-Authorization": {},
	"Cookie":              {},
	"Set-Cookie":          {},
}

const redacted = "[redacted]"

// NewTraceID returns a lexically sortable ULID.
func NewTraceID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Span describes one request as it flows through the server.
type Span struct {
	TraceID string
	Method  string
	Path    string
	Headers map[string]string
	Start   time.Time

	mu     sync.Mutex
	route  string
	status int
	err    error
	end    time.Time
}

type spanKey struct{}

// Start opens a span for r. Header values are captured only when includeHeaders is set.
func Start(ctx context.Context, r *http.Request, includeHeaders bool) (context.Context, *Span) {
	s := &Span{
		TraceID: NewTraceID(),
		Method:  r.Method,
		Path:    r.URL.Path,
		Start:   time.Now(),
	}
	if includeHeaders {
		s.Headers = captureHeaders(r.Header)
	}
	ctx = context.WithValue(ctx, spanKey{}, s)
	ctx = logger.WithFields(ctx, logger.String("trace_id", s.TraceID))
	return ctx, s
}

// FromContext returns the span stored in ctx, or nil.
func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// SetRoute records the matched route pattern.
func (s *Span) SetRoute(route string) {
	s.mu.Lock()
	s.route = route
	s.mu.Unlock()
}

// SetStatus records the response status code.
func (s *Span) SetStatus(code int) {
	s.mu.Lock()
	s.status = code
	s.mu.Unlock()
}

// RecordError attaches the cause of a failed request. The first error wins.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// Err returns the recorded error, if any.
func (s *Span) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// End closes the span and returns its latency. Later calls return the same latency.
func (s *Span) End() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.end.IsZero() {
		s.end = time.Now()
	}
	return s.end.Sub(s.Start)
}

// Fields renders the span as structured log fields.
func (s *Span) Fields() []logger.Field {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := []logger.Field{
		logger.String("method", s.Method),
		logger.String("path", s.Path),
	}
	if s.route != "" {
		fields = append(fields, logger.String("route", s.route))
	}
	if s.status != 0 {
		fields = append(fields, logger.Int("status", s.status))
	}
	if !s.end.IsZero() {
		fields = append(fields, logger.Duration("latency", s.end.Sub(s.Start)))
	}
	if len(s.Headers) > 0 {
		fields = append(fields, logger.Any("headers", s.Headers))
	}
	if s.err != nil {
		fields = append(fields, logger.Error(s.err))
	}
	return fields
}

func captureHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		key := http.CanonicalHeaderKey(name)
		if _, ok := redactedHeaders[key]; ok {
			out[key] = redacted
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}
