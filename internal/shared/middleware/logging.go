package middleware

import (
	"context"
	"log"
	"net/http"
	"time"
)

// responseWriter records the status and body size written by a handler.
type responseWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) Status() int {
	return rw.status
}

// statusOrOK reports 200 for handlers that never wrote anything.
func (rw *responseWriter) statusOrOK() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}

	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// requestInfo carries what inner handlers learn about a request back out to
// the access log and the request span. Auth fills in the user.
type requestInfo struct {
	userID string
}

type requestInfoKey struct{}

// withRequestInfo returns r carrying a requestInfo, reusing one an outer
// middleware already attached so the request is only cloned once.
func withRequestInfo(r *http.Request) (*http.Request, *requestInfo) {
	if info, ok := r.Context().Value(requestInfoKey{}).(*requestInfo); ok {
		return r, info
	}
	info := &requestInfo{}
	return r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)), info
}

func recordUser(ctx context.Context, userID string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.userID = userID
	}
}

// Logging writes one access log line per request:
// method, path, status, bytes, duration and the authenticated user.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		r, info := withRequestInfo(r)
		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		userID := info.userID
		if userID == "" {
			userID = "-"
		}

		log.Printf(
			"%s %s %d %dB %s user=%s",
			r.Method,
			r.URL.Path,
			wrapped.statusOrOK(),
			wrapped.size,
			time.Since(start),
			userID,
		)
	})
}
