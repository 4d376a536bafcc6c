package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DaanHessen/rollwright/internal/logger"
)

// HeaderRequestID carries the request ID in and out.
const HeaderRequestID = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// requestID accepts a client supplied UUID, otherwise generates one.
func requestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return logger.GenerateRequestID()
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestID(r)
		w.Header().Set(HeaderRequestID, id)
		ctx := logger.WithRequestID(r.Context(), id)
		r = r.WithContext(ctx)

		if strings.HasPrefix(r.URL.Path, "/healthz") || strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		log := logger.FromContext(ctx)
		log.Debug("Request started", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		switch {
		case rw.statusCode >= 500:
			log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", rw.statusCode, "duration_ms", duration.Milliseconds())
		case rw.statusCode >= 400:
			log.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", rw.statusCode, "duration_ms", duration.Milliseconds())
		default:
			log.Info("Request completed", "method", r.Method, "path", r.URL.Path, "status", rw.statusCode, "duration_ms", duration.Milliseconds())
		}
	})
}

func requestSizeLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
