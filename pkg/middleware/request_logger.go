package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type HTTPRequestLogger struct {
	logger       *logrus.Logger
	debug        bool
	minLogStatus int
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(statusCode int) {
	rec.statusCode = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}

// NewHTTPRequestLogger logs every request when debug is enabled, otherwise only
// requests whose response status is at or above minLogStatus.
func NewHTTPRequestLogger(logger *logrus.Logger, debug bool, minLogStatus int) *HTTPRequestLogger {
	return &HTTPRequestLogger{
		logger:       logger,
		debug:        debug,
		minLogStatus: minLogStatus,
	}
}

func (l *HTTPRequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		if !l.debug && rec.statusCode < l.minLogStatus {
			return
		}

		l.logger.WithContext(r.Context()).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.statusCode,
			"duration": time.Since(start).String(),
		}).Info()
	})
}
