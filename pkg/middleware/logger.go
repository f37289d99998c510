package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type HTTPRequestLogger struct {
	logger          *logrus.Logger
	debug           bool
	thresholdStatus int
}

func NewHTTPRequestLogger(logger *logrus.Logger, debug bool, thresholdStatus int) *HTTPRequestLogger {
	return &HTTPRequestLogger{
		logger:          logger,
		debug:           debug,
		thresholdStatus: thresholdStatus,
	}
}

type recorder struct {
	http.ResponseWriter
	status int
	body   *bytes.Buffer
}

func (rec *recorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	if rec.body != nil {
		rec.body.Write(b)
	}
	return rec.ResponseWriter.Write(b)
}

func (l *HTTPRequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		if l.debug {
			rec.body = &bytes.Buffer{}
		}

		next.ServeHTTP(rec, r)

		entry := l.logger.WithContext(r.Context()).WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  rec.status,
			"latency": time.Since(start).String(),
		})

		if rec.status >= l.thresholdStatus {
			if rec.body != nil {
				entry = entry.WithField("response", rec.body.String())
			}
			entry.Error("http request")
			return
		}

		entry.Info("http request")
	})
}
