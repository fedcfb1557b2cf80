package server

import (
	"bytes"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type responseWriter struct {
	http.ResponseWriter
	body   *bytes.Buffer
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status >= http.StatusBadRequest {
		rw.body.Write(b)
	}
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// accessLog writes one line per request to logger, with the body of error responses.
func accessLog(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
				body:           &bytes.Buffer{},
			}

			next.ServeHTTP(rw, r)

			if rw.status >= http.StatusBadRequest {
				logger.Printf("[%s] %s %s - %d %dB in %s body=%s",
					middleware.GetReqID(r.Context()), r.Method, r.RequestURI, rw.status, rw.size, time.Since(start), bytes.TrimSpace(rw.body.Bytes()))
				return
			}
			logger.Printf("[%s] %s %s - %d %dB in %s",
				middleware.GetReqID(r.Context()), r.Method, r.RequestURI, rw.status, rw.size, time.Since(start))
		})
	}
}
