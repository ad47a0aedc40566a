package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/cinegate/cinegate/dispatch"
	"github.com/cinegate/cinegate/log"
)

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.written {
		r.status = status
		r.written = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(b)
}

func logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": rec.status,
			"took":   time.Since(start).Round(time.Millisecond),
		}).Debug("request")
	})
}

// recoverer answers 500 instead of letting a panic kill the connection.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log.WithFields(log.Fields{
					"path":  r.URL.Path,
					"stack": string(debug.Stack()),
				}).Errorf("panic: %v", v)
				respondJSON(w, http.StatusInternalServerError, dispatch.Result{Error: fmt.Sprintf("internal error: %v", v)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
