package middleware

import (
	"net/http"
	"time"

	chi_middleware "github.com/go-chi/chi/middleware"
	"github.com/nais/publish/pkg/publishd/identity"
	log "github.com/sirupsen/logrus"
)

const (
	logFieldRequestID = "request_id"
	logFieldMethod    = "method"
	logFieldPath      = "path"
	logFieldRemote    = "remote_address"
	logFieldUser      = "user"
)

// RequestLogFields returns the fields that identify a request in the logs.
func RequestLogFields(r *http.Request) log.Fields {
	fields := log.Fields{
		logFieldMethod: r.Method,
		logFieldPath:   r.URL.Path,
		logFieldRemote: r.RemoteAddr,
	}
	if id := chi_middleware.GetReqID(r.Context()); len(id) > 0 {
		fields[logFieldRequestID] = id
	}
	if user := identity.FromContext(r.Context()); user != nil {
		fields[logFieldUser] = user.ID
	}
	return fields
}

// RequestLogger logs every request after it has been served.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chi_middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.WithFields(RequestLogFields(r)).WithFields(log.Fields{
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
			}).Debugf("%s %s", r.Method, r.URL.Path)
		}
		return http.HandlerFunc(fn)
	}
}
