// Package requestmeta provides middleware that stamps each request with an ID
// and a request-scoped time. All operations within a single request observe
// the same "now", which keeps audit records and domain timestamps consistent.
package requestmeta

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"registrar/pkg/requestcontext"
)

// HeaderRequestID is honored when the caller (usually a gateway) already
// assigned a request ID; otherwise one is generated.
const HeaderRequestID = "X-Request-Id"

// RequestID attaches a request ID to the context and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), reqID)))
	})
}

// RequestTime freezes "now" for the duration of the request.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), time.Now())))
	})
}
