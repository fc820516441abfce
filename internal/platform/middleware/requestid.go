package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"residora/pkg/requestcontext"
)

// RequestID assigns a correlation ID to every request (honoring an inbound
// X-Request-ID from a trusted proxy) and pins the request-scoped clock so a
// whole request observes one consistent time.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
