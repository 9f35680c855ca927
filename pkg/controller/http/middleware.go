package http

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

// requestLogger binds a logger carrying the chi request ID to the request
// context, so every log line of one request can be correlated
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = logging.With(ctx, logging.From(ctx).With("http_request_id", reqID))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
