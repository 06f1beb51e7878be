package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
)

// UserIDHeader carries the caller identity set by the fronting proxy
const UserIDHeader = "X-User-ID"

const anonymousUser = "anonymous"

type ctxUserIDKey struct{}

// userMiddleware trusts the proxy supplied user id and attaches a request
// scoped logger to the context.
func userMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			userID = anonymousUser
		}

		ctx := context.WithValue(r.Context(), ctxUserIDKey{}, userID)
		logger := logging.From(ctx).With(
			"request_id", middleware.GetReqID(ctx),
			"user_id", userID,
		)
		ctx = logging.With(ctx, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxUserIDKey{}).(string); ok && v != "" {
		return v
	}
	return anonymousUser
}
