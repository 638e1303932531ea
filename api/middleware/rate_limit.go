package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pawpal-io/pawpal-backend/api/responses"
	pkgerrors "github.com/pawpal-io/pawpal-backend/pkg/errors"
	"github.com/pawpal-io/pawpal-backend/pkg/logger"
)

const (
	defaultRateLimitWindow = time.Minute
	defaultRateLimitMax    = 120
)

type rateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit throttles each authenticated user with a fixed window counter.
func RateLimit(store rateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := UserIDFromContext(ctx)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			scope := fmt.Sprintf("user:%s", userID)
			allowed, count, err := store.FixedWindowAllow(ctx, scope, defaultRateLimitMax, defaultRateLimitWindow)
			if err != nil {
				// an unreachable limiter should not take the API down
				logg.Error(ctx, "rate limit check failed", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				logCtx := logg.WithField(ctx, "request_count", count)
				logg.Warn(logCtx, "user over request budget")
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
