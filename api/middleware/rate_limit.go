package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/inkwell-tcg/inkwell-backend/api/responses"
	"github.com/inkwell-tcg/inkwell-backend/pkg/config"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
)

type requestLimiter interface {
	Allow(ctx context.Context, scope, key string, limit int, window time.Duration) (bool, error)
}

// WebhookRateLimit throttles webhook deliveries per source IP. A throttled
// delivery gets a 429, which the gateway treats as retriable.
func WebhookRateLimit(limiter requestLimiter, cfg config.RateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			allowed, err := limiter.Allow(r.Context(), "webhook:ip", ClientIP(r), cfg.WebhookIPLimit, cfg.WebhookWindow)
			if err != nil {
				// counter trouble must not drop gateway notifications
				if logg != nil {
					logg.Error(r.Context(), "webhook rate limit check", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many webhook deliveries"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the originating address, preferring the first
// X-Forwarded-For hop set by the load balancer.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
