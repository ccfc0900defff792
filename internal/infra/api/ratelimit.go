package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/infra/logging"
	red "ai-video-orchestrator/internal/infra/redis"
)

// Allower is the fixed-window limiter behind RateLimit.
type Allower interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit caps requests per subject and route. Limiter errors let the request through.
func RateLimit(l Allower, route string, limit int, window time.Duration, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := logging.Subject(r.Context())
			if subject == "" {
				subject = r.RemoteAddr
			}
			ok, err := l.Allow(r.Context(), red.SubmitKey(subject, route), limit, window)
			if err != nil {
				log := logging.With(r.Context(), logger)
				log.Warn().Err(err).Str("route", route).Msg("rate limiter unavailable; allowing request")
			} else if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", Kind: "rate_limited"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
