package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// luaWindow increments the counter and arms its expiry on the first hit, in one round trip.
var luaWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n`)

// RateLimiter is a fixed-window counter per key, used by the API to cap job submissions.
type RateLimiter struct {
	cli *redis.Client
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{cli: client.cli}
}

// Allow reports whether one more request fits into the current window of key.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := luaWindow.Run(ctx, r.cli, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return n <= int64(limit), nil
}

// SubmitKey scopes the limit to one API subject and route.
func SubmitKey(subject, route string) string {
	return fmt.Sprintf("rate_limit:%s:%s", subject, route)
}
