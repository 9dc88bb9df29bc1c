package relay

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether key may make another request. retry is how long
// until the caller's window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retry time.Duration, err error)
}

// RedisLimiter is a fixed-window counter shared by every relay instance
// pointing at the same Redis.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisLimiter allows perMinute requests per key per minute.
func NewRedisLimiter(rdb *redis.Client, perMinute int) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		limit:  int64(perMinute),
		window: time.Minute,
		prefix: "fretes:rl",
		now:    time.Now,
	}
}

func (l *RedisLimiter) windowKey(key string, now time.Time) (string, time.Duration) {
	start := now.Truncate(l.window)
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, start.Unix()), start.Add(l.window).Sub(now)
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k, retry := l.windowKey(key, l.now())

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, err
	}
	if incr.Val() > l.limit {
		return false, retry, nil
	}
	return true, 0, nil
}

// NewRedisClient connects to addr and pings it. It returns nil when Redis is
// unreachable so the relay can run without a limiter.
func NewRedisClient(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil
	}
	return client
}

// rateLimit rejects POSTs over the limit with 429. Limiter errors let the
// request through.
func rateLimit(l Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l == nil || c.Request().Method != http.MethodPost {
				return next(c)
			}
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			ok, retry, err := l.Allow(c.Request().Context(), ip)
			if err != nil {
				c.Logger().Warnf("ratelimit: %v", err)
				return next(c)
			}
			if !ok {
				secs := int(math.Ceil(retry.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return writeError(c, http.StatusTooManyRequests, "Too many requests")
			}
			return next(c)
		}
	}
}
