package middleware

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// PurchaseRateLimiter counts purchase requests per user in fixed redis windows.
type PurchaseRateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewPurchaseRateLimiter(rdb *redis.Client, limit int, window time.Duration) *PurchaseRateLimiter {
	return &PurchaseRateLimiter{redis: rdb, limit: int64(limit), window: window}
}

func rateLimitKey(userID string) string {
	return fmt.Sprintf("ratelimit:purchase:%s", userID)
}

// Handler rejects with 429 once a user exceeds the limit inside one window.
// It lets requests through when redis is unreachable or not configured.
func (r *PurchaseRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r == nil || r.redis == nil || r.limit <= 0 {
			return c.Next()
		}
		user, ok := GetCurrentUser(c)
		if !ok {
			return c.Next()
		}

		ctx := c.UserContext()
		key := rateLimitKey(user.ID)
		count, err := r.redis.Incr(ctx, key).Result()
		if err != nil {
			slog.WarnContext(ctx, "rate limiter unavailable", "error", err)
			return c.Next()
		}
		if count == 1 {
			if err := r.redis.Expire(ctx, key, r.window).Err(); err != nil {
				slog.WarnContext(ctx, "rate limiter expire failed", "key", key, "error", err)
			}
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(r.limit, 10))
		remaining := r.limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > r.limit {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(r.window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error_kind": "RATE_LIMITED",
				"error":      "Too many purchase attempts. Please try again later.",
			})
		}
		return c.Next()
	}
}
