package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// ChallengeRateLimit caps sign-in challenge requests per public key (or IP
// when no pubkey is supplied) using Redis. Without Redis it is a no-op, and
// it fails open on cache errors.
func ChallengeRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}

		var req struct {
			Pubkey string `json:"pubkey"`
		}
		_ = c.BodyParser(&req)
		subject := strings.TrimSpace(req.Pubkey)
		if subject == "" {
			subject = c.IP()
		}

		key := "rl:challenge:" + subject
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many challenge requests, try again later")
		}
		return c.Next()
	}
}
