package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"sudonet/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what a rule does when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the write through.
	FailOpen FailPolicy = iota
	// FailClosed rejects the write with 503.
	FailClosed
)

// Rule is a fixed-window limit on one write action.
type Rule struct {
	Action string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// Limits on the board's write endpoints.
var (
	SignupRule     = Rule{Action: "signup", Limit: 5, Window: 10 * time.Minute}
	LoginRule      = Rule{Action: "login", Limit: 10, Window: 5 * time.Minute}
	PostRule       = Rule{Action: "create_post", Limit: 10, Window: time.Minute}
	CommentRule    = Rule{Action: "create_comment", Limit: 20, Window: time.Minute}
	StreetCredRule = Rule{Action: "street_cred", Limit: 30, Window: time.Minute}
	ImageRule      = Rule{Action: "image_upload", Limit: 10, Window: time.Minute}
)

var errNoRedis = errors.New("redis client is nil")

// Quota is the state of one requester's window after a write was counted.
type Quota struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts writes per requester in Redis.
type Limiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewLimiter returns a limiter for the given APP_ENV. Limits are off in
// test and development so local workflows are not throttled.
func NewLimiter(rdb *redis.Client, env string) *Limiter {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "test", "development":
		return &Limiter{rdb: rdb}
	}
	return &Limiter{rdb: rdb, enabled: true}
}

func limitKey(action, requester string) string {
	return fmt.Sprintf("rl:%s:%s", action, requester)
}

// Allow counts one write by requester against rule.
func (l *Limiter) Allow(ctx context.Context, rule Rule, requester string) (Quota, error) {
	if !l.enabled {
		return Quota{Allowed: true, Remaining: rule.Limit}, nil
	}
	if l.rdb == nil {
		return Quota{}, errNoRedis
	}

	key := limitKey(rule.Action, requester)
	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Quota{}, err
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, rule.Window)
	}

	q := Quota{
		Allowed:   cnt <= int64(rule.Limit),
		Remaining: max(rule.Limit-int(cnt), 0),
	}
	if !q.Allowed {
		q.RetryAfter = rule.Window
		if ttl, err := l.rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			q.RetryAfter = ttl
		}
	}
	return q, nil
}

// requesterKey names the caller for counting: the signed-in user when
// known, otherwise the remote address.
func requesterKey(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(string); ok && uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.IP()
}

// Handler enforces rule on a route.
func (l *Limiter) Handler(rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := l.Allow(c.UserContext(), rule, requesterKey(c))
		if err != nil {
			if rule.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limiter unavailable, rejecting write",
					slog.String("action", rule.Action),
					slog.String("error", err.Error()),
				)
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					models.NewUnavailableError("Rate limiter unavailable, try again shortly"))
			}
			return c.Next()
		}

		if !l.enabled {
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
		if !q.Allowed {
			RateLimited.WithLabelValues(rule.Action).Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(q.RetryAfter.Round(time.Second)/time.Second)))
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitedError(rule.Action))
		}
		return c.Next()
	}
}
