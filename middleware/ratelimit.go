package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one token bucket per client IP. Buckets idle for longer
// than a full refill are dropped, since a fresh bucket behaves the same.
type limiterStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     time.Duration
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

func newLimiterStore(every time.Duration, burst int) *limiterStore {
	return &limiterStore{
		visitors: make(map[string]*visitor),
		every:    every,
		burst:    burst,
		idle:     every * time.Duration(burst),
	}
}

func (s *limiterStore) allow(ip string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.idle {
		for key, v := range s.visitors {
			if now.Sub(v.lastSeen) >= s.idle {
				delete(s.visitors, key)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(s.every), s.burst)}
		s.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit allows perMinute requests per client IP, bursting up to the same
// amount. A non-positive perMinute disables the limiter.
func RateLimit(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	store := newLimiterStore(time.Minute/time.Duration(perMinute), perMinute)

	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if !store.allow(ip, time.Now()) {
			log.Warn().Str("ip", ip).Str("path", c.Path()).Msg("rate limit exceeded")
			return c.Status(fiber.StatusTooManyRequests).JSON(utils.ErrorResponse{
				Message: "Too many requests, try again later",
				Error:   "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
