package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/saori-erp/saori-api/internal/application/dto"
)

// IPRateLimiter limita peticiones por IP (token bucket de x/time/rate). Se usa en el login.
type IPRateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rateLimiterEntry
	rate        rate.Limit
	burst       int
	entryTTL    time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter permite perMinute peticiones por minuto por IP, con ráfaga del mismo tamaño.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &IPRateLimiter{
		limiters:    make(map[string]*rateLimiterEntry),
		rate:        rate.Every(time.Minute / time.Duration(perMinute)),
		burst:       perMinute,
		entryTTL:    10 * time.Minute,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow consume un token de la IP.
func (rl *IPRateLimiter) Allow(ip string) bool {
	return rl.getLimiter(ip).AllowN(rl.now(), 1)
}

func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) > rl.entryTTL {
		rl.cleanup(now)
	}
	if entry, ok := rl.limiters[ip]; ok {
		entry.lastSeen = now
		return entry.limiter
	}
	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[ip] = &rateLimiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// cleanup quita las IPs sin actividad reciente. Requiere rl.mu.
func (rl *IPRateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-rl.entryTTL)
	for ip, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
	rl.lastCleanup = now
}

// Middleware responde 429 cuando la IP agotó su cupo.
func (rl *IPRateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.Allow(c.IP()) {
			c.Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
			c.Set(fiber.HeaderRetryAfter, "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code:    "RATE_LIMITED",
				Message: "demasiados intentos, espere un momento",
			})
		}
		return c.Next()
	}
}
