package middlewares

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/softex1/tably-paket1/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than the idle window are dropped as new visitors arrive.
type IPRateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	limit       rate.Limit
	burst       int
	idle        time.Duration
	lastCleanup time.Time
}

// NewIPRateLimiter allows perMinute requests per IP with an equal burst.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idle:     10 * time.Minute,

		lastCleanup: time.Now(),
	}
}

func (l *IPRateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Since(l.lastCleanup) > l.idle {
		l.cleanupLocked()
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops visitors idle for longer than the idle window.
func (l *IPRateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cleanupLocked()
}

func (l *IPRateLimiter) cleanupLocked() int {
	l.lastCleanup = time.Now()
	removed := 0
	for ip, v := range l.visitors {
		if time.Since(v.lastSeen) > l.idle {
			delete(l.visitors, ip)
			removed++
		}
	}
	return removed
}

func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := l.get(c.ClientIP())
		r := limiter.Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			retry := time.Duration(math.Ceil(delay.Seconds())) * time.Second
			c.Header("X-RateLimit-Limit", strconv.Itoa(l.burst))
			utils.RespondError(c, utils.RateLimited(retry, "Too many requests, please try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}
