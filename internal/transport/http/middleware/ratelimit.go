package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"spokesbot/internal/transport/http/response"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-client-IP token bucket. Entries for idle
// clients are evicted after staleAfter to keep the map bounded.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*clientLimiter
	limit      rate.Limit
	burst      int
	staleAfter time.Duration
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		clients:    make(map[string]*clientLimiter),
		limit:      rate.Limit(float64(perMinute) / 60.0),
		burst:      burst,
		staleAfter: 5 * time.Minute,
	}
}

func (r *RateLimiter) allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cl, ok := r.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[ip] = cl
		if len(r.clients)%64 == 0 {
			r.evictStale(now)
		}
	}
	cl.lastSeen = now
	return cl.limiter.Allow()
}

func (r *RateLimiter) evictStale(now time.Time) {
	for ip, cl := range r.clients {
		if now.Sub(cl.lastSeen) > r.staleAfter {
			delete(r.clients, ip)
		}
	}
}

func (r *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.allow(c.ClientIP()) {
			response.Error(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
