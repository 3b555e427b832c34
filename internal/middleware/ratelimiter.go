package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Joseph14078/JoAuth/internal/models/dto"
	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long a client's bucket is kept after its last request.
var DefaultIdleTTL = 10 * time.Minute

// ClientLimiter keeps one token bucket per client address. Buckets idle for
// longer than the idle TTL are dropped.
type ClientLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
	clients   map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter allows each client perSecond requests with the given burst.
func NewClientLimiter(perSecond float64, burst int) *ClientLimiter {
	idle := DefaultIdleTTL
	// A dropped bucket comes back full, so keep it at least until it would
	// have refilled.
	if perSecond > 0 {
		if refill := time.Duration(float64(burst) / perSecond * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &ClientLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: idle,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Allow reports whether the client may make a request now.
func (c *ClientLimiter) Allow(addr string) bool {
	c.mu.Lock()
	now := c.now()
	if now.Sub(c.lastSweep) >= c.idleTTL {
		c.sweep(now)
	}
	cl, ok := c.clients[addr]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[addr] = cl
	}
	cl.lastSeen = now
	c.mu.Unlock()
	return cl.limiter.AllowN(now, 1)
}

// Len reports how many clients are tracked.
func (c *ClientLimiter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// sweep drops idle clients. c.mu must be held.
func (c *ClientLimiter) sweep(now time.Time) {
	for addr, cl := range c.clients {
		if now.Sub(cl.lastSeen) >= c.idleTTL {
			delete(c.clients, addr)
		}
	}
	c.lastSweep = now
}

// RateLimitMiddleware rejects requests over the client's budget with 429.
// onLimited, if set, is called for each rejected request.
func RateLimitMiddleware(limiter *ClientLimiter, onLimited func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientAddr(r)) {
				if onLimited != nil {
					onLimited()
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				resp := dto.RateLimitResponse{Message: "Too many requests. Please try again later."}
				_ = json.NewEncoder(w).Encode(resp)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
