package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"adv-service/pkg/utils"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	lastScan time.Time
	now      func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evictIdle(now)

	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// evictIdle drops clients not seen for idleTTL. Runs at most once per TTL.
func (rl *RateLimiter) evictIdle(now time.Time) {
	if now.Sub(rl.lastScan) < rl.idleTTL {
		return
	}
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.idleTTL {
			delete(rl.clients, ip)
		}
	}
	rl.lastScan = now
}

type peerAddrKey struct{}

// PeerAddr records the connection's remote address before any header-based
// rewrite (chi's RealIP) so the limiter cannot be keyed on client-supplied
// X-Forwarded-For or X-Real-IP values. It must be installed ahead of RealIP.
func PeerAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerAddrKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP returns the host part of the connection address, falling back to
// r.RemoteAddr when PeerAddr is not installed.
func clientIP(r *http.Request) string {
	addr, ok := r.Context().Value(peerAddrKey{}).(string)
	if !ok {
		addr = r.RemoteAddr
	}
	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return ip
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "1")
			utils.RespondWithErrorJSON(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
