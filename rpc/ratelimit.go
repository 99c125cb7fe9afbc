package rpc

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit bounds requests per client address.
type RateLimit struct {
	RequestsPerMinute float64
	Burst             int
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address. Idle buckets are
// dropped lazily once they have been unused for idleTTL.
type RateLimiter struct {
	limit    RateLimit
	mu       sync.Mutex
	visitors map[string]*rateEntry
	clockNow func() time.Time
	idleTTL  time.Duration
}

func NewRateLimiter(limit RateLimit) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		visitors: make(map[string]*rateEntry),
		clockNow: time.Now,
		idleTTL:  5 * time.Minute,
	}
}

// Middleware rejects requests over the limit with 429. A zero limit disables
// throttling.
func (r *RateLimiter) Middleware(onThrottle func(reason string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r.limit.RequestsPerMinute <= 0 {
				next.ServeHTTP(w, req)
				return
			}
			if !r.Allow(clientID(req)) {
				if onThrottle != nil {
					onThrottle("client_rate")
				}
				w.Header().Set("Content-Type", "application/json")
				writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// Allow reports whether id may issue one more request now.
func (r *RateLimiter) Allow(id string) bool {
	now := r.clockNow()
	return r.obtainLimiter(id, now).AllowN(now, 1)
}

func (r *RateLimiter) obtainLimiter(id string, now time.Time) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, entry := range r.visitors {
		if now.Sub(entry.lastSeen) > r.idleTTL {
			delete(r.visitors, key)
		}
	}
	entry, ok := r.visitors[id]
	if ok {
		entry.lastSeen = now
		return entry.limiter
	}
	perSecond := r.limit.RequestsPerMinute / 60.0
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := r.limit.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	r.visitors[id] = &rateEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func clientID(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if parsed := net.ParseIP(strings.TrimSpace(first)); parsed != nil {
			return parsed.String()
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
