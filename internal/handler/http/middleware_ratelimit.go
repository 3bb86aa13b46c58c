package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/moonsync/moonsync-server/internal/logger"
)

// visitorTTL controls how long an idle client keeps its limiter before a
// prune pass drops it.
const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientRateLimiter keeps one token bucket per client address. Credential
// endpoints sit behind it so bcrypt verification cannot be used to burn CPU
// or brute-force a secret.
//
// Idle entries are pruned lazily from allow, at most once per visitorTTL,
// so the limiter owns no goroutine and needs no teardown.
type clientRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	lastPrune time.Time
}

func newClientRateLimiter(rps float64, burst int) *clientRateLimiter {
	return &clientRateLimiter{
		visitors:  make(map[string]*visitor),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastPrune: time.Now(),
	}
}

func (rl *clientRateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastPrune) > visitorTTL {
		rl.prune(now)
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter.Allow()
}

// prune drops visitors idle for longer than visitorTTL. Callers hold rl.mu.
func (rl *clientRateLimiter) prune(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, ip)
		}
	}
	rl.lastPrune = now
}

// withRateLimit limits requests per client address on the routes it wraps.
// Limiter parameters come from the server configuration; a zero rate
// disables limiting entirely.
func (h *Handler) withRateLimit(next http.Handler) http.Handler {
	if h.cfg.RateLimitRPS <= 0 {
		return next
	}

	limiter := newClientRateLimiter(h.cfg.RateLimitRPS, h.cfg.RateLimitBurst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !limiter.allow(ip) {
			logger.FromRequest(r).Warn().Str("ip", ip).Msg("rate limit exceeded")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
