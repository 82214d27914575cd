package web

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/evcraddock/piso/internal/logging"
)

const limiterIdle = 30 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter applies a token bucket per client IP.
type ipLimiter struct {
	perMinute int
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// newIPLimiter allows perMinute requests per IP with an equal burst.
// A non-positive perMinute disables limiting.
func newIPLimiter(perMinute int) *ipLimiter {
	return &ipLimiter{
		perMinute: perMinute,
		now:       time.Now,
		clients:   make(map[string]*clientLimiter),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdle {
			delete(l.clients, id)
		}
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute),
		}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// limited rejects requests over the per-IP budget with 429.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := logging.ClientIP(r, s.opts.TrustProxy)
		if !s.limiter.allow(ip) {
			slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			if strings.HasPrefix(r.URL.Path, "/api/") {
				apiError(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, "Demasiadas solicitudes, inténtalo más tarde", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
