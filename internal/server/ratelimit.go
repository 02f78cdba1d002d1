package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aristath/tradebook/internal/api"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const visitorTTL = 3 * time.Minute

// RateLimiter applies a token bucket per client address
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	now      func() time.Time
	log      zerolog.Logger
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second per client
func NewRateLimiter(rps float64, burst int, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		log:      log.With().Str("component", "rate_limiter").Logger(),
	}
}

func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Cleanup forgets clients idle for longer than visitorTTL
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, v := range rl.visitors {
		if rl.now().Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle clients every minute until ctx is done
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Cleanup(); n > 0 {
				rl.log.Debug().Int("removed", n).Msg("Dropped idle rate limit entries")
			}
		}
	}
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !rl.getVisitor(key).Allow() {
			rl.log.Warn().Str("client", key).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			w.Header().Set("Retry-After", "1")
			api.WriteJSON(w, rl.log, http.StatusTooManyRequests, api.ErrorResponse{Error: api.ErrorBody{
				Code:    "RATE_LIMITED",
				Message: "rate limit exceeded",
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey strips the port so every connection from one host shares a bucket
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
