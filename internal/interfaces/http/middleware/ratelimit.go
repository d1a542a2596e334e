package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/prometheus"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
)

// RateLimiter decides whether the client identified by key may proceed.
type RateLimiter interface {
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo reports the limiter state after a decision.
type RateLimitInfo struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// KeyFunc extracts the client key.  Defaults to the client IP.
	KeyFunc   func(r *http.Request) string
	SkipPaths []string
}

// DefaultRateLimitConfig keys by client IP and never limits probes.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		KeyFunc:   ClientIP,
		SkipPaths: []string{"/healthz", "/readyz", "/metrics"},
	}
}

// ClientIP keys by the remote host.  Mount chi's RealIP first so that
// RemoteAddr already reflects X-Forwarded-For.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter holds one token bucket per client key.  Buckets idle longer
// than the cleanup interval are dropped.
type KeyedLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor

	idle time.Duration
	stop chan struct{}
	once sync.Once
}

// NewKeyedLimiter creates a limiter allowing rps requests per second per key
// with the given burst.  A positive idle starts the cleanup goroutine; call
// Stop to end it.
func NewKeyedLimiter(rps float64, burst int, idle time.Duration) *KeyedLimiter {
	l := &KeyedLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		idle:     idle,
		stop:     make(chan struct{}),
	}
	if idle > 0 {
		go l.cleanupLoop()
	}
	return l
}

// Allow consumes one token for key.
func (l *KeyedLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := time.Now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	info := RateLimitInfo{Limit: l.burst}
	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		info.RetryAfter = time.Second
		return false, info
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		info.RetryAfter = delay
		return false, info
	}
	info.Remaining = int(math.Max(0, math.Floor(v.limiter.TokensAt(now))))
	return true, info
}

func (l *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stop:
			return
		}
	}
}

func (l *KeyedLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, key)
		}
	}
}

// Stop ends the cleanup goroutine.  It is idempotent.
func (l *KeyedLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Len returns the number of tracked clients.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// RateLimit rejects requests over the limit with 429 and a Retry-After
// header.  metrics may be nil.
func RateLimit(limiter RateLimiter, config RateLimitConfig, metrics *prometheus.AppMetrics) func(http.Handler) http.Handler {
	skipSet := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skipSet[p] = true
	}
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = ClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			allowed, info := limiter.Allow(keyFunc(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			if metrics != nil {
				metrics.HTTPRateLimited.WithLabelValues(r.URL.Path).Inc()
			}
			secs := int(math.Ceil(info.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			rerr := errors.RateLimit("rate limit exceeded, please retry later")
			_ = json.NewEncoder(w).Encode(common.NewErrorResponse(string(rerr.Code), rerr.Message, ""))
		})
	}
}

//Personal.AI order the ending
