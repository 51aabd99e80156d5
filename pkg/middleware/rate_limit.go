package middleware

import (
	"net/http"
	"sync"
	"time"

	"slotdesk/pkg/logger"
)

// RequesterRateLimiter throttles per requester ID so one student hammering
// the booking endpoints cannot starve the rest.
type RequesterRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	header   string
	log      *logger.Logger
	stopCh   chan struct{}
}

func NewRequesterRateLimiter(limit int, window time.Duration, header string, log *logger.Logger) *RequesterRateLimiter {
	limiter := &RequesterRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		header:   header,
		log:      log,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *RequesterRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for requester, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, requester)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RequesterRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RequesterRateLimiter) Allow(requester string) bool {
	if requester == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := make([]time.Time, 0, rl.limit)
	for _, ts := range rl.requests[requester] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[requester] = valid
		return false
	}

	rl.requests[requester] = append(valid, now)
	return true
}

func RequesterRateLimit(limiter *RequesterRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requester := r.Header.Get(limiter.header)
			if !limiter.Allow(requester) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", requestIDFrom(r),
					"requester_id", requester,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
