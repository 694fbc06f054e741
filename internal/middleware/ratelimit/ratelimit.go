// Package ratelimit throttles clients by IP with a fixed one-minute window.
package ratelimit

import (
	"net/http"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window = time.Minute

	// DefaultPerMinute applies when NewLimiter gets a non-positive limit.
	DefaultPerMinute = 60
)

// Limiter counts requests per client in fixed windows. Clients whose window
// ended are forgotten by a background sweep.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*clientWindow
	limit    int
	rejected atomic.Int64
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	start time.Time
	count int
}

func NewLimiter(perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	rl := &Limiter{
		windows: make(map[string]*clientWindow),
		limit:   perMinute,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.sweepLoop(5 * window)
	return rl
}

// Allow reports whether clientIP may make another request in its window.
func (rl *Limiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.start) >= window {
		rl.windows[clientIP] = &clientWindow{start: now, count: 1}
		return true
	}
	w.count++
	if w.count > rl.limit {
		rl.rejected.Add(1)
		return false
	}
	return true
}

func (rl *Limiter) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// sweep forgets clients whose window has ended.
func (rl *Limiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, w := range rl.windows {
		if now.Sub(w.start) >= window {
			delete(rl.windows, ip)
		}
	}
}

// ActiveClients is the number of clients with an open window.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Rejected is the number of requests refused since start.
func (rl *Limiter) Rejected() int64 {
	return rl.rejected.Load()
}

func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware limits requests whose method is in methods; with no methods
// every request counts. onLimit writes the refusal; nil sends a plain 429.
func (rl *Limiter) Middleware(clientIP func(*http.Request) string, onLimit http.HandlerFunc, methods ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(methods) > 0 && !slices.Contains(methods, r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if rl.Allow(clientIP(r)) {
				next.ServeHTTP(w, r)
				return
			}
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
