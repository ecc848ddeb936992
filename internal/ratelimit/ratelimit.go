package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter tracks request attempts per client IP over a sliding window.
type Limiter struct {
	attempts map[string][]time.Time
	mutex    sync.Mutex
	limit    int
	window   time.Duration
	stopCh   chan struct{}
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		stopCh:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow records an attempt for ip and reports whether it was within the limit.
func (l *Limiter) Allow(ip string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	valid := make([]time.Time, 0, len(l.attempts[ip])+1)
	for _, at := range l.attempts[ip] {
		if at.After(cutoff) {
			valid = append(valid, at)
		}
	}
	valid = append(valid, now)
	l.attempts[ip] = valid

	return len(valid)-1 < l.limit
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Drop everything; the window is short enough that
			// resetting beats tracking per-entry expiry.
			l.mutex.Lock()
			l.attempts = make(map[string][]time.Time)
			l.mutex.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	close(l.stopCh)
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"errorCode":"too_many_requests","errorMessage":"Too many requests. Please try again later."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the real client IP from the request.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP extracts the first valid IP from a comma-separated list.
func parseFirstIP(ips string) string {
	if i := strings.IndexByte(ips, ','); i >= 0 {
		ips = ips[:i]
	}
	if parsed := net.ParseIP(strings.TrimSpace(ips)); parsed != nil {
		return parsed.String()
	}
	return ""
}
