package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// maxTrackedUsers bounds the limiter map.
	maxTrackedUsers = 10000
	// limiterIdleTTL is how long a user may go without writing before its
	// limiter can be evicted to make room.
	limiterIdleTTL = 10 * time.Minute
)

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// WriteLimiter throttles mutating requests per authenticated user. Reads pass
// through untouched. It must run after RequireAuth.
type WriteLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*userLimiter
	limit    rate.Limit
	burst    int
	maxUsers int
	now      func() time.Time
}

// NewWriteLimiter allows perMinute writes per user with the given burst.
// perMinute <= 0 disables limiting.
func NewWriteLimiter(perMinute, burst int) *WriteLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if burst <= 0 {
		burst = 1
	}
	return &WriteLimiter{
		limiters: make(map[int64]*userLimiter),
		limit:    limit,
		burst:    burst,
		maxUsers: maxTrackedUsers,
		now:      time.Now,
	}
}

// allow takes one token from the user's bucket.
func (l *WriteLimiter) allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	ul, ok := l.limiters[userID]
	if !ok {
		if len(l.limiters) >= l.maxUsers {
			l.evict(now)
		}
		ul = &userLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.lim.AllowN(now, 1)
}

// evict drops limiters idle for longer than limiterIdleTTL. When every user is
// recent, the least recently seen one goes. Callers hold l.mu.
func (l *WriteLimiter) evict(now time.Time) {
	var (
		oldestID int64
		oldest   time.Time
	)
	for id, ul := range l.limiters {
		if now.Sub(ul.lastSeen) > limiterIdleTTL {
			delete(l.limiters, id)
			continue
		}
		if oldest.IsZero() || ul.lastSeen.Before(oldest) {
			oldestID, oldest = id, ul.lastSeen
		}
	}
	if len(l.limiters) >= l.maxUsers {
		delete(l.limiters, oldestID)
	}
}

func (l *WriteLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		userID, ok := UserID(r.Context())
		if ok && !l.allow(userID) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
