package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterConfig bounds how many messages one sender may push through the
// webhook. A zero PerMinute disables limiting.
type LimiterConfig struct {
	PerMinute int
	Burst     int
	// IdleAfter drops a sender's bucket once it has been quiet this long.
	IdleAfter time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// senderLimiter keeps one token bucket per sender phone.
type senderLimiter struct {
	cfg LimiterConfig
	now func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newSenderLimiter(cfg LimiterConfig, now func() time.Time) *senderLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = 10 * time.Minute
	}
	return &senderLimiter{
		cfg:       cfg,
		now:       now,
		visitors:  make(map[string]*visitor),
		lastSweep: now(),
	}
}

func (l *senderLimiter) Allow(sender string) bool {
	if l.cfg.PerMinute <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.IdleAfter {
		l.sweep(now)
	}

	v, ok := l.visitors[sender]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(float64(l.cfg.PerMinute)/60), l.cfg.Burst)}
		l.visitors[sender] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *senderLimiter) sweep(now time.Time) {
	for sender, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.cfg.IdleAfter {
			delete(l.visitors, sender)
		}
	}
	l.lastSweep = now
}

func (l *senderLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
