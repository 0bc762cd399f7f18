// Package ratelimit is a per-address sliding-window limiter for the parse endpoint.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultWindow       = 60 * time.Second
	DefaultMax          = 15
	DefaultCompactEvery = 100
)

// Limiter admits at most max requests per address in any trailing window.
type Limiter struct {
	window       time.Duration
	max          int
	compactEvery int
	now          func() time.Time
	logger       *slog.Logger

	mu    sync.Mutex
	hits  map[string][]time.Time
	calls int
}

type Option func(*Limiter)

func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

func WithMax(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.max = n
		}
	}
}

// WithCompactEvery sets how many Allow calls pass between automatic compactions.
func WithCompactEvery(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.compactEvery = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{
		window:       DefaultWindow,
		max:          DefaultMax,
		compactEvery: DefaultCompactEvery,
		now:          time.Now,
		logger:       logger,
		hits:         map[string][]time.Time{},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Allow records a request from addr and reports whether it is within the limit.
// Rejected requests are not recorded.
func (l *Limiter) Allow(addr string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%l.compactEvery == 0 {
		l.compactLocked(now)
	}

	recent := prune(l.hits[addr], now.Add(-l.window))
	if len(recent) >= l.max {
		l.hits[addr] = recent
		l.logger.Warn("ratelimit.reject", "addr", addr, "count", len(recent), "window", l.window.String())
		return false
	}
	l.hits[addr] = append(recent, now)
	return true
}

// Compact drops addresses with no hits inside the window and returns how many it dropped.
func (l *Limiter) Compact() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.compactLocked(now)
}

func (l *Limiter) compactLocked(now time.Time) int {
	cutoff := now.Add(-l.window)
	dropped := 0
	for addr, ts := range l.hits {
		recent := prune(ts, cutoff)
		if len(recent) == 0 {
			delete(l.hits, addr)
			dropped++
			continue
		}
		l.hits[addr] = recent
	}
	if dropped > 0 {
		l.logger.Debug("ratelimit.compact", "dropped", dropped, "tracked", len(l.hits))
	}
	return dropped
}

// Tracked is the number of addresses currently held in memory.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

// prune keeps timestamps strictly after cutoff. ts is in ascending order.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0:0], ts[i:]...)
}
