// Package ratelimit bounds how often one source may hit a sensitive action.
// Keys are composed from the action name and the caller's network address.
// Two implementations exist: a process-local counter and a Redis-backed one
// that keeps counts correct across horizontally scaled instances.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter permits up to limit requests per key inside a fixed window.
// Allow reports whether this request may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

type counter struct {
	count   int
	resetAt time.Time
}

// Memory is the process-local limiter. The first request in a window sets
// count=1 and a reset deadline; requests inside the window increment the
// count and are permitted while it stays at or under the limit; once the
// deadline passes the counter resets transparently on next use. Every call
// sweeps all keys whose deadline has passed, so the map cannot grow without
// bound. State is lost on restart and not shared between processes.
type Memory struct {
	mu       sync.Mutex
	counters map[string]counter
}

// NewMemory returns an empty process-local limiter.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]counter)}
}

// Allow implements Limiter.
func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for k, c := range m.counters {
		if c.resetAt.Before(now) {
			delete(m.counters, k)
		}
	}
	c, ok := m.counters[key]
	if !ok || c.resetAt.Before(now) {
		m.counters[key] = counter{count: 1, resetAt: now.Add(window)}
		return true
	}
	c.count++
	m.counters[key] = c
	return c.count <= limit
}
