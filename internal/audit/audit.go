// Package audit keeps a best-effort, in-memory trail of security-relevant
// actions. Entries are held for seven days and trimmed lazily on each write.
// The trail lives and dies with the process: it is a security aid, not a
// compliance ledger, and recording must never block or fail the primary
// operation.
package audit

import (
	"sync"
	"time"
)

// Outcome values for an entry.
const (
	Success = "success"
	Failure = "failure"
)

// DefaultRetention is how long entries are kept before the lazy sweep drops
// them.
const DefaultRetention = 7 * 24 * time.Hour

// Entry is one recorded action. ActorID is zero for anonymous callers.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	ActorID    uint64    `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	SourceAddr string    `json:"source_addr,omitempty"`
}

// Filter selects entries on Query. Zero-valued fields match everything.
type Filter struct {
	ActorID uint64
	Action  string
	Outcome string
	From    time.Time
	To      time.Time
}

// Log is the append-only in-memory trail. Mutation is guarded by a mutex so
// concurrent request handlers can record safely.
type Log struct {
	mu        sync.Mutex
	entries   []Entry
	retention time.Duration
}

// New returns a Log keeping entries for the given retention. A zero
// retention falls back to DefaultRetention.
func New(retention time.Duration) *Log {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Log{retention: retention}
}

// Record stamps the entry with the server clock, sweeps anything past
// retention and appends. It never fails.
func (l *Log) Record(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	e.Timestamp = now
	l.sweep(now)
	l.entries = append(l.entries, e)
}

// Query returns entries matching the filter in insertion order.
func (l *Log) Query(f Filter) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if f.ActorID != 0 && e.ActorID != f.ActorID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.Outcome != "" && e.Outcome != f.Outcome {
			continue
		}
		if !f.From.IsZero() && e.Timestamp.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Timestamp.After(f.To) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// sweep drops entries older than the retention window. Entries are appended
// in time order, so the first survivor bounds the cut.
func (l *Log) sweep(now time.Time) {
	cutoff := now.Add(-l.retention)
	i := 0
	for i < len(l.entries) && l.entries[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		l.entries = append(l.entries[:0], l.entries[i:]...)
	}
}
