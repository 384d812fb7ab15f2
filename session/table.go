// Package session implements the admission/session table shared by the
// UDP receiver, the expiry sweeper, and the HTTP control surface.
package session

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "pgw_active_sessions",
	Help: "Current number of admitted sessions.",
})

func init() {
	prometheus.MustRegister(activeSessions)
}

// Table is a concurrency-safe mapping from subscriber identity to session
// creation time, guarded by a single table-wide mutex. Callers must not
// perform I/O (CDR writes, datagram replies) while holding the lock;
// snapshot operations copy identities out under the lock so callers can
// do that work after releasing it.
type Table struct {
	mu        sync.Mutex
	sessions  map[string]time.Time
	blacklist map[string]struct{}
}

// NewTable constructs a Table with the given immutable blacklist.
func NewTable(blacklist []string) *Table {
	bl := make(map[string]struct{}, len(blacklist))
	for _, imsi := range blacklist {
		bl[imsi] = struct{}{}
	}
	return &Table{
		sessions:  make(map[string]time.Time),
		blacklist: bl,
	}
}

// IsBlacklisted reports whether id is a member of the immutable blacklist.
func (t *Table) IsBlacklisted(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.blacklist[id]
	return ok
}

// Contains reports whether id currently has an active session.
func (t *Table) Contains(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.sessions[id]
	return ok
}

// TryAdmit atomically checks blacklist membership and existing-session
// presence, and on success inserts id with creation time now. It reports
// whether the identity was admitted.
func (t *Table) TryAdmit(id string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, blocked := t.blacklist[id]; blocked {
		return false
	}
	if _, exists := t.sessions[id]; exists {
		return false
	}
	t.sessions[id] = now
	activeSessions.Set(float64(len(t.sessions)))
	return true
}

// Remove deletes id from the table, if present.
func (t *Table) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
	activeSessions.Set(float64(len(t.sessions)))
}

// Size returns the current number of active sessions.
func (t *Table) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// SnapshotExpired copies out every identity whose session age exceeds
// timeout as of now, without removing them.
func (t *Table) SnapshotExpired(now time.Time, timeout time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var expired []string
	for id, created := range t.sessions {
		if now.Sub(created) > timeout {
			expired = append(expired, id)
		}
	}
	return expired
}

// SnapshotFirstN copies out up to n arbitrary identities currently in the
// table, without removing them. Map iteration order is unspecified, which
// matches the spec's "insertion-order irrelevant" invariant.
func (t *Table) SnapshotFirstN(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for id := range t.sessions {
		if len(out) >= n {
			break
		}
		out = append(out, id)
	}
	return out
}

// SnapshotAll copies out every active identity and its creation time.
func (t *Table) SnapshotAll() map[string]time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]time.Time, len(t.sessions))
	for id, created := range t.sessions {
		out[id] = created
	}
	return out
}
