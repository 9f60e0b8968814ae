// Package capture implements the client-side engagement recorder: it measures
// active time per browsing session and emits best-effort events to the
// ingestion endpoint.
package capture

import (
	"sync"

	"github.com/asad-as1/EduAccess/internal/domain"
)

// SessionMirror is the client's local bookkeeping cache. It only survives
// reloads for display purposes; it is never authoritative and never instructs
// the server to reset anything.
type SessionMirror struct {
	AccumulatedToday float64
	LastActiveDate   domain.DayKey
}

// MirrorStore abstracts where the mirror is kept, so the recorder owns its
// session state explicitly instead of reaching into ambient global storage.
type MirrorStore interface {
	Load() SessionMirror
	Save(SessionMirror)
}

// ShouldReset reports whether the local running total belongs to a previous
// day and must be zeroed. Purely local: server-side bucketing is derived from
// event timestamps and is unaffected.
func ShouldReset(lastActive, today domain.DayKey) bool {
	return lastActive != today
}

// MemoryMirror is a MirrorStore held in process memory.
type MemoryMirror struct {
	mu     sync.Mutex
	mirror SessionMirror
}

// NewMemoryMirror constructs an empty MemoryMirror.
func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{}
}

// Load implements MirrorStore.
func (m *MemoryMirror) Load() SessionMirror {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mirror
}

// Save implements MirrorStore.
func (m *MemoryMirror) Save(mirror SessionMirror) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mirror = mirror
}
