package capture

import (
	"sync"
	"time"

	"github.com/asad-as1/EduAccess/internal/api"
	"github.com/asad-as1/EduAccess/internal/domain"
)

// Identity is the locally cached user identity and auth token. When either is
// missing the recorder emits nothing.
type Identity struct {
	UserID string
	Token  string
}

// IdentitySource yields the current identity, if any.
type IdentitySource func() (Identity, bool)

// Recorder measures active time across route changes and tab lifecycle events
// and emits delta/visit events through the beacon.
type Recorder struct {
	identity IdentitySource
	beacon   *Beacon
	store    MirrorStore
	now      func() time.Time

	mu           sync.Mutex
	sessionStart time.Time
}

// RecorderOption configures optional behaviour for the Recorder.
type RecorderOption func(*Recorder)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder constructs a Recorder. The session starts now.
func NewRecorder(identity IdentitySource, beacon *Beacon, store MirrorStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		identity: identity,
		beacon:   beacon,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sessionStart = r.now()
	return r
}

// OnRouteEnter emits one page-visit event for a navigation. Fire-and-forget:
// no response is awaited, failures are dropped.
func (r *Recorder) OnRouteEnter(page string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rolloverLocked()

	id, ok := r.identity()
	if !ok || id.UserID == "" || id.Token == "" {
		return
	}

	r.beacon.Enqueue("/activity/page-visit", api.PageVisitRequest{
		UserID:    id.UserID,
		Token:     id.Token,
		Page:      page,
		Timestamp: r.now().UTC(),
	})
}

// OnActivityFlush handles the tab going hidden or unloading: it computes the
// elapsed active time, enqueues the delta, and starts a new session segment.
// The enqueue is the entire delivery effort; the browsing context may be torn
// down immediately after this returns.
func (r *Recorder) OnActivityFlush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rolloverLocked()

	id, ok := r.identity()
	if !ok || id.UserID == "" || id.Token == "" {
		return
	}

	now := r.now()
	elapsed := now.Sub(r.sessionStart).Seconds()

	mirror := r.store.Load()
	mirror.AccumulatedToday += elapsed
	mirror.LastActiveDate = domain.DayOf(now)
	r.store.Save(mirror)

	r.beacon.Enqueue("/activity/newActivity", api.ActiveTimeRequest{
		UserID:     id.UserID,
		Token:      id.Token,
		ActiveTime: elapsed,
		Timestamp:  now.UTC(),
	})

	// A new segment starts whether or not the send ever lands.
	r.sessionStart = now
}

// AccumulatedToday exposes the local running total for display.
func (r *Recorder) AccumulatedToday() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolloverLocked()
	return r.store.Load().AccumulatedToday
}

// rolloverLocked zeroes the local mirror when the calendar day has changed.
// This affects only the client's own running total; server bucketing is
// derived independently from each event's timestamp.
func (r *Recorder) rolloverLocked() {
	today := domain.DayOf(r.now())
	mirror := r.store.Load()
	if ShouldReset(mirror.LastActiveDate, today) {
		mirror.AccumulatedToday = 0
		mirror.LastActiveDate = today
		r.store.Save(mirror)
	}
}
