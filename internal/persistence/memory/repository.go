// Package memory provides a map-backed activity repository for unit tests and
// local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/asad-as1/EduAccess/internal/domain"
)

type recordKey struct {
	userID string
	date   domain.DayKey
}

// entry pairs one record with its own mutex so concurrent merges to the same
// (userID, date) key serialize while merges to distinct keys run in parallel.
type entry struct {
	mu     sync.Mutex
	record domain.ActivityRecord
}

// Repository stores activity records in memory.
type Repository struct {
	mu      sync.RWMutex
	entries map[recordKey]*entry
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{entries: make(map[recordKey]*entry)}
}

func (r *Repository) entryFor(userID string, ts time.Time) *entry {
	key := recordKey{userID: userID, date: domain.DayOf(ts)}

	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		return e
	}
	e = &entry{record: domain.ActivityRecord{
		UserID:       userID,
		Date:         key.date,
		PagesVisited: make(map[string]int),
	}}
	r.entries[key] = e
	return e
}

// MergeActiveTime implements domain.ActivityRepository.
func (r *Repository) MergeActiveTime(ctx context.Context, userID string, deltaSeconds float64, ts time.Time) error {
	e := r.entryFor(userID, ts)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record.TotalActiveTime += deltaSeconds
	if ts.After(e.record.LastUpdated) {
		e.record.LastUpdated = ts
	}
	return nil
}

// MergePageVisit implements domain.ActivityRepository.
func (r *Repository) MergePageVisit(ctx context.Context, userID, page string, ts time.Time) error {
	e := r.entryFor(userID, ts)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record.PagesVisited[page]++
	if ts.After(e.record.LastUpdated) {
		e.record.LastUpdated = ts
	}
	return nil
}

// ListByUser implements domain.ActivityRepository, returning records ascending
// by date.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.ActivityRecord, error) {
	r.mu.RLock()
	records := make([]domain.ActivityRecord, 0)
	for key, e := range r.entries {
		if key.userID != userID {
			continue
		}
		e.mu.Lock()
		records = append(records, snapshot(e.record))
		e.mu.Unlock()
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})
	return records, nil
}

func snapshot(rec domain.ActivityRecord) domain.ActivityRecord {
	pages := make(map[string]int, len(rec.PagesVisited))
	for page, count := range rec.PagesVisited {
		pages[page] = count
	}
	rec.PagesVisited = pages
	return rec
}
