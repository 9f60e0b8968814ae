package domain

import (
	"context"
	"time"
)

// ActivityRepository captures persistence operations for activity records.
// Merges must be atomic per (userID, day) record; merges to distinct records
// must not block each other.
type ActivityRepository interface {
	MergeActiveTime(ctx context.Context, userID string, deltaSeconds float64, ts time.Time) error
	MergePageVisit(ctx context.Context, userID, page string, ts time.Time) error
	ListByUser(ctx context.Context, userID string) ([]ActivityRecord, error)
}

// Service orchestrates activity merges and history reads.
type Service struct {
	repo ActivityRepository
}

// NewService constructs a Service.
func NewService(repo ActivityRepository) *Service {
	return &Service{repo: repo}
}

// RecordActiveTime validates and folds an active-time delta into the record
// for the event's own calendar day. receivedAt is used only when the event
// carries no timestamp.
func (s *Service) RecordActiveTime(ctx context.Context, event ActiveTimeDelta, receivedAt time.Time) error {
	if err := event.Validate(); err != nil {
		return err
	}
	ts := effectiveTime(event, receivedAt)
	return s.repo.MergeActiveTime(ctx, event.UserID, event.DeltaSeconds, ts)
}

// RecordPageVisit validates and folds a page visit into the record for the
// event's own calendar day.
func (s *Service) RecordPageVisit(ctx context.Context, event PageVisitEvent, receivedAt time.Time) error {
	if err := event.Validate(); err != nil {
		return err
	}
	ts := effectiveTime(event, receivedAt)
	return s.repo.MergePageVisit(ctx, event.UserID, event.Page, ts)
}

// History returns the user's full activity history ascending by date. An
// empty history is a valid result, distinct from an error.
func (s *Service) History(ctx context.Context, userID string) ([]ActivityRecord, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []ActivityRecord{}
	}
	return records, nil
}

func effectiveTime(event Event, receivedAt time.Time) time.Time {
	if ts := event.OccurredAt(); !ts.IsZero() {
		return ts.UTC()
	}
	return receivedAt.UTC()
}
