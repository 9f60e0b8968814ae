// Package postgres provides pgx-backed persistence for activity records and
// the activity outbox.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asad-as1/EduAccess/internal/domain"
	"github.com/asad-as1/EduAccess/internal/observability"
	"github.com/asad-as1/EduAccess/internal/outbox"
)

// Repository implements domain.ActivityRepository on Postgres. Each merge is a
// single INSERT ... ON CONFLICT DO UPDATE, so the row lock serializes
// concurrent merges to the same (user_id, activity_date) record while merges
// to other records proceed in parallel.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const mergeActiveTimeStmt = `INSERT INTO activity_records (user_id, activity_date, total_active_time, pages_visited, last_updated)
    VALUES ($1, $2, $3, '{}'::jsonb, $4)
    ON CONFLICT (user_id, activity_date) DO UPDATE SET
        total_active_time = activity_records.total_active_time + EXCLUDED.total_active_time,
        last_updated = GREATEST(activity_records.last_updated, EXCLUDED.last_updated)`

const mergePageVisitStmt = `INSERT INTO activity_records (user_id, activity_date, total_active_time, pages_visited, last_updated)
    VALUES ($1, $2, 0, jsonb_build_object($3::text, 1), $4)
    ON CONFLICT (user_id, activity_date) DO UPDATE SET
        pages_visited = jsonb_set(
            activity_records.pages_visited,
            ARRAY[$3::text],
            to_jsonb(COALESCE((activity_records.pages_visited->>$3)::int, 0) + 1)),
        last_updated = GREATEST(activity_records.last_updated, EXCLUDED.last_updated)`

// MergeActiveTime adds deltaSeconds to the record for the event's day,
// creating the record on first write.
func (r *Repository) MergeActiveTime(ctx context.Context, userID string, deltaSeconds float64, ts time.Time) error {
	day := domain.DayOf(ts)
	payload := outbox.ActivityMerged{
		EventID:      uuid.NewString(),
		UserID:       userID,
		Date:         string(day),
		Kind:         "active_time",
		DeltaSeconds: deltaSeconds,
		Timestamp:    ts.UTC(),
	}

	err := r.merge(ctx, payload, mergeActiveTimeStmt, userID, day.Time(), deltaSeconds, ts.UTC())
	if err != nil {
		return err
	}
	observability.RecordMergeApplied(ts)
	return nil
}

// MergePageVisit increments the visit counter for page on the event's day,
// creating the record on first write.
func (r *Repository) MergePageVisit(ctx context.Context, userID, page string, ts time.Time) error {
	day := domain.DayOf(ts)
	payload := outbox.ActivityMerged{
		EventID:   uuid.NewString(),
		UserID:    userID,
		Date:      string(day),
		Kind:      "page_visit",
		Page:      page,
		Timestamp: ts.UTC(),
	}

	err := r.merge(ctx, payload, mergePageVisitStmt, userID, day.Time(), page, ts.UTC())
	if err != nil {
		return err
	}
	observability.RecordMergeApplied(ts)
	return nil
}

// merge applies the upsert and records the outbox event inside one transaction.
func (r *Repository) merge(ctx context.Context, payload outbox.ActivityMerged, stmt string, args ...interface{}) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, stmt, args...); err != nil {
		return err
	}
	if err = insertOutbox(ctx, tx, payload); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertOutbox(ctx context.Context, tx pgx.Tx, payload outbox.ActivityMerged) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO activity_outbox (event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5)`

	_, err = tx.Exec(ctx, stmt,
		outbox.EventTypeActivityMerged,
		outbox.TopicActivityEvents,
		payload.UserID,
		body,
		payload.EventID,
	)
	return err
}

// ListByUser returns the user's records ascending by date.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.ActivityRecord, error) {
	const query = `SELECT user_id, activity_date, total_active_time, pages_visited, last_updated
        FROM activity_records WHERE user_id=$1 ORDER BY activity_date ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.ActivityRecord, 0)
	for rows.Next() {
		var rec domain.ActivityRecord
		var day time.Time
		if err := rows.Scan(&rec.UserID, &day, &rec.TotalActiveTime, &rec.PagesVisited, &rec.LastUpdated); err != nil {
			return nil, err
		}
		rec.Date = domain.DayOf(day)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
