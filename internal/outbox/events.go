package outbox

import "time"

// Topic and event type identifiers for the activity stream.
const (
	TopicActivityEvents     = "activity_events"
	EventTypeActivityMerged = "activity.merged"
)

// ActivityMerged is published after each successful merge so analytics
// consumers can follow engagement without querying the aggregate table.
type ActivityMerged struct {
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	Date         string    `json:"date"`
	Kind         string    `json:"kind"`
	Page         string    `json:"page,omitempty"`
	DeltaSeconds float64   `json:"delta_seconds,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
