package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidEvent marks events rejected by validation before any merge.
var ErrInvalidEvent = errors.New("invalid activity event")

// Event is the tagged union of the two ingress message kinds. Having two
// concrete cases lets the ingestion endpoint validate exhaustively instead of
// sniffing fields off an untyped body.
type Event interface {
	// User returns the identity the event claims to belong to.
	User() string
	// AuthToken returns the opaque token carried in the event body.
	AuthToken() string
	// OccurredAt returns the event's own timestamp; zero when the client
	// omitted one.
	OccurredAt() time.Time
	// Validate reports an ErrInvalidEvent-wrapped error for malformed events.
	Validate() error
}

// ActiveTimeDelta reports seconds of measured foreground activity since the
// client's previous flush.
type ActiveTimeDelta struct {
	UserID       string
	Token        string
	DeltaSeconds float64
	Timestamp    time.Time
}

func (e ActiveTimeDelta) User() string          { return e.UserID }
func (e ActiveTimeDelta) AuthToken() string     { return e.Token }
func (e ActiveTimeDelta) OccurredAt() time.Time { return e.Timestamp }

// Validate implements Event.
func (e ActiveTimeDelta) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidEvent)
	}
	if e.DeltaSeconds < 0 {
		return fmt.Errorf("%w: activeTime must be >= 0", ErrInvalidEvent)
	}
	return nil
}

// PageVisitEvent reports one navigation to a page.
type PageVisitEvent struct {
	UserID    string
	Token     string
	Page      string
	Timestamp time.Time
}

func (e PageVisitEvent) User() string          { return e.UserID }
func (e PageVisitEvent) AuthToken() string     { return e.Token }
func (e PageVisitEvent) OccurredAt() time.Time { return e.Timestamp }

// Validate implements Event.
func (e PageVisitEvent) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidEvent)
	}
	if strings.TrimSpace(e.Page) == "" {
		return fmt.Errorf("%w: page is required", ErrInvalidEvent)
	}
	return nil
}
