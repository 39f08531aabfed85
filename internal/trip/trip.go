// Package trip contains the canonical trip record, the free-text field
// parser, and the defaulting rules that turn a partial draft into a
// complete record.
package trip

import (
	"database/sql"
	"fmt"
	"time"
)

// Draft is a partially-populated trip extracted from free text. A nil field
// means the sender did not provide it; defaults are applied later by
// Complete.
type Draft struct {
	Origin        *string
	Destination   *string
	TransportMode *string
	Date          *string
	Time          *string
	CoTravelers   *int
	Notes         *string
}

// Trip is a fully-populated trip record ready for persistence. Every field
// except Notes is guaranteed non-empty after Complete. Trips are append-only:
// there is no update or delete path.
type Trip struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`

	Origin        string         `db:"origin"`
	Destination   string         `db:"destination"`
	TransportMode string         `db:"transport_mode"`
	Date          string         `db:"date"`
	Time          string         `db:"time"`
	CoTravelers   int            `db:"co_travelers"`
	Notes         sql.NullString `db:"notes"`
}

const unknown = "Unknown"

// Complete fills every missing draft field with its deterministic default
// and returns a concrete Trip. It is a pure function of (d, now): date and
// time fall back to now in UTC, text fields to "Unknown", the co-traveler
// count to zero. Notes stay absent when not provided.
func Complete(d Draft, now time.Time) Trip {
	now = now.UTC()

	t := Trip{
		Origin:        unknown,
		Destination:   unknown,
		TransportMode: unknown,
		Date:          now.Format("2006-01-02"),
		Time:          now.Format("15:04"),
	}

	if d.Origin != nil {
		t.Origin = *d.Origin
	}
	if d.Destination != nil {
		t.Destination = *d.Destination
	}
	if d.TransportMode != nil {
		t.TransportMode = *d.TransportMode
	}
	if d.Date != nil {
		t.Date = *d.Date
	}
	if d.Time != nil {
		t.Time = *d.Time
	}
	if d.CoTravelers != nil && *d.CoTravelers > 0 {
		t.CoTravelers = *d.CoTravelers
	}
	if d.Notes != nil {
		t.Notes = sql.NullString{String: *d.Notes, Valid: true}
	}

	return t
}

// Summary renders the human-readable confirmation sent back to the sender.
func Summary(t Trip) string {
	s := fmt.Sprintf("Trip logged: %s → %s via %s at %s on %s",
		t.Origin, t.Destination, t.TransportMode, t.Time, t.Date)
	if t.CoTravelers > 0 {
		s += fmt.Sprintf(" with %d", t.CoTravelers)
	}
	return s
}
