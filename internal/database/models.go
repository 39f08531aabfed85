package database

import "time"

// User represents an account that owns trips. Accounts created through a
// chat channel carry a synthetic alias and are flagged anonymous: they have
// no credential and cannot log in interactively.
type User struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	Alias     string `db:"alias"`
	Name      string `db:"name"`
	Anonymous bool   `db:"anonymous"`
}

// TripStats aggregates a user's trip history for reporting.
type TripStats struct {
	TotalTrips       int    `db:"total_trips" json:"totalTrips"`
	TotalCoTravelers int    `db:"total_co_travelers" json:"totalCoTravelers"`
	MostUsedMode     string `db:"most_used_mode" json:"mostUsedTransport"`
}
