package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/triplog/internal/trip"
)

// Store defines the data access operations consumed by the ingestion
// pipeline and the read API. All methods accept a context for cancellation.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// FindUserByAlias retrieves a user by its unique alias.
	// Returns nil, nil when no user exists for the alias.
	FindUserByAlias(ctx context.Context, alias string) (*User, error)

	// InsertUser inserts a user with the given alias unless one already
	// exists, and returns the id of the row owning the alias either way.
	// The insert-if-absent runs as a single statement against the unique
	// alias index, so concurrent first contacts cannot create duplicates.
	InsertUser(ctx context.Context, alias, name string) (int64, error)

	// CreateTrip persists a completed trip and returns its id.
	CreateTrip(ctx context.Context, t *trip.Trip) (int64, error)

	// GetUserTrips retrieves a user's trips, newest first.
	GetUserTrips(ctx context.Context, userID int64) ([]trip.Trip, error)

	// GetTripStats aggregates a user's trip history.
	GetTripStats(ctx context.Context, userID int64) (*TripStats, error)

	// RunMaintenance performs periodic database maintenance (VACUUM etc).
	RunMaintenance(ctx context.Context) error
}

// sqlxStore implements Store on top of sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) FindUserByAlias(ctx context.Context, alias string) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user,
		"SELECT id, created_at, alias, name, anonymous FROM users WHERE alias = ?", alias)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "error finding user by alias", "alias", alias, "error", err)
		return nil, fmt.Errorf("failed to find user by alias %q: %w", alias, err)
	}
	return &user, nil
}

func (s *sqlxStore) InsertUser(ctx context.Context, alias, name string) (int64, error) {
	if alias == "" {
		return 0, errors.New("user alias must not be empty")
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (alias, name, anonymous, created_at)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT (alias) DO NOTHING`,
		alias, name, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "error inserting user", "alias", alias, "error", err)
		return 0, fmt.Errorf("failed to insert user %q: %w", alias, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read insert result for user %q: %w", alias, err)
	}

	if rows == 1 {
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read id of inserted user %q: %w", alias, err)
		}
		s.logger.InfoContext(ctx, "user created", "alias", alias, "user_id", id)
		return id, nil
	}

	// Lost the race or the user already existed: the alias owner wins.
	var id int64
	if err := s.db.GetContext(ctx, &id, "SELECT id FROM users WHERE alias = ?", alias); err != nil {
		return 0, fmt.Errorf("failed to look up existing user %q: %w", alias, err)
	}
	return id, nil
}

func (s *sqlxStore) CreateTrip(ctx context.Context, t *trip.Trip) (int64, error) {
	if t == nil {
		return 0, errors.New("cannot create nil trip")
	}
	if t.UserID == 0 {
		return 0, errors.New("trip must have a non-zero user_id")
	}

	t.CreatedAt = time.Now().UTC()

	result, err := s.db.NamedExecContext(ctx,
		`INSERT INTO trips (user_id, origin, destination, transport_mode, date, time, co_travelers, notes, created_at)
		 VALUES (:user_id, :origin, :destination, :transport_mode, :date, :time, :co_travelers, :notes, :created_at)`,
		t)
	if err != nil {
		s.logger.ErrorContext(ctx, "error creating trip", "user_id", t.UserID, "error", err)
		return 0, fmt.Errorf("failed to create trip for user %d: %w", t.UserID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read id of created trip: %w", err)
	}
	t.ID = id

	s.logger.InfoContext(ctx, "trip created", "trip_id", id, "user_id", t.UserID)
	return id, nil
}

func (s *sqlxStore) GetUserTrips(ctx context.Context, userID int64) ([]trip.Trip, error) {
	trips := []trip.Trip{}
	err := s.db.SelectContext(ctx, &trips,
		`SELECT id, user_id, created_at, origin, destination, transport_mode, date, time, co_travelers, notes
		 FROM trips WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "error listing trips", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list trips for user %d: %w", userID, err)
	}
	return trips, nil
}

func (s *sqlxStore) GetTripStats(ctx context.Context, userID int64) (*TripStats, error) {
	stats := TripStats{MostUsedMode: "None"}

	err := s.db.GetContext(ctx, &stats,
		`SELECT COUNT(*) AS total_trips, COALESCE(SUM(co_travelers), 0) AS total_co_travelers,
		        COALESCE((SELECT transport_mode FROM trips WHERE user_id = ?
		                  GROUP BY transport_mode ORDER BY COUNT(*) DESC, transport_mode ASC LIMIT 1), 'None') AS most_used_mode
		 FROM trips WHERE user_id = ?`, userID, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "error aggregating trip stats", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to aggregate trip stats for user %d: %w", userID, err)
	}

	return &stats, nil
}

func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	for _, stmt := range []string{"VACUUM", "ANALYZE", "PRAGMA optimize"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("maintenance statement %q failed: %w", stmt, err)
		}
	}
	return nil
}
