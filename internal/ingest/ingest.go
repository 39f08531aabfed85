// Package ingest implements the channel-independent message ingestion
// pipeline: parse the text, apply defaults, resolve the sender to a user,
// record the trip, and produce the confirmation summary.
package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/triplog/internal/database"
	"github.com/edgard/triplog/internal/identity"
	"github.com/edgard/triplog/internal/trip"
)

// ErrEmptyMessage is returned when the inbound message carries no sender id
// or no text. Adapters translate it into their channel's no-op reply.
var ErrEmptyMessage = errors.New("message has no sender or text")

// Message is one inbound chat message, already decoded from the channel's
// wire format.
type Message struct {
	Channel    identity.Channel
	SenderID   string
	SenderName string
	Text       string
}

// Service runs the ingestion pipeline. Each call is stateless and safe to
// run concurrently with any other; the store's alias index is the only
// shared coordination point.
type Service struct {
	resolver *identity.Resolver
	store    database.Store
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an ingestion service backed by the given store.
func New(store database.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		resolver: identity.NewResolver(store, logger),
		store:    store,
		logger:   logger.With("component", "ingest"),
		now:      time.Now,
	}
}

// Ingest parses msg.Text into a trip, records it against the sender's user,
// and returns the human-readable summary for the channel reply.
func (s *Service) Ingest(ctx context.Context, msg Message) (string, error) {
	senderID := strings.TrimSpace(msg.SenderID)
	text := strings.TrimSpace(msg.Text)
	if senderID == "" || text == "" {
		return "", ErrEmptyMessage
	}

	t := trip.Complete(trip.Parse(text), s.now())

	user, err := s.resolver.Resolve(ctx, msg.Channel, senderID, strings.TrimSpace(msg.SenderName))
	if err != nil {
		return "", err
	}
	t.UserID = user.ID

	tripID, err := s.store.CreateTrip(ctx, &t)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "trip ingested",
		"channel", msg.Channel,
		"user_id", user.ID,
		"trip_id", tripID,
		"destination", t.Destination)

	return trip.Summary(t), nil
}
