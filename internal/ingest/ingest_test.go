package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/triplog/internal/database"
	"github.com/edgard/triplog/internal/identity"
)

func newTestService(t *testing.T, now time.Time) (*Service, database.Store) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	store := database.NewStore(db, nil)
	svc := New(store, nil)
	svc.now = func() time.Time { return now }
	return svc, store
}

func TestIngestEndToEnd(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 5, 14, 30, 0, 0, time.UTC)
	svc, store := newTestService(t, now)
	ctx := context.Background()

	summary, err := svc.Ingest(ctx, Message{
		Channel:    identity.ChannelTelegram,
		SenderID:   "123",
		SenderName: "Alice",
		Text:       "to: Airport, mode: Bus, co: 2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Trip logged: Unknown → Airport via Bus at 14:30 on 2025-01-05 with 2", summary)

	user, err := store.FindUserByAlias(ctx, "tg_123@internal")
	require.NoError(t, err)
	require.NotNil(t, user, "exactly one user created for the new sender")

	trips, err := store.GetUserTrips(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "Unknown", trips[0].Origin)
	assert.Equal(t, "Airport", trips[0].Destination)
	assert.Equal(t, "Bus", trips[0].TransportMode)
	assert.Equal(t, 2, trips[0].CoTravelers)
	assert.Equal(t, "2025-01-05", trips[0].Date)
	assert.Equal(t, "14:30", trips[0].Time)
}

func TestIngestRepeatSenderReusesUser(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, time.Now())
	ctx := context.Background()

	msg := Message{Channel: identity.ChannelWhatsApp, SenderID: "whatsapp:+1555", Text: "origin: A"}
	_, err := svc.Ingest(ctx, msg)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, msg)
	require.NoError(t, err)

	user, err := store.FindUserByAlias(ctx, identity.Alias(identity.ChannelWhatsApp, "whatsapp:+1555"))
	require.NoError(t, err)
	require.NotNil(t, user)

	trips, err := store.GetUserTrips(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, trips, 2, "at-least-once delivery appends, never deduplicates")
}

func TestIngestGarbledTextStillLogs(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 2, 8, 5, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)

	summary, err := svc.Ingest(context.Background(), Message{
		Channel:  identity.ChannelTelegram,
		SenderID: "7",
		Text:     "hello bot how are you",
	})
	require.NoError(t, err)
	assert.Equal(t, "Trip logged: Unknown → Unknown via Unknown at 08:05 on 2025-03-02", summary)
}

func TestIngestRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, time.Now())

	_, err := svc.Ingest(context.Background(), Message{Channel: identity.ChannelTelegram, SenderID: "1", Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.Ingest(context.Background(), Message{Channel: identity.ChannelTelegram, SenderID: "", Text: "origin: A"})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}
