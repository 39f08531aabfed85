package identity_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/triplog/internal/database"
	"github.com/edgard/triplog/internal/identity"
)

func newResolver(t *testing.T) (*identity.Resolver, database.Store) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	store := database.NewStore(db, nil)
	return identity.NewResolver(store, nil), store
}

func TestAlias(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tg_123@internal", identity.Alias(identity.ChannelTelegram, "123"))
	assert.Equal(t, "wa_+15551234567@internal", identity.Alias(identity.ChannelWhatsApp, "+15551234567"))

	// The same raw sender id never collides across channels.
	assert.NotEqual(t,
		identity.Alias(identity.ChannelTelegram, "42"),
		identity.Alias(identity.ChannelWhatsApp, "42"))
}

func TestResolveCreatesUserOnFirstContact(t *testing.T) {
	t.Parallel()
	resolver, store := newResolver(t)
	ctx := context.Background()

	user, err := resolver.Resolve(ctx, identity.ChannelTelegram, "123", "Alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "tg_123@internal", user.Alias)
	assert.Equal(t, "Alice", user.Name)
	assert.True(t, user.Anonymous)

	stored, err := store.FindUserByAlias(ctx, "tg_123@internal")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, user.ID, stored.ID)
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()
	resolver, _ := newResolver(t)
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, identity.ChannelTelegram, "123", "Alice")
	require.NoError(t, err)

	second, err := resolver.Resolve(ctx, identity.ChannelTelegram, "123", "Alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// A different name hint on repeat contact never updates the record.
	third, err := resolver.Resolve(ctx, identity.ChannelTelegram, "123", "Alias of Alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, "Alice", third.Name)
}

func TestResolvePlaceholderName(t *testing.T) {
	t.Parallel()
	resolver, _ := newResolver(t)

	user, err := resolver.Resolve(context.Background(), identity.ChannelTelegram, "987", "")
	require.NoError(t, err)
	assert.Equal(t, "Telegram User 987", user.Name)

	user, err = resolver.Resolve(context.Background(), identity.ChannelWhatsApp, "+351000", "")
	require.NoError(t, err)
	assert.Equal(t, "WhatsApp User +351000", user.Name)
}

func TestResolveConcurrentFirstContact(t *testing.T) {
	t.Parallel()
	resolver, store := newResolver(t)

	const callers = 16
	users := make([]*database.User, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := resolver.Resolve(context.Background(), identity.ChannelTelegram, "123", "Alice")
			assert.NoError(t, err)
			users[i] = u
		}(i)
	}
	wg.Wait()

	for _, u := range users {
		require.NotNil(t, u)
		assert.Equal(t, users[0].ID, u.ID)
	}

	// Exactly one row for the alias.
	u, err := store.FindUserByAlias(context.Background(), "tg_123@internal")
	require.NoError(t, err)
	require.NotNil(t, u)
}
