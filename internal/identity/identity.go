// Package identity binds chat senders to stable internal users via
// deterministic synthetic aliases.
package identity

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/triplog/internal/database"
)

// Channel identifies the chat platform a message arrived on.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelWhatsApp Channel = "whatsapp"
)

// tag returns the short channel prefix used in aliases. Tags must differ
// per channel so the same raw sender id can never collide across platforms.
func (c Channel) tag() string {
	switch c {
	case ChannelWhatsApp:
		return "wa"
	default:
		return "tg"
	}
}

// displayName returns the placeholder name used when the payload carries
// no usable sender name.
func (c Channel) displayName(senderID string) string {
	switch c {
	case ChannelWhatsApp:
		return fmt.Sprintf("WhatsApp User %s", senderID)
	default:
		return fmt.Sprintf("Telegram User %s", senderID)
	}
}

// Alias derives the deterministic email-like alias binding a channel sender
// to an internal user, e.g. "tg_123@internal".
func Alias(channel Channel, senderID string) string {
	return fmt.Sprintf("%s_%s@internal", channel.tag(), senderID)
}

// Resolver maps channel senders to users, creating one on first contact.
type Resolver struct {
	store  database.Store
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by the given store.
func NewResolver(store database.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{
		store:  store,
		logger: logger.With("component", "identity"),
	}
}

// Resolve returns the user bound to (channel, senderID), creating it on
// first contact. Repeated calls for the same sender always resolve to the
// same user: creation runs as a conditional insert against the unique alias
// index, and the name stored on first contact is never updated afterwards.
func (r *Resolver) Resolve(ctx context.Context, channel Channel, senderID, nameHint string) (*database.User, error) {
	alias := Alias(channel, senderID)

	user, err := r.store.FindUserByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	name := nameHint
	if name == "" {
		name = channel.displayName(senderID)
	}

	if _, err := r.store.InsertUser(ctx, alias, name); err != nil {
		return nil, err
	}

	// Re-read rather than trusting our own insert: under a concurrent first
	// contact the alias owner may be the other request's row.
	user, err = r.store.FindUserByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %q missing after insert", alias)
	}

	r.logger.DebugContext(ctx, "sender resolved", "alias", alias, "user_id", user.ID)
	return user, nil
}
