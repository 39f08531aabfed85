// Package telegram manages the bot's webhook registration against the
// Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
)

// webhookPath is where the server mounts the Telegram adapter.
const webhookPath = "/webhook/telegram"

// Webhook registers this deployment's public URL with Telegram so updates
// are delivered to the ingestion endpoint instead of being long-polled.
type Webhook struct {
	token   string
	secret  string
	baseURL string
	logger  *slog.Logger
}

// NewWebhook creates a webhook manager. baseURL is the public base of this
// deployment (scheme + host); secret, when non-empty, is sent by Telegram
// on every update and checked by the webhook handler.
func NewWebhook(token, secret, baseURL string, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Webhook{
		token:   token,
		secret:  secret,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "telegram_webhook"),
	}
}

// URL returns the full webhook URL registered with Telegram.
func (w *Webhook) URL() string {
	return w.baseURL + webhookPath
}

// Register points the bot's webhook at this deployment. Only message
// updates are requested; pending updates are kept.
func (w *Webhook) Register(ctx context.Context) error {
	b, err := bot.New(w.token, bot.WithSkipGetMe())
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}

	ok, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:                w.URL(),
		SecretToken:        w.secret,
		AllowedUpdates:     []string{"message"},
		DropPendingUpdates: false,
	})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	if !ok {
		return fmt.Errorf("telegram rejected webhook %s", w.URL())
	}

	info, err := b.GetWebhookInfo(ctx)
	if err != nil {
		// Registration already succeeded; the info call is informational.
		w.logger.WarnContext(ctx, "failed to read webhook info", "error", err)
	} else {
		w.logger.InfoContext(ctx, "webhook registered",
			"url", info.URL,
			"pending_updates", info.PendingUpdateCount,
			"secret_configured", w.secret != "")
	}

	return nil
}
