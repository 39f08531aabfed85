package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edgard/triplog/internal/identity"
	"github.com/edgard/triplog/internal/ingest"
)

// telegramSecretHeader is the header Telegram echoes the webhook secret in.
const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type telegramUpdate struct {
	Message *telegramMessage `json:"message"`
}

type telegramMessage struct {
	Text string        `json:"text"`
	From *telegramUser `json:"from"`
}

type telegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// displayName assembles the sender name from first/last name, falling back
// to the username when both are absent.
func (u *telegramUser) displayName() string {
	parts := make([]string, 0, 2)
	if u.FirstName != "" {
		parts = append(parts, u.FirstName)
	}
	if u.LastName != "" {
		parts = append(parts, u.LastName)
	}
	if len(parts) == 0 {
		return u.Username
	}
	return strings.Join(parts, " ")
}

// telegramWebhook handles Telegram update callbacks. Bot platforms expect
// webhook acks to be HTTP 200; failures are reported in-band via {ok:false}.
// Updates without text or sender (edits, stickers, reactions) are
// acknowledged as ignored, not treated as failures.
func (h *handler) telegramWebhook(c *gin.Context) {
	if c.ContentType() != "application/json" {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"ok": false, "error": "unsupported content type"})
		return
	}

	if h.cfg.TelegramSecret != "" && c.GetHeader(telegramSecretHeader) != h.cfg.TelegramSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}

	var update telegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid JSON payload"})
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.ID == 0 || strings.TrimSpace(msg.Text) == "" {
		c.JSON(http.StatusOK, gin.H{"ok": true, "result": "ignored"})
		return
	}

	summary, err := h.ingest.Ingest(c.Request.Context(), ingest.Message{
		Channel:    identity.ChannelTelegram,
		SenderID:   strconv.FormatInt(msg.From.ID, 10),
		SenderName: msg.From.displayName(),
		Text:       msg.Text,
	})
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "telegram ingest failed",
			"request_id", getRequestID(c), "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "Failed to log trip"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "result": summary})
}
