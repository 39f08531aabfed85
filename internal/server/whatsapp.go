package server

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edgard/triplog/internal/identity"
	"github.com/edgard/triplog/internal/ingest"
)

const (
	whatsappMissingFields = "Missing required fields."
	whatsappApology       = "Sorry, we couldn't log that trip. Please try again."
)

// twimlResponse is the XML envelope Twilio expects for WhatsApp replies.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// whatsappWebhook handles Twilio's form-encoded WhatsApp callbacks. Per the
// provider convention every business-logic outcome is an HTTP 200 with the
// message carried in-band; only a wrong content type is a transport error.
func (h *handler) whatsappWebhook(c *gin.Context) {
	if c.ContentType() != "application/x-www-form-urlencoded" {
		c.String(http.StatusUnsupportedMediaType, "Unsupported content type")
		return
	}

	body := strings.TrimSpace(c.PostForm("Body"))
	from := strings.TrimSpace(c.PostForm("From"))
	if body == "" || from == "" {
		h.replyTwiML(c, whatsappMissingFields)
		return
	}

	summary, err := h.ingest.Ingest(c.Request.Context(), ingest.Message{
		Channel:  identity.ChannelWhatsApp,
		SenderID: from,
		Text:     body,
	})
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "whatsapp ingest failed",
			"request_id", getRequestID(c), "error", err)
		h.replyTwiML(c, whatsappApology)
		return
	}

	h.replyTwiML(c, summary)
}

func (h *handler) replyTwiML(c *gin.Context, message string) {
	out, err := xml.Marshal(twimlResponse{Message: message})
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to encode twiml reply", "error", err)
		c.String(http.StatusInternalServerError, "encoding error")
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", append([]byte(xml.Header), out...))
}
