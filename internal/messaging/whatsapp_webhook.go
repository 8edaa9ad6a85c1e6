package messaging

import (
	"io"
	"net/http"

	"atgateway/pkg/logger"

	"github.com/buger/jsonparser"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// WhatsAppWebhookHandler logs inbound WhatsApp events. It answers 200 OK no matter what,
// including unreadable bodies, so the carrier does not retry.
type WhatsAppWebhookHandler struct {
	// SecretConfigured notes whether a webhook secret is set. Signatures are not verified.
	SecretConfigured bool
}

func (h WhatsAppWebhookHandler) Webhook(c *gin.Context) {
	log := logger.FromGin(c)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Warn("whatsapp webhook read failed", "err", err)
		c.String(http.StatusOK, "OK")
		return
	}

	attrs := []any{
		"signature_present", c.GetHeader("x-signature") != "",
		"secret_configured", h.SecretConfigured,
		"bytes", len(body),
	}
	for _, key := range []string{"type", "event", "status", "from", "to", "messageId"} {
		if v, err := jsonparser.GetString(body, key); err == nil && v != "" {
			attrs = append(attrs, key, v)
		}
	}
	if len(body) <= 4096 {
		attrs = append(attrs, "event_body", string(body))
	}
	log.Info("whatsapp event", attrs...)

	c.String(http.StatusOK, "OK")
}
