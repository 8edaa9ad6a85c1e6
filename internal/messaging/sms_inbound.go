package messaging

import (
	"context"
	"net/http"
	"strings"
	"time"

	"atgateway/internal/carrier"
	"atgateway/internal/reply"
	"atgateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	defaultReplyTimeout   = 10 * time.Second
	defaultProcessTimeout = 30 * time.Second
)

// SMSSender is the slice of the carrier used for replies.
type SMSSender interface {
	SendSMS(ctx context.Context, req carrier.SMSRequest) (*carrier.Result, error)
}

// InboundSMS is what the carrier posts for a 2-way message.
type InboundSMS struct {
	Text   string `form:"text" json:"text"`
	From   string `form:"from" json:"from"`
	To     string `form:"to" json:"to"`
	Date   string `form:"date" json:"date"`
	ID     string `form:"id" json:"id"`
	LinkID string `form:"linkId" json:"linkId"`
}

// InboundSMSHandler answers inbound messages with a generated reply, or an
// acknowledgement when generation fails. The carrier always gets a 200.
type InboundSMSHandler struct {
	Sender  SMSSender
	Replies reply.Generator

	// Shortcode is the reply sender; empty means reply from the number that was texted.
	Shortcode string

	ReplyTimeout   time.Duration
	ProcessTimeout time.Duration
}

func (h InboundSMSHandler) Inbound(c *gin.Context) {
	log := logger.FromGin(c)

	var in InboundSMS
	if err := c.ShouldBind(&in); err != nil {
		log.Warn("inbound sms parse failed", "err", err)
		c.String(http.StatusOK, "OK")
		return
	}
	in.From = strings.TrimSpace(in.From)
	debug := c.Query("debug") == "1" || c.GetHeader("x-debug") == "1"

	log.Info("inbound sms", "id", in.ID, "from", in.From, "to", in.To, "date", in.Date, "link_id", in.LinkID, "debug", debug)

	var aiText string
	// an empty body gets no reply, not even "Ack: "
	if in.From != "" && in.Text != "" {
		budget := h.ProcessTimeout
		if budget <= 0 {
			budget = defaultProcessTimeout
		}
		// the reply must go out even if the carrier hangs up on us
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), budget)
		aiText = h.respond(ctx, in)
		cancel()
	}

	if debug && aiText != "" {
		c.JSON(http.StatusOK, gin.H{"ok": true, "aiText": aiText})
		return
	}
	c.String(http.StatusOK, "OK")
}

// respond sends the generated reply, falling back to an acknowledgement. It returns the
// generated text, if any.
func (h InboundSMSHandler) respond(ctx context.Context, in InboundSMS) string {
	log := logger.From(ctx)

	aiText, err := h.generate(ctx, in)
	if err == nil {
		log.Info("ai reply", "to", in.From, "link_id", in.LinkID, "chars", len(aiText))
		if err = h.send(ctx, in, aiText); err == nil {
			return aiText
		}
		log.Warn("ai reply send failed; falling back to ack", "err", err)
	} else {
		log.Warn("ai reply failed; falling back to ack", "err", err)
	}

	if err := h.send(ctx, in, reply.Fallback(in.Text)); err != nil {
		log.Warn("fallback reply failed", "err", err)
	}
	return aiText
}

func (h InboundSMSHandler) generate(ctx context.Context, in InboundSMS) (string, error) {
	if h.Replies == nil {
		return "", reply.ErrDisabled
	}
	timeout := h.ReplyTimeout
	if timeout <= 0 {
		timeout = defaultReplyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return h.Replies.Reply(ctx, in.Text, in.From)
}

func (h InboundSMSHandler) send(ctx context.Context, in InboundSMS, message string) error {
	from := h.Shortcode
	if from == "" {
		from = strings.TrimSpace(in.To)
	}
	_, err := h.Sender.SendSMS(ctx, carrier.SMSRequest{
		To:      carrier.Recipients{in.From},
		Message: message,
		From:    from,
		LinkID:  in.LinkID,
	})
	return err
}
