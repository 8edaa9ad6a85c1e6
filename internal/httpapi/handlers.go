package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"atgateway/internal/audit"
	"atgateway/internal/carrier"
	"atgateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WhatsAppSender is the outbound WhatsApp relay.
type WhatsAppSender interface {
	Configured() bool
	Send(ctx context.Context, req carrier.WhatsAppRequest) (*carrier.Result, error)
}

// Handlers groups the outbound HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call the carrier, return JSON.
type Handlers struct {
	Carrier  carrier.Carrier
	WhatsApp WhatsAppSender

	// Shortcode is the default SMS sender; replies to it reach the inbound webhook.
	Shortcode string
	// VoiceNumber is the default caller id.
	VoiceNumber string

	// Audit is optional.
	Audit *audit.Service
}

// --- SMS ---

type sendSMSRequest struct {
	To      carrier.Recipients `json:"to" binding:"required,min=1,dive,msisdn"`
	Message string             `json:"message" binding:"required"`
	From    string             `json:"from"`
}

func (h Handlers) SendSMS(c *gin.Context) {
	log := logger.FromGin(c)

	var req sendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bindError(err, "to and message are required")})
		return
	}

	from := req.From
	if from == "" {
		from = h.Shortcode
	}
	if from == "" {
		log.Warn("sms send without a 2-way sender; replies will not reach the inbound webhook. Set AT_FROM_SHORTCODE or pass from")
	}

	res, err := h.Carrier.SendSMS(c.Request.Context(), carrier.SMSRequest{To: req.To, Message: req.Message, From: from})
	h.record(c, audit.OperationSMS, len(req.To), res, err)
	if err != nil {
		log.Error("sms send failed", "err", err, "recipients", len(req.To))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to send SMS", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "response": res.Payload})
}

type bulkSMSRequest struct {
	Recipients carrier.Recipients `json:"recipients" binding:"required,min=1,dive,msisdn"`
	Message    string             `json:"message" binding:"required"`
	From       string             `json:"from"`
}

func (h Handlers) SendBulkSMS(c *gin.Context) {
	log := logger.FromGin(c)

	var req bulkSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bindError(err, "recipients and message are required")})
		return
	}

	res, err := h.Carrier.SendSMS(c.Request.Context(), carrier.SMSRequest{To: req.Recipients, Message: req.Message, From: req.From})
	h.record(c, audit.OperationBulkSMS, len(req.Recipients), res, err)
	if err != nil {
		log.Error("bulk sms failed", "err", err, "recipients", len(req.Recipients))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to send bulk SMS", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": len(req.Recipients), "response": res.Payload})
}

// --- Airtime ---

type airtimeRequest struct {
	PhoneNumber  string          `json:"phoneNumber" binding:"required,msisdn"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode" binding:"omitempty,len=3,alpha"`
}

func (h Handlers) SendAirtime(c *gin.Context) {
	log := logger.FromGin(c)

	var req airtimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bindError(err, "phoneNumber and amount are required")})
		return
	}
	if req.Amount.IsZero() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "phoneNumber and amount are required"})
		return
	}
	if req.Amount.IsNegative() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": carrier.ErrInvalidAmount.Error()})
		return
	}

	res, err := h.Carrier.SendAirtime(c.Request.Context(), carrier.AirtimeRequest{
		PhoneNumber:  req.PhoneNumber,
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
	})
	h.record(c, audit.OperationAirtime, 1, res, err)
	if err != nil {
		log.Error("airtime send failed", "err", err, "phone", req.PhoneNumber)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to send airtime", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "response": res.Payload})
}

// --- Voice ---

type callRequest struct {
	CallFrom string             `json:"callFrom" binding:"omitempty,msisdn"`
	CallTo   carrier.Recipients `json:"callTo" binding:"required,min=1,dive,msisdn"`
}

func (h Handlers) Call(c *gin.Context) {
	log := logger.FromGin(c)

	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bindError(err, "callFrom and callTo are required")})
		return
	}
	from := req.CallFrom
	if from == "" {
		from = h.VoiceNumber
	}
	if from == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "callFrom and callTo are required"})
		return
	}

	res, err := h.Carrier.Call(c.Request.Context(), carrier.CallRequest{From: from, To: req.CallTo})
	h.record(c, audit.OperationCall, len(req.CallTo), res, err)
	if err != nil {
		log.Error("voice call failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate call", "details": err.Error()})
		return
	}

	if res.Via == carrier.ViaREST {
		c.JSON(http.StatusOK, gin.H{"ok": true, "via": carrier.ViaREST, "data": res.Payload})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "via": carrier.ViaSDK, "result": res.Payload})
}

// --- WhatsApp ---

type whatsAppRequest struct {
	To       carrier.Recipients `json:"to" binding:"required,min=1,dive,msisdn"`
	Message  string             `json:"message"`
	Template json.RawMessage    `json:"template"`
	MediaURL string             `json:"mediaUrl" binding:"omitempty,url"`
}

func (h Handlers) SendWhatsApp(c *gin.Context) {
	log := logger.FromGin(c)

	if h.WhatsApp == nil || !h.WhatsApp.Configured() {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": carrier.ErrWhatsAppNotConfigured.Error()})
		return
	}

	var req whatsAppRequest
	if err := c.ShouldBindJSON(&req); err != nil || (strings.TrimSpace(req.Message) == "" && len(req.Template) == 0) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bindError(err, "to and (message or template) are required")})
		return
	}

	res, err := h.WhatsApp.Send(c.Request.Context(), carrier.WhatsAppRequest{
		To:       req.To,
		Message:  req.Message,
		Template: req.Template,
		MediaURL: req.MediaURL,
	})
	h.record(c, audit.OperationWhatsApp, len(req.To), res, err)
	if err != nil {
		log.Error("whatsapp send failed", "err", err)
		status := http.StatusInternalServerError
		if errors.Is(err, carrier.ErrEmptyMessage) || errors.Is(err, carrier.ErrNoRecipients) {
			status = http.StatusBadRequest
		}
		c.AbortWithStatusJSON(status, gin.H{"error": "Failed to send WhatsApp message", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "response": res.Payload})
}
