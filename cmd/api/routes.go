package main

import (
	"net/http"

	"atgateway/internal/audit"
	"atgateway/internal/auth"
	"atgateway/internal/carrier"
	"atgateway/internal/config"
	"atgateway/internal/httpapi"
	"atgateway/internal/messaging"
	"atgateway/internal/rbac"
	"atgateway/internal/reply"
	"atgateway/internal/telephony"
	"atgateway/internal/ussd"

	"github.com/gin-gonic/gin"
)

type deps struct {
	cfg      config.Config
	carrier  carrier.Carrier
	whatsapp *carrier.WhatsApp
	replies  reply.Generator

	// auth is nil when API_JWT_SECRET is unset.
	auth  *auth.Manager
	audit *audit.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d deps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "username": d.cfg.Carrier.Username, "sandbox": d.cfg.IsSandbox()})
	})

	registerWebhookRoutes(r, d)
	registerOutboundRoutes(r, d)
}

// Carrier callbacks are public and must always answer 200.
func registerWebhookRoutes(r *gin.Engine, d deps) {
	voice := r.Group("/voice")
	voice.Use(telephony.RecoverWithFallback())
	telephony.VoiceWebhookHandler{PublicBaseURL: d.cfg.App.PublicBaseURL}.Register(voice)

	sms := messaging.InboundSMSHandler{
		Sender:       d.carrier,
		Replies:      d.replies,
		Shortcode:    d.cfg.Carrier.FromShortcode,
		ReplyTimeout: d.cfg.AI.Timeout,
	}
	r.POST("/sms/inbound", sms.Inbound)

	wa := messaging.WhatsAppWebhookHandler{SecretConfigured: d.cfg.WhatsApp.WebhookSecret != ""}
	r.POST("/whatsapp/webhook", wa.Webhook)

	// real purchases need an explicit opt-in; otherwise the menu only confirms
	u := ussd.Handler{}
	if d.cfg.USSDAirtimeEnabled() {
		u = ussd.Handler{Airtime: d.carrier, MaxAmount: d.cfg.USSD.MaxAirtime}
	}
	r.POST("/ussd", u.Callback)
}

func registerOutboundRoutes(r *gin.Engine, d deps) {
	h := httpapi.Handlers{
		Carrier:     d.carrier,
		WhatsApp:    d.whatsapp,
		Shortcode:   d.cfg.Carrier.FromShortcode,
		VoiceNumber: d.cfg.Carrier.VoiceNumber,
		Audit:       d.audit,
	}

	api := r.Group("")
	scope := func(string) gin.HandlerFunc { return func(c *gin.Context) { c.Next() } }
	if d.auth != nil {
		api.Use(auth.RequireAPIToken(d.auth))
		scope = rbac.RequireScope
	}

	api.POST("/sms/send", scope(rbac.ScopeSMS), h.SendSMS)
	api.POST("/sms/bulk", scope(rbac.ScopeSMS), h.SendBulkSMS)
	api.POST("/airtime/send", scope(rbac.ScopeAirtime), h.SendAirtime)
	api.POST("/voice/call", scope(rbac.ScopeVoice), h.Call)
	api.POST("/whatsapp/send", scope(rbac.ScopeWhatsApp), h.SendWhatsApp)
}
