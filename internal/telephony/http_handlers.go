package telephony

import (
	"log/slog"
	"net/http"

	"atgateway/internal/ivr"
	"atgateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// VoiceWebhookHandler answers the carrier's voice callbacks.
// Each request is handled on its own: the menu position is the path that was hit and
// the language travels in the callback query. Every answer is 200 with valid markup.
type VoiceWebhookHandler struct {
	// PublicBaseURL overrides the callback origin derived from request headers.
	PublicBaseURL string
}

// Actions is the first touch of a call, and the summary target once it ends.
func (h VoiceWebhookHandler) Actions(c *gin.Context) {
	log := logger.FromGin(c)

	ev, ok := h.parse(c, log)
	if !ok {
		return
	}
	if !ev.Active() {
		log.Info("voice call summary", ev.LogAttrs()...)
		respond(c, log)(ivr.RenderEmpty())
		return
	}

	st := ivr.ParseState(c.Request.URL.Query())
	cb := h.callbacks(c)
	digits := ivr.SanitizeDigits(ev.Digits)

	if digits == "" {
		log.Info("voice language prompt", "session_id", ev.SessionID, "attempt", st.Attempt, "stage", ivr.StageLanguageSelect.String())
		respond(c, log)(ivr.RenderLanguagePrompt(cb, st.Attempt))
		return
	}

	log.Info("voice selection on actions", "session_id", ev.SessionID, "digits", digits, "stage", ivr.StageOf(digits).String())
	respond(c, log)(ivr.RenderSelectionResult(cb, digits, st.Lang))
}

// Lang receives the language key press and plays the main menu in that language.
func (h VoiceWebhookHandler) Lang(c *gin.Context) {
	log := logger.FromGin(c)

	ev, ok := h.parse(c, log)
	if !ok {
		return
	}
	if !ev.Active() {
		respond(c, log)(ivr.RenderEmpty())
		return
	}

	lang := ivr.LanguageFromDigit(ev.Digits)
	log.Info("voice language selected", "session_id", ev.SessionID, "lang", string(lang), "stage", ivr.StageMainMenu.String())
	respond(c, log)(ivr.RenderMainMenu(h.callbacks(c), lang))
}

// Menu replays the main menu; it is the redirect target of the repeat option.
func (h VoiceWebhookHandler) Menu(c *gin.Context) {
	log := logger.FromGin(c)

	ev, ok := h.parse(c, log)
	if !ok {
		return
	}
	if !ev.Active() {
		respond(c, log)(ivr.RenderEmpty())
		return
	}

	st := ivr.ParseState(c.Request.URL.Query())
	respond(c, log)(ivr.RenderMainMenu(h.callbacks(c), st.Lang))
}

// Digits answers a main menu key press. No digit means the caller let the prompt lapse.
func (h VoiceWebhookHandler) Digits(c *gin.Context) {
	log := logger.FromGin(c)

	ev, ok := h.parse(c, log)
	if !ok {
		return
	}
	if !ev.Active() {
		respond(c, log)(ivr.RenderEmpty())
		return
	}

	digits := ivr.SanitizeDigits(ev.Digits)
	if digits == "" {
		digits = "5"
	}
	st := ivr.ParseState(c.Request.URL.Query())

	log.Info("voice menu selection", "session_id", ev.SessionID, "digits", digits, "lang", string(st.Lang), "stage", ivr.StageOf(digits).String())
	respond(c, log)(ivr.RenderSelectionResult(h.callbacks(c), digits, st.Lang))
}

// Events logs call progress notifications and always acknowledges.
func (h VoiceWebhookHandler) Events(c *gin.Context) {
	log := logger.FromGin(c)

	ev, err := ParseVoiceEvent(c.Request)
	if err != nil {
		log.Warn("voice event parse failed", "err", err)
	} else {
		log.Info("voice event", ev.LogAttrs()...)
	}
	c.String(http.StatusOK, "OK")
}

// RecoverWithFallback turns a panic on a voice route into a polite hangup instead of a 5xx.
func RecoverWithFallback() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.FromGin(c).Error("voice webhook panic", "err", err, "path", c.Request.URL.Path)
		c.Header("Content-Type", "application/xml")
		c.String(http.StatusOK, ivr.Fallback)
		c.Abort()
	})
}

func (h VoiceWebhookHandler) parse(c *gin.Context, log *slog.Logger) (VoiceEvent, bool) {
	ev, err := ParseVoiceEvent(c.Request)
	if err != nil {
		log.Warn("voice webhook parse failed", "err", err, "path", c.Request.URL.Path)
		respond(c, log)(ivr.RenderFarewell(ivr.English))
		return VoiceEvent{}, false
	}
	return ev, true
}

func (h VoiceWebhookHandler) callbacks(c *gin.Context) ivr.Callbacks {
	return ivr.NewCallbacks(CallbackOrigin(c.Request, h.PublicBaseURL))
}

// respond writes rendered markup, or the fallback hangup when rendering failed.
func respond(c *gin.Context, log *slog.Logger) func(string, error) {
	return func(markup string, err error) {
		if err != nil {
			log.Error("voice markup render failed", "err", err)
			markup = ivr.Fallback
		}
		c.Header("Content-Type", "application/xml")
		c.String(http.StatusOK, markup)
	}
}

// Register mounts the voice callbacks on g for both POST and GET.
func (h VoiceWebhookHandler) Register(g *gin.RouterGroup) {
	routes := []struct {
		path    string
		handler gin.HandlerFunc
	}{
		{"/actions", h.Actions},
		{"/lang", h.Lang},
		{"/menu", h.Menu},
		{"/digits", h.Digits},
		{"/events", h.Events},
	}
	for _, rt := range routes {
		g.POST(rt.path, rt.handler)
		g.GET(rt.path, rt.handler)
	}
}
