package messaging

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWhatsAppWebhook_AlwaysOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/whatsapp/webhook", WhatsAppWebhookHandler{SecretConfigured: true}.Webhook)

	for _, body := range []string{
		`{"type":"message","from":"+254711000001","text":"hi"}`,
		`{broken`,
		``,
	} {
		req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-signature", "sig")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "body %q", body)
		assert.Equal(t, "OK", w.Body.String(), "body %q", body)
	}
}
