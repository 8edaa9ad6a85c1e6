package telephony

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"atgateway/internal/ivr"

	"github.com/gin-gonic/gin"
)

func newVoiceRouter(h VoiceWebhookHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r.Group("/voice", RecoverWithFallback()))
	return r
}

func postForm(r http.Handler, target string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Host = "abc123.ngrok.app"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestActions_InactiveCallGetsEmptyEnvelope(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{})

	w := postForm(r, "/voice/actions", url.Values{"isActive": {"0"}, "sessionId": {"ATVId_1"}, "durationInSeconds": {"42"}}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("expected xml content type, got %q", ct)
	}
	if !strings.HasSuffix(w.Body.String(), "<Response></Response>") {
		t.Fatalf("expected empty envelope, got %s", w.Body.String())
	}
}

func TestActions_FirstTouchUsesForwardedOrigin(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{})

	w := postForm(r, "/voice/actions", url.Values{"isActive": {"1"}, "sessionId": {"ATVId_1"}}, map[string]string{
		"X-Forwarded-Proto": "https",
		"X-Forwarded-Host":  "gw.example.com",
	})

	body := w.Body.String()
	if !strings.Contains(body, `callbackUrl="https://gw.example.com/voice/lang?v=1"`) {
		t.Fatalf("expected forwarded origin in callback, got %s", body)
	}
	if !strings.Contains(body, "<Redirect>https://gw.example.com/voice/actions?attempt=2&amp;v=1</Redirect>") {
		t.Fatalf("expected retry redirect, got %s", body)
	}
}

func TestActions_PublicBaseURLWins(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{PublicBaseURL: "https://voice.example.org"})

	w := postForm(r, "/voice/actions", url.Values{"isActive": {"1"}}, map[string]string{"X-Forwarded-Host": "ignored.example.com"})

	if !strings.Contains(w.Body.String(), `callbackUrl="https://voice.example.org/voice/lang?v=1"`) {
		t.Fatalf("expected configured origin, got %s", w.Body.String())
	}
}

func TestLangThenDigits_SwahiliRoundTrip(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{})

	w := postForm(r, "/voice/lang", url.Values{"isActive": {"1"}, "dtmfDigits": {"2"}}, nil)

	var doc struct {
		GetDigits []struct {
			CallbackURL string `xml:"callbackUrl,attr"`
		} `xml:"GetDigits"`
	}
	if err := xml.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, w.Body.String())
	}
	if len(doc.GetDigits) == 0 {
		t.Fatalf("expected digit collection, got %s", w.Body.String())
	}

	cb, err := url.Parse(doc.GetDigits[0].CallbackURL)
	if err != nil {
		t.Fatalf("parse callback: %v", err)
	}
	if cb.Scheme != "https" || cb.Host != "abc123.ngrok.app" || cb.Path != "/voice/digits" {
		t.Fatalf("unexpected callback %q", doc.GetDigits[0].CallbackURL)
	}
	if cb.Query().Get("lang") != "sw" {
		t.Fatalf("expected lang=sw in callback, got %q", cb.RawQuery)
	}

	w = postForm(r, cb.RequestURI(), url.Values{"isActive": {"1"}, "dtmfDigits": {"3"}}, nil)
	if !strings.Contains(w.Body.String(), "Mawakala wetu wote") {
		t.Fatalf("expected swahili agent text, got %s", w.Body.String())
	}
}

func TestDigits_MissingDigitEndsCall(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{})

	w := postForm(r, "/voice/digits?v=1&lang=en", url.Values{"isActive": {"1"}}, nil)

	body := w.Body.String()
	if !strings.Contains(body, "Ending the call now") || !strings.Contains(body, "<Hangup>") {
		t.Fatalf("expected farewell, got %s", body)
	}
}

func TestDigits_HostileInputStaysWellFormed(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{})

	w := postForm(r, "/voice/digits?v=1&lang=%3C%2FSay%3E", url.Values{"isActive": {"1"}, "dtmfDigits": {"</Say><Dial/>4"}}, map[string]string{
		"X-Forwarded-Host": `evil.example.com"><Hangup`,
	})

	if err := xml.Unmarshal(w.Body.Bytes(), new(struct{})); err != nil {
		t.Fatalf("malformed markup: %v\n%s", err, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "<Dial") {
		t.Fatalf("carrier input leaked into markup: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Invalid choice") {
		t.Fatalf("expected invalid choice for injected digits, got %s", w.Body.String())
	}

	for _, digits := range []string{"15", "19", "a5", "42"} {
		w := postForm(r, "/voice/digits?v=1&lang=en", url.Values{"isActive": {"1"}, "dtmfDigits": {digits}}, nil)
		body := w.Body.String()
		if !strings.Contains(body, "Invalid choice. Goodbye.") || strings.Contains(body, "<Redirect>") {
			t.Fatalf("%q: expected invalid choice, got %s", digits, body)
		}
	}
}

func TestGetActions_RepeatRedirect(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{PublicBaseURL: "https://gw.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/voice/actions?dtmfDigits=4&lang=sw&v=1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "<Redirect>https://gw.example.com/voice/menu?lang=sw&amp;v=1</Redirect>") {
		t.Fatalf("expected redirect to menu, got %s", w.Body.String())
	}
}

func TestMenu_RendersFromQuery(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{})

	w := postForm(r, "/voice/menu?v=1&lang=sw", url.Values{"isActive": {"1"}}, nil)

	if !strings.Contains(w.Body.String(), "Tafadhali chagua huduma.") {
		t.Fatalf("expected swahili menu, got %s", w.Body.String())
	}
}

func TestEvents_AlwaysOK(t *testing.T) {
	r := newVoiceRouter(VoiceWebhookHandler{})

	w := postForm(r, "/voice/events", url.Values{"sessionId": {"ATVId_1"}, "status": {"Success"}}, nil)
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("expected plain OK, got %d %q", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/voice/events", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("expected plain OK for bad body, got %d %q", w.Code, w.Body.String())
	}
}

func TestRecoverWithFallback_PanicHangsUpPolitely(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/voice", RecoverWithFallback())
	g.POST("/boom", func(c *gin.Context) {
		panic("render exploded")
	})

	w := postForm(r, "/voice/boom", url.Values{"isActive": {"1"}}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/xml") {
		t.Fatalf("expected xml content type, got %q", w.Header().Get("Content-Type"))
	}
	if w.Body.String() != ivr.Fallback {
		t.Fatalf("expected fallback markup, got %s", w.Body.String())
	}
	if err := xml.Unmarshal(w.Body.Bytes(), new(struct{})); err != nil {
		t.Fatalf("fallback markup malformed: %v", err)
	}
}
