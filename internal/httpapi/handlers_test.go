package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"atgateway/internal/audit"
	"atgateway/internal/carrier"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCarrier struct {
	sms     []carrier.SMSRequest
	airtime []carrier.AirtimeRequest
	calls   []carrier.CallRequest

	callResult *carrier.Result
	err        error
}

func (f *fakeCarrier) SendSMS(_ context.Context, req carrier.SMSRequest) (*carrier.Result, error) {
	f.sms = append(f.sms, req)
	if f.err != nil {
		return nil, f.err
	}
	return &carrier.Result{Via: carrier.ViaSDK, Payload: json.RawMessage(`{"SMSMessageData":{"Message":"Sent to 2/2"}}`)}, nil
}

func (f *fakeCarrier) SendAirtime(_ context.Context, req carrier.AirtimeRequest) (*carrier.Result, error) {
	f.airtime = append(f.airtime, req)
	if f.err != nil {
		return nil, f.err
	}
	return &carrier.Result{Via: carrier.ViaSDK, Payload: json.RawMessage(`{"numSent":1}`)}, nil
}

func (f *fakeCarrier) Call(_ context.Context, req carrier.CallRequest) (*carrier.Result, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.callResult != nil {
		return f.callResult, nil
	}
	return &carrier.Result{Via: carrier.ViaSDK, Payload: json.RawMessage(`{"entries":[{"status":"Queued"}]}`)}, nil
}

type fakeWhatsApp struct {
	configured bool
	sent       []carrier.WhatsAppRequest
}

func (f *fakeWhatsApp) Configured() bool { return f.configured }

func (f *fakeWhatsApp) Send(_ context.Context, req carrier.WhatsAppRequest) (*carrier.Result, error) {
	f.sent = append(f.sent, req)
	return &carrier.Result{Via: carrier.ViaREST, Payload: json.RawMessage(`{"status":"sent"}`)}, nil
}

func newRouter(t *testing.T, h Handlers) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	r := gin.New()
	r.POST("/sms/send", h.SendSMS)
	r.POST("/sms/bulk", h.SendBulkSMS)
	r.POST("/airtime/send", h.SendAirtime)
	r.POST("/voice/call", h.Call)
	r.POST("/whatsapp/send", h.SendWhatsApp)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestSendSMS_CommaStringIsOneSend(t *testing.T) {
	fc := &fakeCarrier{}
	r := newRouter(t, Handlers{Carrier: fc, Shortcode: "12345"})

	w := postJSON(r, "/sms/send", `{"to":"+254700000001, +254700000002","message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, fc.sms, 1)
	assert.Equal(t, carrier.Recipients{"+254700000001", "+254700000002"}, fc.sms[0].To)
	assert.Equal(t, "12345", fc.sms[0].From)

	out := decode(t, w)
	assert.Equal(t, true, out["ok"])
	assert.NotNil(t, out["response"])
}

func TestSendSMS_ExplicitFromWins(t *testing.T) {
	fc := &fakeCarrier{}
	r := newRouter(t, Handlers{Carrier: fc, Shortcode: "12345"})

	w := postJSON(r, "/sms/send", `{"to":["+254700000001"],"message":"hi","from":"MYBRAND"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MYBRAND", fc.sms[0].From)
}

func TestSendSMS_Validation(t *testing.T) {
	fc := &fakeCarrier{}
	r := newRouter(t, Handlers{Carrier: fc})

	cases := map[string]struct {
		body string
		want string
	}{
		"missing to":      {`{"message":"hi"}`, "to and message are required"},
		"empty to":        {`{"to":"","message":"hi"}`, "to and message are required"},
		"missing message": {`{"to":"+254700000001"}`, "to and message are required"},
		"blank message":   {`{"to":"+254700000001","message":"  "}`, "to and message are required"},
		"bad number":      {`{"to":"abc","message":"hi"}`, `invalid phone number "abc"`},
		"bad json":        {`{"to":`, "to and message are required"},
	}
	for name, tc := range cases {
		w := postJSON(r, "/sms/send", tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, w.Code)
		}
		assert.Equal(t, tc.want, decode(t, w)["error"], name)
	}
	assert.Empty(t, fc.sms)
}

func TestSendSMS_CarrierFailure(t *testing.T) {
	fc := &fakeCarrier{err: &carrier.SendError{Err: &carrier.ProviderError{StatusCode: 401, Message: "bad key"}}}
	r := newRouter(t, Handlers{Carrier: fc})

	w := postJSON(r, "/sms/send", `{"to":"+254700000001","message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	out := decode(t, w)
	assert.Equal(t, "Failed to send SMS", out["error"])
	assert.Contains(t, out["details"], "bad key")
}

func TestSendBulkSMS(t *testing.T) {
	fc := &fakeCarrier{}
	r := newRouter(t, Handlers{Carrier: fc})

	w := postJSON(r, "/sms/bulk", `{"recipients":["+254700000001","+254700000002","+254700000003"],"message":"promo"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(3), decode(t, w)["count"])
	require.Len(t, fc.sms, 1)

	w = postJSON(r, "/sms/bulk", `{"message":"promo"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "recipients and message are required", decode(t, w)["error"])

	fc.err = errors.New("boom")
	w = postJSON(r, "/sms/bulk", `{"recipients":"+254700000001","message":"promo"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to send bulk SMS", decode(t, w)["error"])
}

func TestSendAirtime(t *testing.T) {
	fc := &fakeCarrier{}
	r := newRouter(t, Handlers{Carrier: fc})

	w := postJSON(r, "/airtime/send", `{"phoneNumber":"+256700000001","amount":"10.5","currencyCode":"UGX"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, fc.airtime, 1)
	assert.Equal(t, "10.5", fc.airtime[0].Amount.String())
	assert.Equal(t, "UGX", fc.airtime[0].CurrencyCode)

	w = postJSON(r, "/airtime/send", `{"phoneNumber":"+254700000001","amount":20}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "20", fc.airtime[1].Amount.String())

	for _, body := range []string{
		`{"phoneNumber":"+254700000001"}`,
		`{"amount":10}`,
		`{"phoneNumber":"+254700000001","amount":0}`,
		`{"phoneNumber":"+254700000001","amount":-5}`,
		`{"phoneNumber":"+254700000001","amount":5,"currencyCode":"SHILLING"}`,
	} {
		w = postJSON(r, "/airtime/send", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, w.Code)
		}
	}
	assert.Len(t, fc.airtime, 2)

	fc.err = &carrier.AirtimeError{Err: &carrier.ProviderError{Message: "Insufficient balance"}}
	w = postJSON(r, "/airtime/send", `{"phoneNumber":"+254700000001","amount":20}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	out := decode(t, w)
	assert.Equal(t, "Failed to send airtime", out["error"])
	assert.Contains(t, out["details"], "Insufficient balance")
}

func TestCall_DefaultsCallerAndReportsPath(t *testing.T) {
	fc := &fakeCarrier{}
	r := newRouter(t, Handlers{Carrier: fc, VoiceNumber: "+254711082000"})

	w := postJSON(r, "/voice/call", `{"callTo":"+254700000001"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, fc.calls, 1)
	assert.Equal(t, "+254711082000", fc.calls[0].From)

	out := decode(t, w)
	assert.Equal(t, "sdk", out["via"])
	assert.NotNil(t, out["result"])

	fc.callResult = &carrier.Result{Via: carrier.ViaREST, Payload: json.RawMessage(`{"queued":true}`)}
	w = postJSON(r, "/voice/call", `{"callFrom":"+254711000000","callTo":["+254700000001"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	out = decode(t, w)
	assert.Equal(t, "rest", out["via"])
	assert.NotNil(t, out["data"])
	assert.Equal(t, "+254711000000", fc.calls[1].From)
}

func TestCall_Validation(t *testing.T) {
	fc := &fakeCarrier{}
	r := newRouter(t, Handlers{Carrier: fc})

	w := postJSON(r, "/voice/call", `{"callTo":"+254700000001"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "callFrom and callTo are required", decode(t, w)["error"])

	w = postJSON(r, "/voice/call", `{"callFrom":"+254711082000"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, fc.calls)
}

// Drives the real carrier client against a server that fails both voice paths.
func TestCall_BothPathsFail(t *testing.T) {
	var mu sync.Mutex
	forms := map[string][2]string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		forms[r.URL.Path] = [2]string{r.PostForm.Get("from"), r.PostForm.Get("to")}
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"errorMessage":"down on ` + r.URL.Path + `"}`))
	}))
	defer srv.Close()

	client := carrier.New(carrier.Options{
		Username:     "sandbox",
		APIKey:       "key",
		VoiceURL:     srv.URL + "/primary",
		VoiceRESTURL: srv.URL + "/rest",
	})
	r := newRouter(t, Handlers{Carrier: client, VoiceNumber: "+254711082000"})

	w := postJSON(r, "/voice/call", `{"callTo":"+254700000001,+254700000002"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	out := decode(t, w)
	assert.Equal(t, "Failed to initiate call", out["error"])
	details, _ := out["details"].(string)
	assert.Contains(t, details, "down on /primary")
	assert.Contains(t, details, "down on /rest")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, forms, 2)
	assert.Equal(t, forms["/primary"], forms["/rest"])
	assert.Equal(t, [2]string{"+254711082000", "+254700000001,+254700000002"}, forms["/rest"])
}

func TestSendWhatsApp(t *testing.T) {
	fc := &fakeCarrier{}

	r := newRouter(t, Handlers{Carrier: fc, WhatsApp: &fakeWhatsApp{}})
	w := postJSON(r, "/whatsapp/send", `{"to":"+254700000001","message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, carrier.ErrWhatsAppNotConfigured.Error(), decode(t, w)["error"])

	wa := &fakeWhatsApp{configured: true}
	r = newRouter(t, Handlers{Carrier: fc, WhatsApp: wa})

	w = postJSON(r, "/whatsapp/send", `{"to":"+254700000001"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "to and (message or template) are required", decode(t, w)["error"])

	w = postJSON(r, "/whatsapp/send", `{"to":"+254700000001","template":{"name":"welcome"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, wa.sent, 1)
	assert.JSONEq(t, `{"name":"welcome"}`, string(wa.sent[0].Template))

	w = postJSON(r, "/whatsapp/send", `{"to":"+254700000001","message":"hi","mediaUrl":"not a url"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_RecordAuditTrail(t *testing.T) {
	repo := audit.NewMemoryRepo()
	fc := &fakeCarrier{}
	r := newRouter(t, Handlers{Carrier: fc, Audit: audit.NewService(repo), VoiceNumber: "+254711082000"})

	w := postJSON(r, "/sms/send", `{"to":"+254700000001,+254700000002","message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	fc.err = errors.New("carrier down")
	w = postJSON(r, "/voice/call", `{"callTo":"+254700000001"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	// rejected input never reaches the carrier and is not audited
	w = postJSON(r, "/sms/send", `{"message":"hi"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	evs := repo.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, audit.OperationSMS, evs[0].Operation)
	assert.Equal(t, audit.OutcomeAccepted, evs[0].Outcome)
	assert.Equal(t, "sdk", evs[0].Via)
	assert.Equal(t, 2, evs[0].Recipients)
	assert.Equal(t, audit.OperationCall, evs[1].Operation)
	assert.Equal(t, audit.OutcomeFailed, evs[1].Outcome)
	assert.Equal(t, "carrier down", evs[1].Error)
}
