// Package ussd serves the USSD menu callback. Responses are plain text prefixed with
// CON when the session continues and END when it closes.
package ussd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"atgateway/internal/carrier"
	"atgateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	rootMenu        = "CON Welcome to AT Sandbox USSD\n1. Balance\n2. Buy Airtime"
	balanceReply    = "END Your balance is KES 123.45 (sandbox)"
	amountPrompt    = "CON Enter amount:"
	invalidChoice   = "END Invalid choice"
	invalidAmount   = "END Invalid amount"
	purchaseFailed  = "END Airtime purchase failed. Please try again later."
	purchaseTimeout = 5 * time.Second
)

// AirtimeSender tops up the dialing number on a purchase.
type AirtimeSender interface {
	SendAirtime(ctx context.Context, req carrier.AirtimeRequest) (*carrier.Result, error)
}

type Request struct {
	SessionID   string `form:"sessionId" json:"sessionId"`
	ServiceCode string `form:"serviceCode" json:"serviceCode"`
	PhoneNumber string `form:"phoneNumber" json:"phoneNumber"`
	Text        string `form:"text" json:"text"`
}

type Handler struct {
	// Airtime is optional; without it purchases are only confirmed.
	Airtime AirtimeSender
	// MaxAmount caps a real purchase. Zero means no purchase is sent at all.
	MaxAmount decimal.Decimal
}

func (h Handler) Callback(c *gin.Context) {
	log := logger.FromGin(c)

	var req Request
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("ussd parse failed", "err", err)
		c.String(http.StatusOK, invalidChoice)
		return
	}
	log.Info("ussd", "session_id", req.SessionID, "service_code", req.ServiceCode, "phone", req.PhoneNumber, "text", req.Text)

	c.String(http.StatusOK, h.Respond(c.Request.Context(), req))
}

// Respond maps the accumulated input (choices joined by *) to the next screen.
func (h Handler) Respond(ctx context.Context, req Request) string {
	text := strings.TrimSpace(req.Text)

	switch {
	case text == "":
		return rootMenu
	case text == "1":
		return balanceReply
	case text == "2":
		return amountPrompt
	case strings.HasPrefix(text, "2*"):
		return h.purchase(ctx, req.PhoneNumber, strings.Split(text, "*")[1])
	default:
		return invalidChoice
	}
}

func (h Handler) purchase(ctx context.Context, phone, raw string) string {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !amount.IsPositive() {
		return invalidAmount
	}
	amount = amount.Round(2)

	if h.Airtime != nil {
		if !h.MaxAmount.IsPositive() || amount.GreaterThan(h.MaxAmount) {
			return fmt.Sprintf("END Maximum airtime purchase is %s %s", carrier.DefaultCurrency, h.MaxAmount.String())
		}

		ctx, cancel := context.WithTimeout(ctx, purchaseTimeout)
		defer cancel()

		_, err := h.Airtime.SendAirtime(ctx, carrier.AirtimeRequest{
			PhoneNumber:  phone,
			Amount:       amount,
			CurrencyCode: carrier.DefaultCurrency,
		})
		if err != nil {
			logger.From(ctx).Warn("ussd airtime purchase failed", "phone", phone, "amount", amount.String(), "err", err)
			return purchaseFailed
		}
		return fmt.Sprintf("END Airtime purchase of %s %s processed.", carrier.DefaultCurrency, amount.String())
	}
	return fmt.Sprintf("END Airtime purchase of %s %s processed (sandbox).", carrier.DefaultCurrency, amount.String())
}
