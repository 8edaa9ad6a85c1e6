package httpapi

import (
	"atgateway/internal/audit"
	"atgateway/internal/auth"
	"atgateway/internal/carrier"
	"atgateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// record appends the outcome of an outbound operation to the audit trail, if one is set.
func (h Handlers) record(c *gin.Context, op audit.Operation, recipients int, res *carrier.Result, err error) {
	if h.Audit == nil {
		return
	}
	ctx := c.Request.Context()
	clientID, _ := auth.ClientID(ctx)

	var via string
	if res != nil {
		via = res.Via
	}
	e := audit.Event{
		Operation:  op,
		ClientID:   clientID,
		IPAddress:  c.ClientIP(),
		RequestID:  c.Writer.Header().Get("X-Request-Id"),
		Recipients: recipients,
	}
	if aerr := h.Audit.Record(ctx, e, via, err); aerr != nil {
		logger.FromGin(c).Warn("audit append failed", "err", aerr, "operation", op)
	}
}
