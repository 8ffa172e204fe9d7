// Package webhook provides the inbound payment webhook: the only path by
// which a job reaches Completed. The payment provider calls it when the
// customer settles; the event is relayed onto the bus for the lifecycle
// engine to reconcile against.
package webhook

import (
	"crypto/subtle"
	"net/http"

	"fieldtech_backend/internal/events"
	"fieldtech_backend/platform/httpkit"
	"fieldtech_backend/platform/logger"
	"fieldtech_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const secretHeader = "X-Webhook-Secret"

// PaymentSettledRequest is the provider's settlement notification. Amount
// is in the smallest currency unit.
type PaymentSettledRequest struct {
	AppointmentID string `json:"appointmentId" validate:"required"`
	Amount        int64  `json:"amount" validate:"gt=0"`
}

// Handler handles inbound webhook requests.
type Handler struct {
	secret string
	bus    events.Bus
	val    *validator.Validator
	log    *logger.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(secret string, bus events.Bus, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{secret: secret, bus: bus, val: val, log: log}
}

// SecretAuthMiddleware validates the shared-secret header.
func (h *Handler) SecretAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "webhook not configured"})
			return
		}
		provided := c.GetHeader(secretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
		c.Next()
	}
}

// HandlePaymentSettled handles POST /api/v1/webhook/payment-settled.
func (h *Handler) HandlePaymentSettled(c *gin.Context) {
	var req PaymentSettledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	// Synchronous publish: the provider retries on non-2xx, so a handler
	// failure must surface here rather than vanish on a goroutine.
	err := h.bus.PublishSync(c.Request.Context(), events.PaymentSettled{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: req.AppointmentID,
		Amount:        req.Amount,
	})
	if err != nil {
		h.log.BackendError("relay payment webhook", err)
		httpkit.Error(c, http.StatusInternalServerError, "could not process settlement", nil)
		return
	}

	httpkit.OK(c, gin.H{"received": true})
}
