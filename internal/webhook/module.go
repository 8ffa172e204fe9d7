package webhook

import (
	"fieldtech_backend/internal/events"
	apphttp "fieldtech_backend/internal/http"
	"fieldtech_backend/platform/config"
	"fieldtech_backend/platform/logger"
	"fieldtech_backend/platform/validator"
)

// Module is the webhook bounded context module.
type Module struct {
	handler *Handler
}

// NewModule creates the webhook module.
func NewModule(cfg config.WebhookConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(cfg.GetPaymentWebhookSecret(), bus, val, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the webhook routes. The endpoint is public at the
// HTTP layer; the shared-secret middleware is the authentication.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhook")
	group.Use(m.handler.SecretAuthMiddleware())
	group.POST("/payment-settled", m.handler.HandlePaymentSettled)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
