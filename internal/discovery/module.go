// Package discovery provides the order discovery domain module: the
// available and accepted job lists with their enrichment pipeline.
package discovery

import (
	"time"

	"fieldtech_backend/internal/discovery/handler"
	"fieldtech_backend/internal/discovery/service"
	"fieldtech_backend/internal/events"
	"fieldtech_backend/internal/geocode"
	apphttp "fieldtech_backend/internal/http"
	"fieldtech_backend/internal/jobapi"
	"fieldtech_backend/internal/servicenames"
	"fieldtech_backend/platform/logger"
	"fieldtech_backend/platform/retry"
	"fieldtech_backend/platform/validator"
)

// Module represents the discovery domain module.
type Module struct {
	handler  *handler.Handler
	Pipeline *service.Pipeline
}

// Options configures the discovery module.
type Options struct {
	// RadiusKm bounds the available-jobs search around the device fix.
	RadiusKm float64
	// DefaultRegion is the region hint for customer phone normalization.
	DefaultRegion string
}

// NewModule creates the discovery module with all dependencies wired.
func NewModule(client *jobapi.Client, geocoder *geocode.Cache, bus events.Bus, val *validator.Validator, log *logger.Logger, opts Options) *Module {
	names := servicenames.NewCache(client, log)
	policy := retry.NewPolicy(2, 2*time.Second)
	policy.OnRetry = func(attempt int, err error) {
		log.BackendError("discovery refresh retry", err)
	}

	pipeline := service.NewPipeline(client, names, geocoder, policy, bus, log, opts.RadiusKm, opts.DefaultRegion)

	return &Module{
		handler:  handler.New(pipeline, val),
		Pipeline: pipeline,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "discovery"
}

// RegisterRoutes registers the module's routes under /api/v1/orders.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	orders := ctx.Protected.Group("/orders")
	m.handler.RegisterRoutes(orders)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
