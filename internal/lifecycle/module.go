// Package lifecycle provides the job lifecycle domain module: loading a
// job's reconciled state and driving its status transitions.
package lifecycle

import (
	"fieldtech_backend/internal/apptcache"
	"fieldtech_backend/internal/events"
	apphttp "fieldtech_backend/internal/http"
	"fieldtech_backend/internal/jobapi"
	"fieldtech_backend/internal/lifecycle/handler"
	"fieldtech_backend/internal/lifecycle/service"
	"fieldtech_backend/internal/media"
	"fieldtech_backend/internal/reconcile"
	"fieldtech_backend/platform/logger"
	"fieldtech_backend/platform/validator"
)

// Module represents the lifecycle domain module.
type Module struct {
	handler *handler.Handler
	Engine  *service.Engine
}

// NewModule creates the lifecycle module with all dependencies wired. It
// subscribes the engine to payment-settled events so completion flows in
// from the webhook rather than from client requests.
func NewModule(client *jobapi.Client, pointers *apptcache.Store, mediaSvc *media.Service, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	reconciler := reconcile.New(client, pointers, log)
	engine := service.NewEngine(client, reconciler, pointers, mediaSvc, bus, log)

	bus.Subscribe(events.EventNamePaymentSettled, events.HandlerFunc(engine.OnPaymentSettled))

	return &Module{
		handler: handler.New(engine, val),
		Engine:  engine,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "lifecycle"
}

// RegisterRoutes registers the module's routes under /api/v1/jobs.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	jobs := ctx.Protected.Group("/jobs")
	m.handler.RegisterRoutes(jobs)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
