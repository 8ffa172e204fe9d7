package media

import (
	apphttp "fieldtech_backend/internal/http"
	"fieldtech_backend/platform/logger"
	"fieldtech_backend/platform/validator"
)

// Module represents the job capture media module.
type Module struct {
	handler *Handler
	Service *Service
}

// NewModule creates the media module over an object store.
func NewModule(store ObjectStore, maxFileSize int64, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(store, maxFileSize, log)
	return &Module{
		handler: NewHandler(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "media"
}

// RegisterRoutes registers the module's routes under /api/v1/media.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	media := ctx.Protected.Group("/media")
	m.handler.RegisterRoutes(media)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
