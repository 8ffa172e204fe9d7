package handler

import (
	"net/http"

	"fieldtech_backend/internal/discovery/service"
	"fieldtech_backend/internal/discovery/transport"
	"fieldtech_backend/internal/geo"
	"fieldtech_backend/platform/httpkit"
	"fieldtech_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for order discovery.
type Handler struct {
	pipeline *service.Pipeline
	val      *validator.Validator
}

// New creates a new discovery handler.
func New(pipeline *service.Pipeline, val *validator.Validator) *Handler {
	return &Handler{pipeline: pipeline, val: val}
}

// RegisterRoutes registers the discovery routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Discover)
	rg.DELETE("/stream", h.CancelStream)
}

// Discover handles GET /api/v1/orders.
func (h *Handler) Discover(c *gin.Context) {
	var req transport.DiscoverRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	technicianID, ok := httpkit.MustTechnicianID(c)
	if !ok {
		return
	}

	var origin *geo.Coordinate
	if req.Lat != nil && req.Lng != nil {
		origin = &geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	}

	snapshot, err := h.pipeline.Discover(c.Request.Context(), technicianID, origin)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromSnapshot(snapshot))
}

// CancelStream handles DELETE /api/v1/orders/stream.
func (h *Handler) CancelStream(c *gin.Context) {
	technicianID, ok := httpkit.MustTechnicianID(c)
	if !ok {
		return
	}

	h.pipeline.CancelStream(technicianID)
	c.Status(http.StatusNoContent)
}
