package handler

import (
	"net/http"

	"fieldtech_backend/internal/geo"
	"fieldtech_backend/internal/lifecycle/service"
	"fieldtech_backend/internal/lifecycle/transport"
	"fieldtech_backend/platform/httpkit"
	"fieldtech_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the job lifecycle.
type Handler struct {
	engine *service.Engine
	val    *validator.Validator
}

// New creates a new lifecycle handler.
func New(engine *service.Engine, val *validator.Validator) *Handler {
	return &Handler{engine: engine, val: val}
}

// RegisterRoutes registers the lifecycle routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:offerId", h.Load)
	rg.POST("/:offerId/transition", h.Transition)
	rg.DELETE("/:offerId/session", h.Unload)
}

// Load handles GET /api/v1/jobs/:offerId.
func (h *Handler) Load(c *gin.Context) {
	technicianID, ok := httpkit.MustTechnicianID(c)
	if !ok {
		return
	}

	view, err := h.engine.Load(c.Request.Context(), technicianID, c.Param("offerId"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromView(view))
}

// Transition handles POST /api/v1/jobs/:offerId/transition.
func (h *Handler) Transition(c *gin.Context) {
	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	target, ok := transport.ParseTarget(req.Target)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, "unknown transition target", req.Target)
		return
	}

	technicianID, ok := httpkit.MustTechnicianID(c)
	if !ok {
		return
	}

	payload := service.TransitionPayload{
		Note:      req.Note,
		FinalCost: req.FinalCost,
	}
	if req.Location != nil {
		payload.Location = &geo.Coordinate{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}

	view, check, err := h.engine.RequestTransition(c.Request.Context(), technicianID, c.Param("offerId"), target, payload)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.TransitionResponse{
		Allowed: check.Allowed,
		Denial:  string(check.Denial),
		Message: check.Message,
		Job:     transport.FromView(view),
	}
	if !check.Allowed {
		httpkit.JSON(c, http.StatusUnprocessableEntity, resp)
		return
	}
	httpkit.OK(c, resp)
}

// Unload handles DELETE /api/v1/jobs/:offerId/session.
func (h *Handler) Unload(c *gin.Context) {
	technicianID, ok := httpkit.MustTechnicianID(c)
	if !ok {
		return
	}

	h.engine.Unload(technicianID, c.Param("offerId"))
	c.Status(http.StatusNoContent)
}
