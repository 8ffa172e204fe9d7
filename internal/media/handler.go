package media

import (
	"io"
	"net/http"

	"fieldtech_backend/platform/httpkit"
	"fieldtech_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// UploadRequest is the multipart form alongside the file field.
type UploadRequest struct {
	RequestID     string `form:"requestId" validate:"required"`
	AppointmentID string `form:"appointmentId"`
	Purpose       string `form:"purpose" validate:"required,oneof=initial final"`
}

// ListRequest is the query for listing a job's attachments.
type ListRequest struct {
	RequestID     string `form:"requestId" validate:"required"`
	AppointmentID string `form:"appointmentId"`
}

// DeleteRequest identifies one attachment. The id is the object key, which
// contains slashes, so it travels as a query parameter rather than a path
// segment.
type DeleteRequest struct {
	RequestID string `form:"requestId" validate:"required"`
	ID        string `form:"id" validate:"required"`
}

// Handler handles HTTP requests for job capture media.
type Handler struct {
	svc *Service
	val *validator.Validator
}

// NewHandler creates a new media handler.
func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the media routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Upload)
	rg.GET("", h.List)
	rg.DELETE("", h.Delete)
}

// Upload handles POST /api/v1/media.
func (h *Handler) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file field is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	attachment, err := h.svc.Upload(c.Request.Context(), req.RequestID, req.AppointmentID,
		Purpose(req.Purpose), fileHeader.Filename, contentType, data)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, attachment)
}

// List handles GET /api/v1/media.
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	attachments, err := h.svc.ListByRequest(c.Request.Context(), req.RequestID, req.AppointmentID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, attachments)
}

// Delete handles DELETE /api/v1/media.
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if err := h.svc.Delete(c.Request.Context(), req.RequestID, req.ID); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}
