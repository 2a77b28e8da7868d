package handler

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicerecon/internal/service"
)

// ExportHandler serves and publishes session artifacts.
type ExportHandler struct {
	sessionService service.SessionService
	exportService  service.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(sessionService service.SessionService, exportService service.ExportService) *ExportHandler {
	return &ExportHandler{sessionService: sessionService, exportService: exportService}
}

// Download handles GET /api/v1/sessions/:id/export/:artifact where artifact
// is passed.csv, passed.xlsx or failed.zip.
func (h *ExportHandler) Download(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	kind, err := service.ParseArtifactKind(c.Param("artifact"))
	if err != nil {
		RespondError(c, http.StatusNotFound, "UNKNOWN_EXPORT", "export must be one of passed.csv, passed.xlsx, failed.zip")
		return
	}

	summary, err := h.sessionService.Summary(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	artifact, err := h.exportService.Render(kind, summary)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// Publish handles POST /api/v1/sessions/:id/publish. Every non-empty
// artifact is uploaded to object storage and a presigned URL is returned
// for each.
func (h *ExportHandler) Publish(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	summary, err := h.sessionService.Summary(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	artifacts, err := h.exportService.RenderAll(summary)
	if err != nil {
		HandleError(c, err)
		return
	}
	published, err := h.exportService.Publish(c.Request.Context(), id.String(), artifacts)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, published)
}
