package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicerecon/internal/config"
	"invoicerecon/internal/domain"
	"invoicerecon/internal/reconcile"
	"invoicerecon/internal/service"
)

// SessionHandler handles processing-session endpoints.
type SessionHandler struct {
	sessionService service.SessionService
	upload         config.UploadConfig
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService, upload config.UploadConfig) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, upload: upload}
}

// SessionDetail is a session together with everything processed in it.
type SessionDetail struct {
	Session *domain.SessionInfo     `json:"session"`
	Summary *reconcile.BatchSummary `json:"summary"`
}

// parseSessionID reads the :id path parameter. Returns false if it is not
// a UUID (error response already written).
func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	info, err := h.sessionService.Create(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, info)
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessionService.List(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, sessions)
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	info, err := h.sessionService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	summary, err := h.sessionService.Summary(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, SessionDetail{Session: info, Summary: summary})
}

// Upload handles POST /api/v1/sessions/:id/documents. Every file in the
// "files" field is validated before any of them is processed.
func (h *SessionHandler) Upload(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "multipart form with a files field is required")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		HandleError(c, domain.ErrNoDocuments)
		return
	}
	if len(headers) > h.upload.MaxFiles {
		HandleError(c, fmt.Errorf("%d files, limit %d: %w", len(headers), h.upload.MaxFiles, domain.ErrTooManyFiles))
		return
	}

	docs := make([]domain.SourceDocument, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.upload.MaxFileSizeBytes() {
			HandleError(c, fmt.Errorf("%s: %w", fh.Filename, domain.ErrFileTooLarge))
			return
		}
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read "+fh.Filename)
			return
		}
		doc, err := service.ReadDocument(fh.Filename, f, h.upload.MaxFileSizeBytes())
		_ = f.Close()
		if err != nil {
			HandleError(c, err)
			return
		}
		docs = append(docs, *doc)
	}

	summary, err := h.sessionService.AddDocuments(c.Request.Context(), id, docs)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, summary)
}

// Delete handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.sessionService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "session deleted"})
}
