package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicerecon/internal/config"
	"invoicerecon/internal/domain"
	"invoicerecon/internal/handler"
	"invoicerecon/internal/reconcile"
	"invoicerecon/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func uploadLimits() config.UploadConfig {
	return config.UploadConfig{MaxFileSizeMB: 1, MaxFiles: 2}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// multipartBody builds a form with one "files" part per name/content pair.
func multipartBody(t *testing.T, files map[string][]byte, order ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range order {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = part.Write(files[name])
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestSessionHandler_Create(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc, uploadLimits())

	info := &domain.SessionInfo{ID: uuid.New(), CreatedAt: time.Now().UTC()}
	svc.On("Create", mock.Anything).Return(info, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/sessions", nil)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, info.ID.String(), resp.Data.(map[string]interface{})["id"])
	svc.AssertExpectations(t)
}

func TestSessionHandler_Get(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc, uploadLimits())
	id := uuid.New()

	summary := reconcile.NewBatchSummary(0)
	svc.On("Get", mock.Anything, id).Return(&domain.SessionInfo{ID: id}, nil)
	svc.On("Summary", mock.Anything, id).Return(summary, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/sessions/"+id.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Contains(t, data, "session")
	assert.Contains(t, data, "summary")
}

func TestSessionHandler_Get_Errors(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		h := handler.NewSessionHandler(new(mocks.MockSessionService), uploadLimits())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/sessions/nope", nil)
		c.Params = gin.Params{{Key: "id", Value: "nope"}}

		h.Get(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(mocks.MockSessionService)
		h := handler.NewSessionHandler(svc, uploadLimits())
		id := uuid.New()
		svc.On("Get", mock.Anything, id).Return(nil, domain.ErrSessionNotFound)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		h.Get(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "SESSION_NOT_FOUND", decode(t, w).Error.Code)
	})
}

func TestSessionHandler_Upload_Success(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc, uploadLimits())
	id := uuid.New()

	summary := reconcile.NewBatchSummary(2)
	svc.On("AddDocuments", mock.Anything, id, mock.MatchedBy(func(docs []domain.SourceDocument) bool {
		return len(docs) == 2 &&
			docs[0].Name == "a.pdf" && docs[0].ContentType == "application/pdf" &&
			docs[1].Name == "b.png" && docs[1].ContentType == "image/png"
	})).Return(summary, nil)

	png := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 32)...)
	body, contentType := multipartBody(t, map[string][]byte{
		"a.pdf": []byte("%PDF-1.4 invoice"),
		"b.png": png,
	}, "a.pdf", "b.png")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Upload(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
	svc.AssertExpectations(t)
}

func TestSessionHandler_Upload_Rejections(t *testing.T) {
	pdf := []byte("%PDF-1.4 invoice")
	tests := []struct {
		name   string
		files  map[string][]byte
		order  []string
		status int
		code   string
	}{
		{"no files", map[string][]byte{}, nil, http.StatusBadRequest, "NO_DOCUMENTS"},
		{"too many", map[string][]byte{"a.pdf": pdf, "b.pdf": pdf, "c.pdf": pdf}, []string{"a.pdf", "b.pdf", "c.pdf"}, http.StatusBadRequest, "TOO_MANY_FILES"},
		{"wrong extension", map[string][]byte{"a.txt": pdf}, []string{"a.txt"}, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{"wrong content", map[string][]byte{"a.pdf": []byte("hello")}, []string{"a.pdf"}, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{"too large", map[string][]byte{"a.pdf": append([]byte("%PDF-"), make([]byte, 1024*1024)...)}, []string{"a.pdf"}, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockSessionService)
			h := handler.NewSessionHandler(svc, uploadLimits())
			body, contentType := multipartBody(t, tt.files, tt.order...)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/", body)
			c.Request.Header.Set("Content-Type", contentType)
			c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

			h.Upload(c)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Error.Code)
			svc.AssertNotCalled(t, "AddDocuments", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc, uploadLimits())
	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
