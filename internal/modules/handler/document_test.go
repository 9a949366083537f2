package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/engunity-ai/engunity/internal/modules/model"
	"github.com/engunity-ai/engunity/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, userID string) ([]model.Document, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, metadata map[string]interface{}) error {
	args := m.Called(ctx, id, status, metadata)
	return args.Error(0)
}

func (m *MockDocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func setupDocumentRouter(svc service.DocumentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(svc)

	r := gin.New()
	r.POST("/documents", h.UploadDocument)
	r.GET("/documents/:document_id", h.GetDocument)
	r.GET("/documents/:document_id/download", h.DownloadDocument)
	r.DELETE("/documents/:document_id", h.DeleteDocument)
	return r
}

func multipartUpload(t *testing.T, filename, userID string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("user_id", userID))
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestDocumentHandler_UploadDocument(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockDocumentService)
		svc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.UserID == "u1" && in.Filename == "a.txt" && len(in.Data) == 10
		})).Return(&model.Document{Name: "a.txt", Type: "TXT", Size: "10 B", Status: model.StatusProcessed}, nil)

		body, contentType := multipartUpload(t, "a.txt", "u1", []byte("0123456789"))
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		setupDocumentRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp struct {
			Data model.Document `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "TXT", resp.Data.Type)
		assert.Equal(t, "10 B", resp.Data.Size)
		svc.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		svc := new(MockDocumentService)
		req := httptest.NewRequest(http.MethodPost, "/documents?user_id=u1", nil)
		rec := httptest.NewRecorder()

		setupDocumentRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("missing owner", func(t *testing.T) {
		svc := new(MockDocumentService)
		body, contentType := multipartUpload(t, "a.txt", "", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		setupDocumentRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDocumentHandler_GetDocument(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc := new(MockDocumentService)
		id := uuid.New()
		svc.On("Get", mock.Anything, id).Return(nil, service.ErrDocumentNotFound)

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id.String(), nil)
		rec := httptest.NewRecorder()
		setupDocumentRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := new(MockDocumentService)
		req := httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		setupDocumentRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDocumentHandler_DownloadDocument(t *testing.T) {
	t.Run("returns presigned url", func(t *testing.T) {
		svc := new(MockDocumentService)
		id := uuid.New()
		svc.On("DownloadURL", mock.Anything, id).
			Return("https://signed.example.com/a.txt?X-Amz-Signature=abc", nil)

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id.String()+"/download", nil)
		rec := httptest.NewRecorder()
		setupDocumentRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Data.URL, "X-Amz-Signature")
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockDocumentService)
		id := uuid.New()
		svc.On("DownloadURL", mock.Anything, id).Return("", service.ErrDocumentNotFound)

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id.String()+"/download", nil)
		rec := httptest.NewRecorder()
		setupDocumentRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDocumentHandler_DeleteDocument(t *testing.T) {
	svc := new(MockDocumentService)
	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/documents/"+id.String(), nil)
	rec := httptest.NewRecorder()
	setupDocumentRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
