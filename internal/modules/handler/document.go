package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/engunity-ai/engunity/internal/middleware"
	"github.com/engunity-ai/engunity/internal/modules/serializer"
	"github.com/engunity-ai/engunity/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentHandler struct {
	svc service.DocumentService
}

func NewDocumentHandler(svc service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// ownerID resolves the acting user: the authenticated subject when the auth
// middleware ran, otherwise an explicit user_id parameter.
func ownerID(c *gin.Context) string {
	if v, ok := c.Get(middleware.CtxUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if s := c.Query("user_id"); s != "" {
		return s
	}
	return c.PostForm("user_id")
}

type UploadDocumentReq struct {
	Category string   `form:"category"`
	Tags     []string `form:"tags"`
}

// UploadDocument godoc
//
//	@Summary		Upload document
//	@Description	Upload a file blob and create its metadata record
//	@Tags			document
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"File to upload"
//	@Param			category	formData	string	false	"Document category"
//	@Success		201	{object}	serializer.Response{data=model.Document}
//	@Router			/documents [post]
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	req := UploadDocumentReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	owner := ownerID(c)
	if owner == "" {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("user_id is required", nil))
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is required", err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	doc, err := h.svc.Upload(c.Request.Context(), service.UploadInput{
		UserID:      owner,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
		Category:    req.Category,
		Tags:        req.Tags,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("upload failed", err))
		return
	}

	c.JSON(http.StatusCreated, serializer.Response{Data: doc})
}

// ListDocuments godoc
//
//	@Summary		List documents
//	@Description	List the owner's documents, newest upload first
//	@Tags			document
//	@Produce		json
//	@Success		200	{object}	serializer.Response{data=[]model.Document}
//	@Router			/documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	owner := ownerID(c)
	if owner == "" {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("user_id is required", nil))
		return
	}

	docs, err := h.svc.List(c.Request.Context(), owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: docs})
}

// GetDocument godoc
//
//	@Summary	Get document
//	@Tags		document
//	@Produce	json
//	@Param		document_id	path		string	true	"Document ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=model.Document}
//	@Router		/documents/{document_id} [get]
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, serializer.NotFoundErr("document not found", err))
			return
		}
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: doc})
}

// DownloadDocument godoc
//
//	@Summary		Download document
//	@Description	Return a short-lived presigned URL for the stored blob
//	@Tags			document
//	@Produce		json
//	@Param			document_id	path	string	true	"Document ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{}
//	@Router			/documents/{document_id}/download [get]
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	url, err := h.svc.DownloadURL(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, serializer.NotFoundErr("document not found", err))
			return
		}
		c.JSON(http.StatusInternalServerError, serializer.DBErr("presign failed", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: gin.H{"url": url}})
}

type UpdateStatusReq struct {
	Status   string                 `json:"status" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

// UpdateDocumentStatus godoc
//
//	@Summary		Update document status
//	@Description	Set the processing status and optionally replace metadata
//	@Tags			document
//	@Accept			json
//	@Produce		json
//	@Param			document_id	path	string			true	"Document ID"	Format(uuid)
//	@Param			body		body	UpdateStatusReq	true	"New status"
//	@Success		200	{object}	serializer.Response{}
//	@Router			/documents/{document_id}/status [patch]
func (h *DocumentHandler) UpdateDocumentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	req := UpdateStatusReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status, req.Metadata); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, serializer.NotFoundErr("document not found", err))
			return
		}
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "updated"})
}

// DeleteDocument godoc
//
//	@Summary		Delete document
//	@Description	Delete the metadata row, blob, and chat history
//	@Tags			document
//	@Produce		json
//	@Param			document_id	path	string	true	"Document ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{}
//	@Router			/documents/{document_id} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, serializer.NotFoundErr("document not found", err))
			return
		}
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "deleted"})
}
