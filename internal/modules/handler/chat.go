package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/engunity-ai/engunity/internal/modules/model"
	"github.com/engunity-ai/engunity/internal/modules/serializer"
	"github.com/engunity-ai/engunity/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	svc  service.ChatService
	docs service.DocumentService
}

func NewChatHandler(svc service.ChatService, docs service.DocumentService) *ChatHandler {
	return &ChatHandler{svc: svc, docs: docs}
}

// GetOrCreateSession godoc
//
//	@Summary		Get or create chat session
//	@Description	Return the active session for (document, user), creating it on first use
//	@Tags			chat
//	@Produce		json
//	@Param			document_id	path		string	true	"Document ID"
//	@Success		200	{object}	serializer.Response{data=model.ChatSession}
//	@Router			/documents/{document_id}/sessions [post]
func (h *ChatHandler) GetOrCreateSession(c *gin.Context) {
	documentID := c.Param("document_id")

	var info *service.DocumentInfo
	if id, err := uuid.Parse(documentID); err == nil {
		if doc, err := h.docs.Get(c.Request.Context(), id); err == nil {
			info = &service.DocumentInfo{Name: doc.Name, Type: doc.Type, Status: doc.Status}
		}
	}

	session, err := h.svc.GetOrCreateActiveSession(c.Request.Context(), documentID, ownerID(c), info)
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: session})
}

// ListSessions godoc
//
//	@Summary	List sessions for a document
//	@Tags		chat
//	@Produce	json
//	@Param		document_id	path		string	true	"Document ID"
//	@Success	200	{object}	serializer.Response{data=[]model.ChatSession}
//	@Router		/documents/{document_id}/sessions [get]
func (h *ChatHandler) ListSessions(c *gin.Context) {
	sessions, err := h.svc.ListSessionsForDocument(c.Request.Context(), c.Param("document_id"), ownerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: sessions})
}

type SendMessageReq struct {
	DocumentID     string                `json:"document_id" binding:"required"`
	Role           string                `json:"role" binding:"required"`
	Content        string                `json:"content" binding:"required"`
	Confidence     *float64              `json:"confidence"`
	Sources        []model.MessageSource `json:"sources"`
	ProcessingTime *float64              `json:"processing_time"`
	TokenUsage     *model.TokenUsage     `json:"token_usage"`
}

// SendMessage godoc
//
//	@Summary		Append message
//	@Description	Store one chat turn and refresh the session statistics
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			session_id	path	string			true	"Session ID"
//	@Param			body		body	SendMessageReq	true	"Message"
//	@Success		201	{object}	serializer.Response{data=model.ChatMessage}
//	@Router			/sessions/{session_id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	req := SendMessageReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	msg, err := h.svc.AppendMessage(c.Request.Context(), &model.ChatMessage{
		SessionID:      c.Param("session_id"),
		DocumentID:     req.DocumentID,
		UserID:         ownerID(c),
		Role:           req.Role,
		Content:        req.Content,
		Confidence:     req.Confidence,
		Sources:        req.Sources,
		ProcessingTime: req.ProcessingTime,
		TokenUsage:     req.TokenUsage,
	})
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, serializer.NotFoundErr("session not found", err))
			return
		}
		c.JSON(http.StatusInternalServerError, serializer.DBErr("store message failed", err))
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: msg})
}

// GetMessages godoc
//
//	@Summary	List messages
//	@Tags		chat
//	@Produce	json
//	@Param		session_id	path		string	true	"Session ID"
//	@Param		limit		query		int		false	"Page size (default 50)"
//	@Param		offset		query		int		false	"Offset"
//	@Success	200	{object}	serializer.Response{data=[]model.ChatMessage}
//	@Router		/sessions/{session_id}/messages [get]
func (h *ChatHandler) GetMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	msgs, err := h.svc.ListMessages(c.Request.Context(), c.Param("session_id"), limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, serializer.NotFoundErr("session not found", err))
			return
		}
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: msgs})
}

// GetDocumentChatStats godoc
//
//	@Summary		Document chat statistics
//	@Description	Authoritative aggregated view over a document's chat history
//	@Tags			chat
//	@Produce		json
//	@Param			document_id	path		string	true	"Document ID"
//	@Success		200	{object}	serializer.Response{data=model.DocumentChatStats}
//	@Router			/documents/{document_id}/chat/stats [get]
func (h *ChatHandler) GetDocumentChatStats(c *gin.Context) {
	stats, err := h.svc.GetDocumentChatStats(c.Request.Context(), c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: stats})
}

// DeleteDocumentChats godoc
//
//	@Summary		Delete all chats for a document
//	@Description	Bulk-delete messages, sessions, and the rollup mapping
//	@Tags			chat
//	@Produce		json
//	@Param			document_id	path		string	true	"Document ID"
//	@Success		200	{object}	serializer.Response{data=service.CleanupResult}
//	@Router			/documents/{document_id}/chats [delete]
func (h *ChatHandler) DeleteDocumentChats(c *gin.Context) {
	result, err := h.svc.DeleteAllChatsForDocument(c.Request.Context(), c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("chat cleanup failed", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: result})
}
