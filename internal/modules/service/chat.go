package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/engunity-ai/engunity/internal/modules/model"
	"github.com/engunity-ai/engunity/internal/modules/repo"
	"github.com/engunity-ai/engunity/internal/pkg/utils/tokencount"
	"go.uber.org/zap"
)

const defaultMessagePageSize = 50

// DocumentInfo carries the denormalized document fields copied onto new
// sessions and the rollup mapping.
type DocumentInfo struct {
	Name   string
	Type   string
	Status string
}

// CleanupResult reports what a per-document cascade delete removed.
type CleanupResult struct {
	DeletedMessages int64 `json:"deleted_messages"`
	DeletedSessions int64 `json:"deleted_sessions"`
}

type ChatService interface {
	GetOrCreateActiveSession(ctx context.Context, documentID, userID string, info *DocumentInfo) (*model.ChatSession, error)
	AppendMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error)
	ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]model.ChatMessage, error)
	ListSessionsForDocument(ctx context.Context, documentID, userID string) ([]model.ChatSession, error)
	DeleteAllChatsForDocument(ctx context.Context, documentID string) (*CleanupResult, error)
	GetDocumentChatStats(ctx context.Context, documentID string) (*model.DocumentChatStats, error)
}

type chatService struct {
	r   repo.ChatRepo
	log *zap.Logger
}

func NewChatService(r repo.ChatRepo, log *zap.Logger) ChatService {
	return &chatService{r: r, log: log}
}

// GetOrCreateActiveSession returns the active session for the (document,
// user) pair, creating it on first use. The losing side of a concurrent
// create hits the partial unique index and re-fetches the winner.
func (s *chatService) GetOrCreateActiveSession(ctx context.Context, documentID, userID string, info *DocumentInfo) (*model.ChatSession, error) {
	if documentID == "" {
		return nil, errors.New("document id is empty")
	}

	existing, err := s.r.FindActiveSession(ctx, documentID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repo.ErrNoSession) {
		return nil, fmt.Errorf("find active session: %w", err)
	}

	now := time.Now().UTC()
	session := &model.ChatSession{
		SessionID:  fmt.Sprintf("session_%s_%d", documentID, now.UnixMilli()),
		DocumentID: documentID,
		UserID:     userID,
		Title:      sessionTitle(info),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.r.InsertSession(ctx, session); err != nil {
		if repo.IsDuplicateSession(err) {
			// Someone else created it between our find and insert.
			return s.r.FindActiveSession(ctx, documentID, userID)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	mapDoc := &model.DocumentChatMap{}
	if info != nil {
		mapDoc.DocumentName = info.Name
		mapDoc.DocumentType = info.Type
		mapDoc.DocumentStatus = info.Status
	}
	if err := s.r.UpsertDocumentMap(ctx, documentID, session.SessionID, mapDoc); err != nil {
		// The mapping is a rollup cache; a miss here is drift, not data loss.
		s.log.Warn("document chat mapping upsert failed",
			zap.String("document_id", documentID), zap.Error(err))
	}

	return session, nil
}

func sessionTitle(info *DocumentInfo) string {
	if info != nil && info.Name != "" {
		return "Chat about " + info.Name
	}
	return "Document chat"
}

// AppendMessage inserts the message, then rewrites the session counters from
// a full re-aggregation rather than incrementing them, so they stay correct
// under bulk deletes, backfills, and out-of-order writes.
func (s *chatService) AppendMessage(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	if msg.SessionID == "" {
		return nil, errors.New("session id is empty")
	}
	if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
		return nil, fmt.Errorf("invalid role %q", msg.Role)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.Role == model.RoleAssistant && msg.TokenUsage == nil && msg.Content != "" {
		n := tokencount.Estimate(msg.Content)
		msg.TokenUsage = &model.TokenUsage{CompletionTokens: n, TotalTokens: n}
	}

	if _, err := s.r.GetSession(ctx, msg.SessionID); err != nil {
		if errors.Is(err, repo.ErrNoSession) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, msg.SessionID)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := s.r.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	stats, err := s.r.AggregateSessionStats(ctx, msg.SessionID)
	if err != nil {
		return nil, fmt.Errorf("aggregate session stats: %w", err)
	}
	if err := s.r.UpdateSessionStats(ctx, msg.SessionID, stats); err != nil {
		return nil, fmt.Errorf("update session stats: %w", err)
	}

	if err := s.r.TouchDocumentMap(ctx, msg.DocumentID, msg.Timestamp); err != nil {
		s.log.Warn("document chat mapping touch failed",
			zap.String("document_id", msg.DocumentID), zap.Error(err))
	}

	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]model.ChatMessage, error) {
	if sessionID == "" {
		return nil, errors.New("session id is empty")
	}
	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.r.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, repo.ErrNoSession) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s.r.ListMessages(ctx, sessionID, limit, offset)
}

func (s *chatService) ListSessionsForDocument(ctx context.Context, documentID, userID string) ([]model.ChatSession, error) {
	if documentID == "" {
		return nil, errors.New("document id is empty")
	}
	return s.r.ListSessionsByDocument(ctx, documentID, userID)
}

// DeleteAllChatsForDocument bulk-deletes messages, then sessions, then drops
// the rollup mapping row entirely.
func (s *chatService) DeleteAllChatsForDocument(ctx context.Context, documentID string) (*CleanupResult, error) {
	if documentID == "" {
		return nil, errors.New("document id is empty")
	}

	messages, err := s.r.DeleteMessagesByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("delete messages: %w", err)
	}
	sessions, err := s.r.DeleteSessionsByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("delete sessions: %w", err)
	}
	if err := s.r.DeleteDocumentMap(ctx, documentID); err != nil {
		return nil, fmt.Errorf("delete document chat mapping: %w", err)
	}

	return &CleanupResult{DeletedMessages: messages, DeletedSessions: sessions}, nil
}

// GetDocumentChatStats recomputes the authoritative view from aggregation on
// every call; the rollup mapping is never consulted here.
func (s *chatService) GetDocumentChatStats(ctx context.Context, documentID string) (*model.DocumentChatStats, error) {
	if documentID == "" {
		return nil, errors.New("document id is empty")
	}

	sessions, err := s.r.CountSessionsByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	messages, err := s.r.CountMessagesByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	stats := &model.DocumentChatStats{
		TotalSessions: int(sessions),
		TotalMessages: int(messages),
	}
	if messages > 0 {
		last, err := s.r.LastMessageTime(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("last message time: %w", err)
		}
		stats.LastActivity = last

		mostActive, err := s.r.MostActiveSessionID(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("most active session: %w", err)
		}
		stats.MostActiveSessionID = mostActive
	}
	return stats, nil
}
