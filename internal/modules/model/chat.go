package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ---------------------------------------------------------------------------
// Role constants
// ---------------------------------------------------------------------------

// Role is a type alias for message role strings.
// Using alias (=) instead of a new type so existing "user"/"assistant" literals
// remain assignable without conversion.
type Role = string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ---------------------------------------------------------------------------
// Chat session
// ---------------------------------------------------------------------------

// ChatSession groups the messages of one (document, user) conversation.
// SessionID is the logical key, composed deterministically as
// session_<documentID>_<epochMillis> so creation needs no coordination step.
// The stats fields are denormalized and rewritten from aggregation on every
// append; they are never incremented in place.
type ChatSession struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string        `bson:"session_id" json:"session_id"`

	DocumentID string `bson:"document_id" json:"document_id"`
	UserID     string `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Title      string `bson:"title" json:"title"`
	IsActive   bool   `bson:"is_active" json:"is_active"`

	MessageCount      int     `bson:"message_count" json:"message_count"`
	AvgConfidence     float64 `bson:"avg_confidence" json:"avg_confidence"`
	AvgProcessingTime float64 `bson:"avg_processing_time" json:"avg_processing_time"`
	TotalTokens       int64   `bson:"total_tokens" json:"total_tokens"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ---------------------------------------------------------------------------
// Chat message
// ---------------------------------------------------------------------------

// MessageSource is one attribution attached to an assistant message.
type MessageSource struct {
	Type       string  `bson:"type" json:"type"`
	Title      string  `bson:"title" json:"title"`
	URL        string  `bson:"url,omitempty" json:"url,omitempty"`
	Confidence float64 `bson:"confidence" json:"confidence"`
	Content    string  `bson:"content,omitempty" json:"content,omitempty"`
}

// TokenUsage is the prompt/completion breakdown reported by the answering
// engine.
type TokenUsage struct {
	PromptTokens     int `bson:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens int `bson:"completion_tokens" json:"completion_tokens"`
	TotalTokens      int `bson:"total_tokens" json:"total_tokens"`
}

// ChatMessage is one turn in a session. Immutable after insert; removed only
// by the per-document cascade delete.
type ChatMessage struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  string        `bson:"session_id" json:"session_id"`
	DocumentID string        `bson:"document_id" json:"document_id"`
	UserID     string        `bson:"user_id,omitempty" json:"user_id,omitempty"`

	Role    string `bson:"role" json:"role"`
	Content string `bson:"content" json:"content"`

	// Assistant-only fields. Confidence and ProcessingTime stay pointers so
	// Mongo's $avg can skip messages that never carried them.
	Confidence     *float64        `bson:"confidence,omitempty" json:"confidence,omitempty"`
	Sources        []MessageSource `bson:"sources,omitempty" json:"sources,omitempty"`
	ProcessingTime *float64        `bson:"processing_time,omitempty" json:"processing_time,omitempty"`
	TokenUsage     *TokenUsage     `bson:"token_usage,omitempty" json:"token_usage,omitempty"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// ---------------------------------------------------------------------------
// Document-chat rollup
// ---------------------------------------------------------------------------

// DocumentChatMap is the per-document rollup row. It is updated additively on
// session creation ($addToSet/$inc) and is a cheap cache only; authoritative
// numbers come from aggregation in GetDocumentChatStats.
type DocumentChatMap struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"-"`
	DocumentID string        `bson:"document_id" json:"document_id"`

	SessionIDs    []string `bson:"session_ids" json:"session_ids"`
	TotalSessions int      `bson:"total_sessions" json:"total_sessions"`
	TotalMessages int      `bson:"total_messages" json:"total_messages"`

	LastSessionID string    `bson:"last_session_id,omitempty" json:"last_session_id,omitempty"`
	LastActivity  time.Time `bson:"last_activity" json:"last_activity"`

	DocumentName   string `bson:"document_name,omitempty" json:"document_name,omitempty"`
	DocumentType   string `bson:"document_type,omitempty" json:"document_type,omitempty"`
	DocumentStatus string `bson:"document_status,omitempty" json:"document_status,omitempty"`
}

// SessionStats is the re-aggregated view written back onto a session after
// every append.
type SessionStats struct {
	MessageCount      int     `bson:"message_count"`
	AvgConfidence     float64 `bson:"avg_confidence"`
	AvgProcessingTime float64 `bson:"avg_processing_time"`
	TotalTokens       int64   `bson:"total_tokens"`
}

// DocumentChatStats is the authoritative on-demand view over a document's
// chat history.
type DocumentChatStats struct {
	TotalSessions       int        `json:"total_sessions"`
	TotalMessages       int        `json:"total_messages"`
	LastActivity        *time.Time `json:"last_activity,omitempty"`
	MostActiveSessionID string     `json:"most_active_session_id,omitempty"`
}
