package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Document status values. A record is created directly in StatusProcessed
// (there is no async processing stage); StatusArchived is reserved and never
// set by any current flow.
const (
	StatusUploading  = "uploading"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
	StatusArchived   = "archived"
)

// Metadata keys stored in Document.Metadata.
const (
	MetaKeyETag      = "etag"
	MetaKeyStoredAs  = "stored_as"
	MetaKeyPageCount = "page_count"
	MetaKeyWordCount = "word_count"
	MetaKeyLanguage  = "language"
)

type Document struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID string    `gorm:"type:text;not null;index:idx_documents_user_uploaded,priority:1" json:"user_id"`

	Name     string `gorm:"type:text;not null" json:"name"`
	Type     string `gorm:"type:text;not null" json:"type"`
	Size     string `gorm:"type:text;not null" json:"size"`
	Category string `gorm:"type:text" json:"category"`

	Status string `gorm:"type:text;not null;default:'uploading';check:status IN ('uploading','processing','processed','failed','archived')" json:"status"`

	StorageURL string `gorm:"type:text;not null" json:"storage_url"`
	StorageKey string `gorm:"type:text" json:"storage_key"`

	Metadata datatypes.JSONMap           `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	Tags     datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"tags"`

	UploadedAt  time.Time  `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP;index:idx_documents_user_uploaded,priority:2,sort:desc" json:"uploaded_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

func (Document) TableName() string { return "documents" }
