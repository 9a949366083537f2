package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/engunity-ai/engunity/internal/infra/blob"
	"github.com/engunity-ai/engunity/internal/modules/model"
	"github.com/engunity-ai/engunity/internal/modules/repo"
	"github.com/engunity-ai/engunity/internal/pkg/utils/format"
	"github.com/engunity-ai/engunity/internal/pkg/utils/mime"
	"github.com/engunity-ai/engunity/internal/pkg/utils/objectkey"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ChatCleanup is the slice of the chat service the lifecycle needs: document
// deletion owns chat cleanup as its last step.
type ChatCleanup interface {
	DeleteAllChatsForDocument(ctx context.Context, documentID string) (*CleanupResult, error)
}

type UploadInput struct {
	UserID      string
	Filename    string
	ContentType string
	Data        []byte
	Category    string
	Tags        []string
}

type DocumentService interface {
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)
	List(ctx context.Context, userID string) ([]model.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
	DownloadURL(ctx context.Context, id uuid.UUID) (string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, metadata map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const defaultPresignTTL = 15 * time.Minute

type documentService struct {
	docs       repo.DocumentRepo
	blob       blob.Store
	chats      ChatCleanup
	presignTTL time.Duration
	log        *zap.Logger
}

func NewDocumentService(docs repo.DocumentRepo, b blob.Store, chats ChatCleanup, presignTTL time.Duration, log *zap.Logger) DocumentService {
	if presignTTL <= 0 {
		presignTTL = defaultPresignTTL
	}
	return &documentService{
		docs:       docs,
		blob:       b,
		chats:      chats,
		presignTTL: presignTTL,
		log:        log,
	}
}

// Upload writes the blob first, then inserts the metadata row; the insert is
// the commit point. A failed insert triggers a compensating blob delete and
// re-raises the classified insert error, never the compensation's.
func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if in.Filename == "" {
		return nil, errors.New("filename is empty")
	}
	if len(in.Data) == 0 {
		return nil, errors.New("file is empty")
	}
	if in.UserID == "" {
		return nil, errors.New("user id is empty")
	}

	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.DetectMimeType(in.Data, in.Filename)
	}

	key := objectkey.New(in.UserID, in.Filename)
	up, err := s.blob.Upload(ctx, key, in.Data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		UserID:   in.UserID,
		Name:     in.Filename,
		Type:     mime.DocTypeFromMIME(contentType),
		Size:     format.ByteSize(int64(len(in.Data))),
		Category: in.Category,
		// No separate async processing stage: records land processed.
		Status:      model.StatusProcessed,
		StorageURL:  up.URL,
		StorageKey:  up.Key,
		Tags:        datatypes.NewJSONSlice(in.Tags),
		ProcessedAt: &now,
		Metadata: datatypes.JSONMap{
			model.MetaKeyETag:     up.ETag,
			model.MetaKeyStoredAs: up.Key,
		},
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.blob.Delete(ctx, key); delErr != nil {
			s.log.Error("compensating blob delete failed",
				zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("insert document record: %w", classifyDBError(err))
	}

	return doc, nil
}

func (s *documentService) List(ctx context.Context, userID string) ([]model.Document, error) {
	if userID == "" {
		return nil, errors.New("user id is empty")
	}
	docs, err := s.docs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", classifyDBError(err))
	}
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", classifyDBError(err))
	}
	return doc, nil
}

// DownloadURL returns a short-lived presigned GET for the stored blob, so
// private buckets never need their objects exposed through PublicURL.
func (s *documentService) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get document: %w", classifyDBError(err))
	}

	key := doc.StorageKey
	if key == "" {
		key = blob.KeyFromURL(doc.StorageURL)
	}
	if key == "" {
		return "", fmt.Errorf("document %s has no recoverable storage key", id)
	}

	url, err := s.blob.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return url, nil
}

func (s *documentService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, metadata map[string]interface{}) error {
	switch status {
	case model.StatusUploading, model.StatusProcessing, model.StatusProcessed,
		model.StatusFailed, model.StatusArchived:
	default:
		return fmt.Errorf("invalid status %q", status)
	}

	var processedAt *time.Time
	if status == model.StatusProcessed {
		now := time.Now().UTC()
		processedAt = &now
	}

	var patch datatypes.JSONMap
	if metadata != nil {
		patch = datatypes.JSONMap(metadata)
	}

	if err := s.docs.UpdateStatus(ctx, id, status, processedAt, patch); err != nil {
		return fmt.Errorf("update document status: %w", classifyDBError(err))
	}
	return nil
}

// Delete removes the metadata row, then the blob, then the chat history. The
// row is the source of truth for existence: blob and chat failures after a
// successful row delete are logged, not propagated.
func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get document: %w", classifyDBError(err))
	}

	if err := s.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document record: %w", classifyDBError(err))
	}

	key := doc.StorageKey
	if key == "" {
		key = blob.KeyFromURL(doc.StorageURL)
	}
	if key != "" {
		if err := s.blob.Delete(ctx, key); err != nil {
			// Tolerated leak: the row is gone, the document is deleted.
			s.log.Warn("blob delete failed after metadata delete",
				zap.String("document_id", id.String()),
				zap.String("key", key),
				zap.Error(err))
		}
	} else {
		s.log.Warn("no storage key recoverable for deleted document",
			zap.String("document_id", id.String()),
			zap.String("storage_url", doc.StorageURL))
	}

	if s.chats != nil {
		if _, err := s.chats.DeleteAllChatsForDocument(ctx, id.String()); err != nil {
			s.log.Warn("chat cleanup failed after document delete",
				zap.String("document_id", id.String()),
				zap.Error(err))
		}
	}

	return nil
}
