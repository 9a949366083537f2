package repo

import (
	"context"
	"time"

	"github.com/engunity-ai/engunity/internal/modules/model"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentRepo interface {
	Create(ctx context.Context, d *model.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	ListByUser(ctx context.Context, userID string) ([]model.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, processedAt *time.Time, metadata datatypes.JSONMap) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepo struct{ db *gorm.DB }

func NewDocumentRepo(db *gorm.DB) DocumentRepo {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, d *model.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) ListByUser(ctx context.Context, userID string) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, processedAt *time.Time, metadata datatypes.JSONMap) error {
	updates := map[string]interface{}{"status": status}
	if processedAt != nil {
		updates["processed_at"] = *processedAt
	}
	if metadata != nil {
		// Whole-value replace: the stored metadata object is swapped, not
		// deep-merged.
		updates["metadata"] = metadata
	}

	res := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{}).Error
}
